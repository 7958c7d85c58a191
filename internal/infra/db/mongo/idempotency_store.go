package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apporders "storefront/internal/app/orders"
)

// refundRetention bounds how long a refund outcome can be replayed.
const refundRetention = 7 * 24 * time.Hour

// RefundLedger keeps completed refund outcomes so retried submits replay them. Without
// its TTL index the collection grows without bound; see EnsureIndexes.
type RefundLedger struct {
	col *mongo.Collection
}

func NewRefundLedger(db *mongo.Database) *RefundLedger {
	return &RefundLedger{col: db.Collection("app_refund_idempotency")}
}

// EnsureIndexes creates the retention index.
func (s *RefundLedger) EnsureIndexes(ctx context.Context) error {
	if _, err := s.col.Indexes().CreateOne(ctx, refundLedgerIndex()); err != nil {
		return fmt.Errorf("mongo: refund ledger index: %w", err)
	}
	return nil
}

func refundLedgerIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(refundRetention.Seconds())),
	}
}

func (s *RefundLedger) Get(ctx context.Context, key string) (apporders.RefundRecord, bool, error) {
	var doc refundDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apporders.RefundRecord{}, false, nil
		}
		return apporders.RefundRecord{}, false, err
	}
	return apporders.RefundRecord{Key: doc.ID, Payload: doc.Payload, OccurredAt: doc.OccurredAt}, true, nil
}

func (s *RefundLedger) Save(ctx context.Context, rec apporders.RefundRecord) error {
	doc := refundDocument{
		ID:         rec.Key,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type refundDocument struct {
	ID         string    `bson:"_id"`
	Payload    []byte    `bson:"payload"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

var _ apporders.RefundLedger = (*RefundLedger)(nil)
