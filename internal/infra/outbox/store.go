package outbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/app/activity"
)

// State tracks an activity event on its way to the broker.
type State string

const (
	StatePending  State = "pending"
	StateClaimed  State = "claimed"
	StateRelayed  State = "relayed"
	StateRetrying State = "retrying"
)

const (
	collectionName = "app_outbox"
	requestIDKey   = "request_id"
	// relayedRetention is how long relayed events stay around for inspection.
	relayedRetention = 72 * time.Hour
)

// Source is what the relay worker drains.
type Source interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// EventDocument is one recorded storefront activity ("refund.completed", "message.sent",
// "store.viewed"). Family is the part of the name before the first dot and picks the topic;
// Subject is the order, conversation or store the event is about.
type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Family      string            `bson:"family"`
	Subject     string            `bson:"subject"`
	RequestID   string            `bson:"request_id,omitempty"`
	Payload     []byte            `bson:"payload"`
	Headers     map[string]string `bson:"headers,omitempty"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	State       State             `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   *time.Time        `bson:"claimed_at,omitempty"`
	RelayedAt   *time.Time        `bson:"relayed_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
}

func newEventDocument(record activity.EventRecord, now time.Time) EventDocument {
	headers := make(map[string]string, len(record.Headers))
	for k, v := range record.Headers {
		headers[k] = v
	}
	return EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Family:      eventFamily(record.Name),
		Subject:     record.Aggregate,
		RequestID:   headers[requestIDKey],
		Payload:     append([]byte(nil), record.Payload...),
		Headers:     headers,
		OccurredAt:  record.OccurredAt,
		State:       StatePending,
		NextAttempt: now,
		CreatedAt:   now,
	}
}

// eventFamily maps "refund.completed" to "refund".
func eventFamily(name string) string {
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		return name[:idx]
	}
	return name
}

// Store is the MongoDB outbox.
type Store struct {
	col *mongo.Collection
	now func() time.Time
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		col: db.Collection(collectionName),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the claim index and the retention index on relayed events.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.col.Indexes().CreateMany(ctx, outboxIndexes()); err != nil {
		return fmt.Errorf("outbox: ensure indexes: %w", err)
	}
	return nil
}

func outboxIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		{
			Keys:    bson.D{{Key: "relayed_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(relayedRetention.Seconds())),
		},
	}
}

func (s *Store) Add(ctx context.Context, record activity.EventRecord) error {
	_, err := s.col.InsertOne(ctx, newEventDocument(record, s.now()))
	return err
}

func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := s.now()
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, claimFilter(now), claimUpdate(workerID, now), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": StateRelayed, "relayed_at": s.now()}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.col.UpdateByID(ctx, id, retryUpdate(next, errMsg))
	return err
}

// claimFilter selects events that are due. A claimed event whose worker died is not
// reclaimed; it stays claimed until an operator resets it.
func claimFilter(now time.Time) bson.M {
	return bson.M{
		"state":           bson.M{"$in": []State{StatePending, StateRetrying}},
		"next_attempt_at": bson.M{"$lte": now},
	}
}

func claimUpdate(workerID string, now time.Time) bson.M {
	return bson.M{"$set": bson.M{"state": StateClaimed, "claimed_by": workerID, "claimed_at": now}}
}

func retryUpdate(next time.Time, errMsg string) bson.M {
	return bson.M{
		"$set": bson.M{
			"state":           StateRetrying,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
}

var (
	_ activity.Outbox = (*Store)(nil)
	_ Source          = (*Store)(nil)
)
