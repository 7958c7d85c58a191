package orders

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// RefundRecord is a completed refund remembered under the caller's idempotency key.
type RefundRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

// RefundLedger replays completed refunds so a retried submit never reaches the backend twice.
type RefundLedger interface {
	Get(ctx context.Context, key string) (RefundRecord, bool, error)
	Save(ctx context.Context, rec RefundRecord) error
}

// ledgerKey scopes a client key to the order. It does not include the credential, which
// rotates; SubmitRefund only replays after the caller's own order list contains the order.
func ledgerKey(id string, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return ""
	}
	return "refund:" + id + ":" + clientKey
}

func (s *Service) replay(ctx context.Context, key string) (RefundOutcome, bool, error) {
	if key == "" || s.Ledger == nil {
		return RefundOutcome{}, false, nil
	}
	rec, found, err := s.Ledger.Get(ctx, key)
	if err != nil || !found {
		return RefundOutcome{}, false, err
	}
	var outcome RefundOutcome
	if err := json.Unmarshal(rec.Payload, &outcome); err != nil {
		return RefundOutcome{}, false, err
	}
	outcome.Replayed = true
	return outcome, true, nil
}

func (s *Service) remember(ctx context.Context, key string, outcome RefundOutcome) {
	if key == "" || s.Ledger == nil {
		return
	}
	payload, err := json.Marshal(outcome)
	if err == nil {
		err = s.Ledger.Save(ctx, RefundRecord{Key: key, Payload: payload, OccurredAt: s.now()})
	}
	if err != nil {
		s.logWarn("remember refund failed", "key", key, "error", err)
	}
}
