package memory

import (
	"context"
	"sync"

	apporders "storefront/internal/app/orders"
)

// RefundLedger stores refund outcomes in memory. Entries live as long as the process.
type RefundLedger struct {
	mu    sync.RWMutex
	items map[string]apporders.RefundRecord
}

func NewRefundLedger() *RefundLedger {
	return &RefundLedger{items: make(map[string]apporders.RefundRecord)}
}

func (s *RefundLedger) Get(_ context.Context, key string) (apporders.RefundRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *RefundLedger) Save(_ context.Context, rec apporders.RefundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

var _ apporders.RefundLedger = (*RefundLedger)(nil)
