package outbox

import (
	"context"
	"sync"
	"time"

	"storefront/internal/app/activity"
)

// MemoryStore keeps events in process when no database is configured. Events are lost on
// restart and relayed events are dropped right away.
type MemoryStore struct {
	mu   sync.Mutex
	docs []*EventDocument
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) Add(_ context.Context, record activity.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := newEventDocument(record, s.now())
	s.docs = append(s.docs, &doc)
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, doc := range s.docs {
		if (doc.State == StatePending || doc.State == StateRetrying) && !doc.NextAttempt.After(now) {
			claimedAt := now
			doc.State = StateClaimed
			doc.ClaimedBy = workerID
			doc.ClaimedAt = &claimedAt
			claimed := *doc
			return &claimed, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	for _, doc := range s.docs {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	s.docs = kept
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.State = StateRetrying
			doc.NextAttempt = next
			doc.LastError = errMsg
			doc.Attempts++
		}
	}
	return nil
}

// Pending returns the number of events not yet relayed.
func (s *MemoryStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

var (
	_ activity.Outbox = (*MemoryStore)(nil)
	_ Source          = (*MemoryStore)(nil)
)
