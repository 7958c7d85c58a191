package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/app/activity"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func record(id, name string) activity.EventRecord {
	return activity.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"order_id":"o1"}`),
		OccurredAt: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		Aggregate:  "o1",
		Headers:    map[string]string{"request_id": "req-1"},
	}
}

func TestWorker_RelaysCloudEvents(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Add(context.Background(), record("e1", "refund.completed")))
	require.NoError(t, store.Add(context.Background(), record("e2", "message.sent")))
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "dev."}

	require.NoError(t, w.drain(context.Background()))
	require.Len(t, producer.sent, 2)
	assert.Equal(t, "dev.refund.events.v1", producer.sent[0].topic)
	assert.Equal(t, "dev.message.events.v1", producer.sent[1].topic)
	assert.Equal(t, "o1", producer.sent[0].key)
	assert.Equal(t, "application/cloudevents+json", producer.sent[0].headers["content-type"])
	assert.Zero(t, store.Pending())

	var evt map[string]any
	require.NoError(t, json.Unmarshal(producer.sent[0].payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "e1", evt["id"])
	assert.Equal(t, "refund.completed.v1", evt["type"])
	assert.Equal(t, "app://storefront", evt["source"])
	assert.Equal(t, "req-1", evt["requestid"])
	assert.Equal(t, map[string]any{"order_id": "o1"}, evt["data"])
}

func TestWorker_PublishFailureSchedulesRetry(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Add(context.Background(), record("e1", "refund.failed")))
	producer := &fakeProducer{err: errors.New("broker down")}
	w := &Worker{Store: store, Producer: producer, Backoff: []time.Duration{time.Hour}}

	require.NoError(t, w.drain(context.Background()))
	assert.Equal(t, 1, store.Pending())

	doc, err := store.Claim(context.Background(), "other")
	require.NoError(t, err)
	assert.Nil(t, doc, "event must wait for its backoff")

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	producer.err = nil
	require.NoError(t, w.drain(context.Background()))
	assert.Len(t, producer.sent, 1)
	assert.Zero(t, store.Pending())
}

func TestWorker_BadPayloadIsParked(t *testing.T) {
	store := NewMemoryStore()
	rec := record("e1", "store.viewed")
	rec.Payload = []byte("not json")
	require.NoError(t, store.Add(context.Background(), rec))
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer}

	require.NoError(t, w.drain(context.Background()))
	assert.Empty(t, producer.sent)
	require.Len(t, store.docs, 1)
	assert.Equal(t, StateRetrying, store.docs[0].State)
	assert.Equal(t, 1, store.docs[0].Attempts)
}

func TestWorker_RunRequiresDependencies(t *testing.T) {
	w := &Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerNotConfigured)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{Store: NewMemoryStore(), Producer: LogProducer{}, Interval: 5 * time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_TopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "conversation.events.v1", w.topicFor(eventFamily("conversation.read")))
	assert.Equal(t, "misc.events.v1", w.topicFor(eventFamily("misc")))
	w.TopicPrefix = "dev."
	assert.Equal(t, "dev.refund.events.v1", w.topicFor("refund"))
}
