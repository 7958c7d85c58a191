package catalog

import "time"

type StoreViewedEvent struct {
	Slug string    `json:"slug"`
	At   time.Time `json:"at"`
}

func (e StoreViewedEvent) EventName() string     { return "store.viewed" }
func (e StoreViewedEvent) AggregateID() string   { return e.Slug }
func (e StoreViewedEvent) OccurredAt() time.Time { return e.At }
