package orders

import "time"

type RefundRequestedEvent struct {
	OrderID     OrderID   `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	FullRefund  bool      `json:"full_refund"`
	At          time.Time `json:"at"`
}

func (e RefundRequestedEvent) EventName() string     { return "refund.requested" }
func (e RefundRequestedEvent) AggregateID() string   { return string(e.OrderID) }
func (e RefundRequestedEvent) OccurredAt() time.Time { return e.At }

type RefundCompletedEvent struct {
	OrderID     OrderID   `json:"order_id"`
	RefundID    string    `json:"refund_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      Status    `json:"status"`
	At          time.Time `json:"at"`
}

func (e RefundCompletedEvent) EventName() string     { return "refund.completed" }
func (e RefundCompletedEvent) AggregateID() string   { return string(e.OrderID) }
func (e RefundCompletedEvent) OccurredAt() time.Time { return e.At }

type RefundFailedEvent struct {
	OrderID OrderID   `json:"order_id"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

func (e RefundFailedEvent) EventName() string     { return "refund.failed" }
func (e RefundFailedEvent) AggregateID() string   { return string(e.OrderID) }
func (e RefundFailedEvent) OccurredAt() time.Time { return e.At }
