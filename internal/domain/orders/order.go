package orders

import (
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/shared/money"
)

var (
	ErrRefundExceedsAmount = errors.New("orders: refund amount exceeds order amount")
	ErrOrderNotFound       = errors.New("orders: not found")
)

type OrderID string

type Status string

const (
	StatusPending           Status = "pending"
	StatusPaid              Status = "paid"
	StatusShipped           Status = "shipped"
	StatusCompleted         Status = "completed"
	StatusRefunded          Status = "refunded"
	StatusPartiallyRefunded Status = "partially_refunded"
	StatusCancelled         Status = "cancelled"
)

var knownStatuses = []Status{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusCompleted,
	StatusRefunded,
	StatusPartiallyRefunded,
	StatusCancelled,
}

// ParseStatus normalizes case and whitespace. Unknown values are kept verbatim so the
// display layer can degrade instead of failing.
func ParseStatus(raw string) Status {
	normalized := Status(strings.ToLower(strings.TrimSpace(raw)))
	if normalized.Valid() {
		return normalized
	}
	return Status(strings.TrimSpace(raw))
}

func (s Status) Valid() bool {
	for _, known := range knownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:           {StatusPaid, StatusCancelled},
	StatusPaid:              {StatusShipped, StatusRefunded, StatusPartiallyRefunded, StatusCancelled},
	StatusShipped:           {StatusCompleted, StatusRefunded, StatusPartiallyRefunded},
	StatusPartiallyRefunded: {StatusRefunded},
}

// CanTransition reports whether the backend moving an order from -> to follows the
// forward-only lifecycle. The client never applies transitions itself.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	Name       string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type OrderItem struct {
	ID          catalog.ItemID
	Name        string
	Description string
	Images      []catalog.Image
	Store       catalog.StoreRef
}

type Order struct {
	ID              OrderID
	Amount          money.Money
	PlatformFee     money.Money
	Status          Status
	BuyerEmail      string
	BuyerName       string
	ShippingAddress *ShippingAddress
	RefundedAt      *time.Time
	RefundAmount    *money.Money
	CreatedAt       time.Time
	Item            OrderItem
}

// Validate checks invariants the backend is expected to uphold.
func (o Order) Validate() error {
	if o.RefundAmount == nil {
		return nil
	}
	over, err := o.RefundAmount.GreaterThan(o.Amount)
	if err != nil {
		return err
	}
	if over {
		return ErrRefundExceedsAmount
	}
	return nil
}

// Refundable reports whether a refund may be requested for the current status.
func (o Order) Refundable() bool {
	switch o.Status {
	case StatusPaid, StatusShipped, StatusCompleted, StatusPartiallyRefunded:
		return true
	default:
		return false
	}
}

// SellerProceeds is amount minus platform fee minus any refund, floored at zero.
func (o Order) SellerProceeds() money.Money {
	proceeds := o.Amount.Amount - o.PlatformFee.Amount
	if o.RefundAmount != nil {
		proceeds -= o.RefundAmount.Amount
	}
	if proceeds < 0 {
		proceeds = 0
	}
	return money.Money{Amount: proceeds, Currency: o.Amount.Currency}
}

// Find returns the order with id from list.
func Find(list []Order, id OrderID) (Order, bool) {
	for _, o := range list {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}
