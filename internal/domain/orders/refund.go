package orders

import (
	"math"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/shared/apperr"
	"storefront/internal/domain/shared/money"
)

type RefundRequest struct {
	OrderID           OrderID
	Amount            money.Money
	Reason            string
	RefundPlatformFee bool
}

// RefundResult is what the backend reports after a refund call. Status is the backend's
// decision (refunded vs partially_refunded) and is never derived locally.
type RefundResult struct {
	Success  bool
	RefundID string
	Amount   money.Money
	Status   Status
	At       time.Time
	Order    *Order
}

// ValidateRefundAmount is a client-side pre-check. It accepts any finite value in
// (0, order.Amount] with at most cent precision and returns it in the order's currency.
// The upper bound is checked on the requested value itself, before any rounding.
func ValidateRefundAmount(requested float64, o Order) (money.Money, error) {
	if math.IsNaN(requested) || math.IsInf(requested, 0) {
		return money.Money{}, apperr.Invalid("amount", "amount must be a number")
	}
	if requested <= 0 {
		return money.Money{}, apperr.Invalid("amount", "amount must be greater than zero")
	}
	if requested > o.Amount.Major() {
		return money.Money{}, apperr.Invalid("amount", "amount cannot exceed the order total of "+o.Amount.String())
	}
	cents := requested * 100
	if math.Abs(cents-math.Round(cents)) > centTolerance {
		return money.Money{}, apperr.Invalid("amount", "amount cannot have more than two decimal places")
	}
	amount, err := money.FromMajor(requested, o.Amount.Currency)
	if err != nil {
		return money.Money{}, apperr.Invalid("amount", err.Error())
	}
	if amount.Amount > o.Amount.Amount {
		return money.Money{}, apperr.Invalid("amount", "amount cannot exceed the order total of "+o.Amount.String())
	}
	return amount, nil
}

// centTolerance absorbs binary float noise such as 0.29*100 = 28.999999999999996.
const centTolerance = 1e-6

// ParseRefundAmount rejects non-numeric text before delegating to ValidateRefundAmount.
func ParseRefundAmount(raw string, o Order) (money.Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return money.Money{}, apperr.Invalid("amount", "amount is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return money.Money{}, apperr.Invalid("amount", "amount must be a number")
	}
	return ValidateRefundAmount(value, o)
}

// IsFullRefund reports whether amount covers the whole order.
func IsFullRefund(amount money.Money, o Order) bool {
	return amount.Amount == o.Amount.Amount
}
