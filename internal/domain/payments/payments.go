// Package payments models the checkout and Connect shapes returned by the storefront API.
// Capture and payouts happen at the payments provider.
package payments

import (
	"errors"
	"strings"

	"storefront/internal/domain/catalog"
)

var ErrItemRequired = errors.New("payments: item id is required")

type CheckoutInput struct {
	ItemID     catalog.ItemID
	Quantity   int
	BuyerEmail string
	SuccessURL string
	CancelURL  string
}

// Normalize trims input and defaults quantity to one.
func (in CheckoutInput) Normalize() (CheckoutInput, error) {
	in.ItemID = catalog.ItemID(strings.TrimSpace(string(in.ItemID)))
	in.BuyerEmail = strings.TrimSpace(in.BuyerEmail)
	if in.ItemID == "" {
		return CheckoutInput{}, ErrItemRequired
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	return in, nil
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

// Verification is the result of a session-verification call; OrderID is set once the
// backend has materialized the order.
type Verification struct {
	Success bool
	OrderID string
	Status  string
}

type ConnectStatus struct {
	Connected        bool
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// ReadyForPayouts reports whether the seller finished onboarding.
func (s ConnectStatus) ReadyForPayouts() bool {
	return s.Connected && s.ChargesEnabled && s.PayoutsEnabled && s.DetailsSubmitted
}

type AccountSession struct {
	ClientSecret string
}
