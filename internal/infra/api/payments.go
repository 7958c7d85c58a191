package api

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/domain/payments"
)

type checkoutWire struct {
	ItemID     string `json:"itemId"`
	Quantity   int    `json:"quantity"`
	BuyerEmail string `json:"buyerEmail,omitempty"`
	SuccessURL string `json:"successUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

// CreateCheckout opens a hosted checkout session. Buyers may be anonymous, so the
// credential is forwarded only when present.
func (c *Client) CreateCheckout(ctx context.Context, credential string, in payments.CheckoutInput) (payments.CheckoutSession, error) {
	var out struct {
		URL       string `json:"url"`
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, request{
		endpoint: "payments.checkout",
		method:   http.MethodPost,
		path:     "/stripe/checkout",
		body: checkoutWire{
			ItemID:     string(in.ItemID),
			Quantity:   in.Quantity,
			BuyerEmail: in.BuyerEmail,
			SuccessURL: in.SuccessURL,
			CancelURL:  in.CancelURL,
		},
		credential: credential,
	}, &out); err != nil {
		return payments.CheckoutSession{}, err
	}
	return payments.CheckoutSession{SessionID: out.SessionID, URL: out.URL}, nil
}

func (c *Client) VerifySession(ctx context.Context, sessionID string) (payments.Verification, error) {
	var out struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := c.do(ctx, request{
		endpoint: "payments.verify",
		method:   http.MethodGet,
		path:     "/stripe/verify-session",
		query:    url.Values{"session_id": []string{sessionID}},
	}, &out); err != nil {
		return payments.Verification{}, err
	}
	return payments.Verification{Success: out.Success, OrderID: out.OrderID, Status: out.Status}, nil
}

// SyncPaymentIntent asks the backend to reconcile a payment intent into an order.
func (c *Client) SyncPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	var out struct {
		OrderID string `json:"orderId"`
	}
	if err := c.do(ctx, request{
		endpoint: "payments.sync_intent",
		method:   http.MethodPost,
		path:     "/stripe/sync-payment-intent",
		body:     map[string]string{"paymentIntentId": paymentIntentID},
	}, &out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}

func (c *Client) ConnectAccountSession(ctx context.Context, credential string) (payments.AccountSession, error) {
	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := c.do(ctx, request{
		endpoint:   "payments.account_session",
		method:     http.MethodPost,
		path:       "/stripe/connect/account-session",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return payments.AccountSession{}, err
	}
	return payments.AccountSession{ClientSecret: out.ClientSecret}, nil
}

func (c *Client) ConnectStatus(ctx context.Context, credential string) (payments.ConnectStatus, error) {
	var out struct {
		Connected        bool   `json:"connected"`
		AccountID        string `json:"accountId"`
		ChargesEnabled   bool   `json:"chargesEnabled"`
		PayoutsEnabled   bool   `json:"payoutsEnabled"`
		DetailsSubmitted bool   `json:"detailsSubmitted"`
	}
	if err := c.do(ctx, request{
		endpoint:   "payments.connect_status",
		method:     http.MethodGet,
		path:       "/stripe/connect/status",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return payments.ConnectStatus{}, err
	}
	return payments.ConnectStatus{
		Connected:        out.Connected,
		AccountID:        out.AccountID,
		ChargesEnabled:   out.ChargesEnabled,
		PayoutsEnabled:   out.PayoutsEnabled,
		DetailsSubmitted: out.DetailsSubmitted,
	}, nil
}
