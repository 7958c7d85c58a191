package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain/orders"
	"storefront/internal/domain/shared/apperr"
	"storefront/internal/domain/shared/money"
)

// ListOrders returns the seller's orders, optionally narrowed to one store.
func (c *Client) ListOrders(ctx context.Context, credential, storeID string) ([]orders.Order, error) {
	var query url.Values
	if storeID = strings.TrimSpace(storeID); storeID != "" {
		query = url.Values{"storeId": []string{storeID}}
	}
	var out struct {
		Orders []orderWire `json:"orders"`
	}
	if err := c.do(ctx, request{
		endpoint:   "orders.list",
		method:     http.MethodGet,
		path:       "/orders",
		query:      query,
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return nil, err
	}
	list, err := mapOrders(out.Orders)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list, nil
}

type refundRequestWire struct {
	OrderID           string  `json:"orderId"`
	Amount            float64 `json:"amount"`
	Reason            string  `json:"reason,omitempty"`
	RefundPlatformFee bool    `json:"refundPlatformFee"`
}

type refundResponseWire struct {
	Success bool `json:"success"`
	Refund  struct {
		ID      string  `json:"id"`
		Amount  float64 `json:"amount"`
		Status  string  `json:"status"`
		Created *int64  `json:"created"`
	} `json:"refund"`
	Order *orderWire `json:"order"`
}

// Refund asks the backend to refund an order. Backend rejections surface as
// *apperr.RefundError carrying the backend message; a rejected credential stays an
// AuthError and transport failures stay NetworkErrors.
func (c *Client) Refund(ctx context.Context, credential string, req orders.RefundRequest) (orders.RefundResult, error) {
	var out refundResponseWire
	err := c.do(ctx, request{
		endpoint: "orders.refund",
		method:   http.MethodPost,
		path:     "/stripe/refund",
		body: refundRequestWire{
			OrderID:           string(req.OrderID),
			Amount:            req.Amount.Major(),
			Reason:            strings.TrimSpace(req.Reason),
			RefundPlatformFee: req.RefundPlatformFee,
		},
		credential: credential,
		auth:       true,
	}, &out)
	if err != nil {
		var netErr *apperr.NetworkError
		if errors.As(err, &netErr) && netErr.Status > 0 {
			return orders.RefundResult{}, &apperr.RefundError{Status: netErr.Status, Message: netErr.Message}
		}
		return orders.RefundResult{}, err
	}

	result := orders.RefundResult{
		Success:  out.Success,
		RefundID: out.Refund.ID,
		Amount:   req.Amount,
		Status:   orders.ParseStatus(out.Refund.Status),
		At:       time.Now().UTC(),
	}
	if out.Refund.Amount > 0 {
		amount, err := money.FromMajor(out.Refund.Amount, req.Amount.Currency)
		if err == nil {
			result.Amount = amount
		}
	}
	if out.Refund.Created != nil {
		result.At = time.Unix(*out.Refund.Created, 0).UTC()
	}
	if out.Order != nil {
		o, err := out.Order.toDomain()
		if err != nil {
			return orders.RefundResult{}, decodeFailure(err)
		}
		result.Order = &o
		if o.Status.Valid() {
			result.Status = o.Status
		}
	}
	if !result.Success {
		return result, &apperr.RefundError{Message: "refund was not accepted"}
	}
	return result, nil
}
