package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"storefront/internal/app/activity"
	domainorders "storefront/internal/domain/orders"
	"storefront/internal/domain/shared/apperr"
)

var (
	ErrGatewayMissing    = errors.New("orders: gateway not configured")
	ErrExportUnavailable = errors.New("orders: export storage not configured")
)

type Gateway interface {
	ListOrders(ctx context.Context, credential, storeID string) ([]domainorders.Order, error)
	Refund(ctx context.Context, credential string, req domainorders.RefundRequest) (domainorders.RefundResult, error)
}

// Exporter stores an export and returns where it can be downloaded.
type Exporter interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}

type Service struct {
	Gateway  Gateway
	Exporter Exporter
	Ledger   RefundLedger
	Activity *activity.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

type ListParams struct {
	domainorders.FilterParams
	Page     int
	PageSize int
}

type OrderPage struct {
	Items    []domainorders.Order
	Total    int
	Page     int
	PageSize int
	Pages    int
}

type Dashboard struct {
	KPIs    domainorders.KPIs
	Buckets domainorders.ActionBuckets
	Orders  int
}

type RefundInput struct {
	OrderID           domainorders.OrderID
	RawAmount         string
	Reason            string
	RefundPlatformFee bool
	// IdempotencyKey, when set, makes a retried submit return the first outcome.
	IdempotencyKey string
}

type RefundOutcome struct {
	Result domainorders.RefundResult
	// Order is the backend's post-refund order from a fresh fetch.
	Order    domainorders.Order
	Replayed bool `json:"-"`
}

type ExportResult struct {
	URL  string
	Rows int
}

// List fetches the full collection, then filters and paginates it locally.
func (s *Service) List(ctx context.Context, credential string, params ListParams) (OrderPage, error) {
	list, err := s.fetch(ctx, credential, string(params.StoreID))
	if err != nil {
		return OrderPage{}, err
	}
	filtered := domainorders.Filter(list, params.FilterParams, s.now())
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size < 1 {
		size = domainorders.DefaultPageSize
	}
	return OrderPage{
		Items:    domainorders.Paginate(filtered, page, size),
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
		Pages:    domainorders.PageCount(len(filtered), size),
	}, nil
}

func (s *Service) Summary(ctx context.Context, credential, storeID string) (Dashboard, error) {
	list, err := s.fetch(ctx, credential, storeID)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		KPIs:    domainorders.ComputeKPIs(list),
		Buckets: domainorders.ComputeActionBuckets(list, s.now()),
		Orders:  len(list),
	}, nil
}

// SubmitRefund validates the amount against the current order, asks the backend to refund
// and then re-fetches so the caller sees the backend's view of the order.
func (s *Service) SubmitRefund(ctx context.Context, credential string, in RefundInput) (RefundOutcome, error) {
	id := domainorders.OrderID(strings.TrimSpace(string(in.OrderID)))
	if id == "" {
		return RefundOutcome{}, apperr.Invalid("order_id", "order id is required")
	}
	list, err := s.fetch(ctx, credential, "")
	if err != nil {
		return RefundOutcome{}, err
	}
	order, ok := domainorders.Find(list, id)
	if !ok {
		return RefundOutcome{}, apperr.Invalid("order_id", domainorders.ErrOrderNotFound.Error())
	}
	// Replay before the status checks: a completed full refund is no longer refundable.
	key := ledgerKey(string(id), in.IdempotencyKey)
	if prior, found, err := s.replay(ctx, key); err != nil {
		return RefundOutcome{}, fmt.Errorf("orders: refund ledger: %w", err)
	} else if found {
		return prior, nil
	}
	if !order.Refundable() {
		return RefundOutcome{}, apperr.Invalid("order_id", fmt.Sprintf("orders in status %q cannot be refunded", order.Status))
	}
	amount, err := domainorders.ParseRefundAmount(in.RawAmount, order)
	if err != nil {
		return RefundOutcome{}, err
	}

	s.Activity.Record(ctx, domainorders.RefundRequestedEvent{
		OrderID:     id,
		AmountCents: amount.Amount,
		Currency:    amount.Currency,
		FullRefund:  domainorders.IsFullRefund(amount, order),
		At:          s.now(),
	})

	result, err := s.Gateway.Refund(ctx, credential, domainorders.RefundRequest{
		OrderID:           id,
		Amount:            amount,
		Reason:            in.Reason,
		RefundPlatformFee: in.RefundPlatformFee,
	})
	if err != nil {
		s.Activity.Record(ctx, domainorders.RefundFailedEvent{OrderID: id, Reason: apperr.Message(err), At: s.now()})
		s.logWarn("refund failed", "order_id", id, "error", err)
		return RefundOutcome{}, err
	}
	s.Activity.Record(ctx, domainorders.RefundCompletedEvent{
		OrderID:     id,
		RefundID:    result.RefundID,
		AmountCents: result.Amount.Amount,
		Status:      result.Status,
		At:          s.now(),
	})

	outcome := RefundOutcome{Result: result}
	refreshed, err := s.fetch(ctx, credential, "")
	if err != nil {
		// The refund went through; fall back to what the refund call returned.
		s.logWarn("refetch after refund failed", "order_id", id, "error", err)
		if result.Order != nil {
			outcome.Order = *result.Order
		}
		s.remember(ctx, key, outcome)
		return outcome, nil
	}
	if updated, ok := domainorders.Find(refreshed, id); ok {
		outcome.Order = updated
	} else if result.Order != nil {
		outcome.Order = *result.Order
	}
	s.remember(ctx, key, outcome)
	return outcome, nil
}

var exportHeader = []string{
	"order_id", "created_at", "status", "item", "store", "buyer_name", "buyer_email",
	"amount", "platform_fee", "refund_amount", "seller_proceeds", "currency",
}

// Export renders the filtered orders as CSV and uploads it.
func (s *Service) Export(ctx context.Context, credential string, params domainorders.FilterParams) (ExportResult, error) {
	if s == nil || s.Exporter == nil {
		return ExportResult{}, ErrExportUnavailable
	}
	list, err := s.fetch(ctx, credential, string(params.StoreID))
	if err != nil {
		return ExportResult{}, err
	}
	now := s.now()
	filtered := domainorders.Filter(list, params, now)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, filtered); err != nil {
		return ExportResult{}, fmt.Errorf("orders: render export: %w", err)
	}
	key := fmt.Sprintf("exports/orders-%s.csv", now.Format("20060102T150405Z"))
	url, err := s.Exporter.Upload(ctx, key, &buf, "text/csv")
	if err != nil {
		return ExportResult{}, fmt.Errorf("orders: upload export: %w", err)
	}
	return ExportResult{URL: url, Rows: len(filtered)}, nil
}

// WriteCSV writes one row per order with amounts in major units.
func WriteCSV(w io.Writer, list []domainorders.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range list {
		refund := ""
		if o.RefundAmount != nil {
			refund = major(o.RefundAmount.Amount)
		}
		row := []string{
			string(o.ID),
			o.CreatedAt.UTC().Format(time.RFC3339),
			string(o.Status),
			o.Item.Name,
			o.Item.Store.Name,
			o.BuyerName,
			o.BuyerEmail,
			major(o.Amount.Amount),
			major(o.PlatformFee.Amount),
			refund,
			major(o.SellerProceeds().Amount),
			o.Amount.Currency,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func major(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

func (s *Service) fetch(ctx context.Context, credential, storeID string) ([]domainorders.Order, error) {
	if s == nil || s.Gateway == nil {
		return nil, ErrGatewayMissing
	}
	if strings.TrimSpace(credential) == "" {
		return nil, apperr.Unauthenticated("credential missing")
	}
	return s.Gateway.ListOrders(ctx, credential, strings.TrimSpace(storeID))
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) logWarn(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}
