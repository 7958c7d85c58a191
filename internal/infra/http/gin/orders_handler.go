package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/app/dto"
	apporders "storefront/internal/app/orders"
	"storefront/internal/domain/catalog"
	domainorders "storefront/internal/domain/orders"
	"storefront/internal/domain/shared/apperr"
)

type OrdersHTTP interface {
	List(c *gin.Context)
	Summary(c *gin.Context)
	Refund(c *gin.Context)
	Export(c *gin.Context)
}

// OrdersHandler serves the seller dashboard.
type OrdersHandler struct {
	Service *apporders.Service
	Logger  *slog.Logger
}

const (
	idempotencyKeyHeader   = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
)

type refundRequest struct {
	Amount            string `json:"amount"`
	Reason            string `json:"reason"`
	RefundPlatformFee bool   `json:"refund_platform_fee"`
}

type exportRequest struct {
	Status  string `json:"status"`
	Search  string `json:"search"`
	Days    int    `json:"days"`
	StoreID string `json:"store_id"`
}

func (h OrdersHandler) List(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}
	page, err := h.Service.List(c.Request.Context(), cred, apporders.ListParams{
		FilterParams: filter,
		Page:         parsePositiveInt(c.Query("page"), 1),
		PageSize:     parsePositiveInt(c.Query("page_size"), domainorders.DefaultPageSize),
	})
	if err != nil {
		respondError(c, h.Logger, "list orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapOrderPage(page))
}

func (h OrdersHandler) Summary(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	dash, err := h.Service.Summary(c.Request.Context(), cred, strings.TrimSpace(c.Query("store_id")))
	if err != nil {
		respondError(c, h.Logger, "order summary", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapDashboard(dash))
}

// Refund reports backend rejections under refund_error so the form can show them inline.
func (h OrdersHandler) Refund(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	orderID := domainorders.OrderID(c.Param("id"))
	outcome, err := h.Service.SubmitRefund(c.Request.Context(), cred, apporders.RefundInput{
		OrderID:           orderID,
		RawAmount:         req.Amount,
		Reason:            req.Reason,
		RefundPlatformFee: req.RefundPlatformFee,
		IdempotencyKey:    c.GetHeader(idempotencyKeyHeader),
	})
	if err != nil {
		var refundErr *apperr.RefundError
		if errors.As(err, &refundErr) {
			if h.Logger != nil {
				h.Logger.Warn("refund rejected", "order_id", orderID, "status", refundErr.Status, "error", err)
			}
			c.JSON(apperr.HTTPStatus(err), gin.H{"refund_error": apperr.Message(err)})
			return
		}
		respondError(c, h.Logger, "refund", err, "order_id", orderID)
		return
	}
	if outcome.Replayed {
		c.Header(idempotentReplayHeader, "true")
	}
	c.JSON(http.StatusOK, dto.MapRefund(outcome))
}

func (h OrdersHandler) Export(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
	}
	res, err := h.Service.Export(c.Request.Context(), cred, domainorders.FilterParams{
		Status:         req.Status,
		Search:         req.Search,
		DateWindowDays: req.Days,
		StoreID:        catalog.StoreID(strings.TrimSpace(req.StoreID)),
	})
	if errors.Is(err, apporders.ErrExportUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "exports are not configured"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, "export orders", err)
		return
	}
	c.JSON(http.StatusCreated, dto.ExportResponse{URL: res.URL, Rows: res.Rows})
}

func filterFromQuery(c *gin.Context) (domainorders.FilterParams, bool) {
	filter := domainorders.FilterParams{
		Status:  c.Query("status"),
		Search:  c.Query("search"),
		StoreID: catalog.StoreID(strings.TrimSpace(c.Query("store_id"))),
	}
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return domainorders.FilterParams{}, false
		}
		filter.DateWindowDays = days
	}
	return filter, true
}

func parsePositiveInt(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

var _ OrdersHTTP = OrdersHandler{}
