package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/app/dto"
	appstorefront "storefront/internal/app/storefront"
	"storefront/internal/domain/catalog"
	"storefront/internal/domain/payments"
)

type CheckoutHTTP interface {
	Create(c *gin.Context)
	Verify(c *gin.Context)
	SyncPaymentIntent(c *gin.Context)
	ConnectSession(c *gin.Context)
	ConnectStatus(c *gin.Context)
}

// CheckoutHandler covers hosted checkout and seller onboarding. Capture happens at the
// payments provider.
type CheckoutHandler struct {
	Service *appstorefront.Service
	Logger  *slog.Logger
}

type checkoutRequest struct {
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
	BuyerEmail string `json:"buyer_email"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type syncIntentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (h CheckoutHandler) Create(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	session, err := h.Service.Checkout(c.Request.Context(), credential(c), payments.CheckoutInput{
		ItemID:     catalog.ItemID(req.ItemID),
		Quantity:   req.Quantity,
		BuyerEmail: req.BuyerEmail,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		respondError(c, h.Logger, "create checkout", err, "item_id", req.ItemID)
		return
	}
	c.JSON(http.StatusCreated, dto.MapCheckout(session))
}

func (h CheckoutHandler) Verify(c *gin.Context) {
	v, err := h.Service.VerifySession(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondError(c, h.Logger, "verify session", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapVerification(v))
}

func (h CheckoutHandler) SyncPaymentIntent(c *gin.Context) {
	var req syncIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	orderID, err := h.Service.SyncPaymentIntent(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		respondError(c, h.Logger, "sync payment intent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID})
}

func (h CheckoutHandler) ConnectSession(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	session, err := h.Service.ConnectAccountSession(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.Logger, "connect account session", err)
		return
	}
	c.JSON(http.StatusOK, dto.AccountSessionResponse{ClientSecret: session.ClientSecret})
}

func (h CheckoutHandler) ConnectStatus(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	status, err := h.Service.ConnectStatus(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.Logger, "connect status", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapConnectStatus(status))
}

var _ CheckoutHTTP = CheckoutHandler{}
