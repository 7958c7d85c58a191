package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/app/dto"
	appinbox "storefront/internal/app/inbox"
	domaininbox "storefront/internal/domain/inbox"
	"storefront/internal/infra/security"
)

const (
	guestCookieName  = "storefront_guest"
	guestTokenHeader = "X-Guest-Token"
	guestCookieTTL   = 30 * 24 * 60 * 60
)

type GuestHTTP interface {
	Conversation(c *gin.Context)
	Send(c *gin.Context)
}

// GuestHandler serves unauthenticated buyers. A guest keeps talking in a thread through
// the access token the backend issues for it.
type GuestHandler struct {
	Service      *appinbox.Service
	Sealer       *security.GuestSealer
	SecureCookie bool
	Logger       *slog.Logger
}

type guestMessageRequest struct {
	Content         string `json:"content"`
	RecipientUserID string `json:"recipient_user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
}

func (h GuestHandler) Conversation(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	conv, err := h.Service.GuestConversation(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.Logger, "guest conversation", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapThread("", conv, false))
}

// Send replies in the guest's thread or starts a new one; see appinbox.Service.SendAsGuest.
// A newly issued token replaces the cookie.
func (h GuestHandler) Send(c *gin.Context) {
	var req guestMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	in := appinbox.SendMessageInput{
		Content:         req.Content,
		RecipientUserID: req.RecipientUserID,
	}
	if token == "" || strings.TrimSpace(req.RecipientUserID) != "" {
		in.Guest = &domaininbox.Guest{Name: req.Name, Email: req.Email}
	}
	sent, err := h.Service.SendAsGuest(c.Request.Context(), token, in)
	if err != nil {
		respondError(c, h.Logger, "guest send", err)
		return
	}
	resp := dto.MapSent(sent, "")
	if sent.GuestAccessToken != "" && h.Sealer != nil {
		sealed, err := h.Sealer.Seal(sent.GuestAccessToken)
		if err != nil {
			respondError(c, h.Logger, "seal guest token", err)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(guestCookieName, sealed, guestCookieTTL, "/", "", h.SecureCookie, true)
		resp.GuestAccessToken = ""
	}
	c.JSON(http.StatusCreated, resp)
}

// token prefers the explicit header over the sealed cookie. An empty token with ok=true
// means the caller has none yet.
func (h GuestHandler) token(c *gin.Context) (string, bool) {
	if raw := strings.TrimSpace(c.GetHeader(guestTokenHeader)); raw != "" {
		return raw, true
	}
	sealed, err := c.Cookie(guestCookieName)
	if errors.Is(err, http.ErrNoCookie) || sealed == "" {
		return "", true
	}
	if h.Sealer == nil {
		return "", true
	}
	token, err := h.Sealer.Open(sealed)
	if err != nil {
		c.SetCookie(guestCookieName, "", -1, "/", "", h.SecureCookie, true)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "guest session is invalid"})
		return "", false
	}
	return token, true
}

var _ GuestHTTP = GuestHandler{}
