package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/app/dto"
	appstorefront "storefront/internal/app/storefront"
	"storefront/internal/domain/user"
)

type AccountHTTP interface {
	Sync(c *gin.Context)
	Config(c *gin.Context)
	Notifications(c *gin.Context)
	NotificationUnreadCount(c *gin.Context)
	MarkNotificationRead(c *gin.Context)
	MarkAllNotificationsRead(c *gin.Context)
}

// AccountHandler serves the signed-in user's profile sync and notification feed, plus
// the public bootstrap config.
type AccountHandler struct {
	Service *appstorefront.Service
	Logger  *slog.Logger
}

type syncUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h AccountHandler) Sync(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	var req syncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	u, err := h.Service.SyncUser(c.Request.Context(), cred, user.SyncInput{Email: req.Email, Name: req.Name})
	if err != nil {
		respondError(c, h.Logger, "sync user", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUser(u))
}

func (h AccountHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapPublicConfig(h.Service.PublicConfig()))
}

func (h AccountHandler) Notifications(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	list, err := h.Service.Notifications(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.Logger, "list notifications", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapNotifications(list))
}

func (h AccountHandler) NotificationUnreadCount(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	count, err := h.Service.NotificationUnreadCount(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.Logger, "notification unread count", err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

func (h AccountHandler) MarkNotificationRead(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	if err := h.Service.MarkNotificationRead(c.Request.Context(), cred, c.Param("id")); err != nil {
		respondError(c, h.Logger, "mark notification read", err, "notification_id", c.Param("id"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AccountHandler) MarkAllNotificationsRead(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	if err := h.Service.MarkAllNotificationsRead(c.Request.Context(), cred); err != nil {
		respondError(c, h.Logger, "mark all notifications read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ AccountHTTP = AccountHandler{}
