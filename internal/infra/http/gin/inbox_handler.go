package ginserver

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/app/dto"
	appinbox "storefront/internal/app/inbox"
	domaininbox "storefront/internal/domain/inbox"
	"storefront/internal/domain/shared/apperr"
)

type InboxHTTP interface {
	List(c *gin.Context)
	Thread(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
	Send(c *gin.Context)
	UnreadCount(c *gin.Context)
	UnreadStream(c *gin.Context)
}

// InboxHandler serves the authenticated conversation views.
type InboxHandler struct {
	Service      *appinbox.Service
	PollInterval time.Duration
	Logger       *slog.Logger
}

type sendMessageRequest struct {
	Content         string `json:"content"`
	ConversationID  string `json:"conversation_id"`
	RecipientUserID string `json:"recipient_user_id"`
}

func (h InboxHandler) List(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	inbox, err := h.Service.FetchAll(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.Logger, "list conversations", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapInbox(inbox))
}

// Thread opens a conversation. Viewing marks it read unless mark_read=false.
func (h InboxHandler) Thread(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	id := domaininbox.ConversationID(c.Param("id"))
	markRead := true
	if raw := c.Query("mark_read"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mark_read must be a boolean"})
			return
		}
		markRead = parsed
	}

	if !markRead {
		thread, err := h.Service.FetchThread(c.Request.Context(), cred, id)
		if err != nil {
			respondError(c, h.Logger, "fetch thread", err, "conversation_id", id)
			return
		}
		c.JSON(http.StatusOK, dto.MapThread(thread.ViewerUserID, thread.Conversation, false))
		return
	}
	opened, err := h.Service.OpenThread(c.Request.Context(), cred, id)
	if err != nil {
		respondError(c, h.Logger, "open thread", err, "conversation_id", id)
		return
	}
	c.JSON(http.StatusOK, dto.MapThread(opened.ViewerUserID, opened.Conversation, opened.MarkedRead))
}

func (h InboxHandler) MarkRead(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	id := domaininbox.ConversationID(c.Param("id"))
	if err := h.Service.MarkRead(c.Request.Context(), cred, id); err != nil {
		respondError(c, h.Logger, "mark read", err, "conversation_id", id)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h InboxHandler) MarkAllRead(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	if err := h.Service.MarkAllRead(c.Request.Context(), cred); err != nil {
		respondError(c, h.Logger, "mark all read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h InboxHandler) Send(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	sent, err := h.Service.SendMessage(c.Request.Context(), appinbox.SendMessageInput{
		Content:         req.Content,
		ConversationID:  domaininbox.ConversationID(req.ConversationID),
		RecipientUserID: req.RecipientUserID,
		Credential:      cred,
	})
	if err != nil {
		respondError(c, h.Logger, "send message", err, "conversation_id", req.ConversationID)
		return
	}
	viewer := ""
	if sent.Message.Sender.User != nil {
		viewer = sent.Message.Sender.User.ID
	}
	c.JSON(http.StatusCreated, dto.MapSent(sent, viewer))
}

func (h InboxHandler) UnreadCount(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.Logger, "unread count", err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// UnreadStream pushes the unread count as server-sent events for as long as the client
// stays connected. The poller dies with the request.
func (h InboxHandler) UnreadStream(c *gin.Context) {
	cred, ok := requireCredential(c)
	if !ok {
		return
	}
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inbox unavailable"})
		return
	}
	ctx := c.Request.Context()
	counts := make(chan int, 1)
	failures := make(chan error, 1)

	poller := h.Service.NewUnreadPoller(cred, h.PollInterval)
	poller.OnCount = func(n int) {
		select {
		case counts <- n:
		case <-ctx.Done():
		}
	}
	poller.OnError = func(err error) {
		select {
		case failures <- err:
		default:
		}
	}
	go func() { _ = poller.Run(ctx) }()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n := <-counts:
			c.SSEvent("unread", dto.CountResponse{Count: n})
			return true
		case err := <-failures:
			c.SSEvent("error", gin.H{"error": apperr.Message(err)})
			// An expired credential will not recover by polling again.
			return !apperr.IsAuth(err)
		}
	})
}

var _ InboxHTTP = InboxHandler{}
