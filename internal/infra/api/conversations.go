package api

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/inbox"
	"storefront/internal/domain/shared/apperr"
)

// ListConversations returns the viewer's conversations with their newest message first.
// A conversation that cannot be decoded is logged and left out so one bad record does not
// blank the inbox; GetThread stays strict.
func (c *Client) ListConversations(ctx context.Context, credential string) (inbox.List, error) {
	var out struct {
		UserID        string             `json:"userId"`
		Conversations []conversationWire `json:"conversations"`
	}
	if err := c.do(ctx, request{
		endpoint:   "conversations.list",
		method:     http.MethodGet,
		path:       "/conversations",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return inbox.List{}, err
	}
	convs := make([]inbox.Conversation, 0, len(out.Conversations))
	for _, w := range out.Conversations {
		conv, err := w.toDomain()
		if err != nil {
			c.logWarn("skipping undecodable conversation", "conversation_id", w.ID, "error", err)
			continue
		}
		convs = append(convs, conv)
	}
	return inbox.List{ViewerUserID: out.UserID, Conversations: convs}, nil
}

// GetThread returns one conversation with its chronological history.
func (c *Client) GetThread(ctx context.Context, credential string, id inbox.ConversationID) (inbox.Thread, error) {
	var out struct {
		UserID       string           `json:"userId"`
		Conversation conversationWire `json:"conversation"`
	}
	if err := c.do(ctx, request{
		endpoint:   "conversations.thread",
		method:     http.MethodGet,
		path:       "/conversations/" + escape(string(id)) + "/messages",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return inbox.Thread{}, err
	}
	conv, err := out.Conversation.toDomain()
	if err != nil {
		return inbox.Thread{}, decodeFailure(err)
	}
	return inbox.Thread{ViewerUserID: out.UserID, Conversation: conv}, nil
}

// MarkConversationRead persists the viewer's read marker for one conversation.
func (c *Client) MarkConversationRead(ctx context.Context, credential string, id inbox.ConversationID) error {
	return c.do(ctx, request{
		endpoint:   "conversations.read",
		method:     http.MethodPost,
		path:       "/conversations/" + escape(string(id)) + "/read",
		credential: credential,
		auth:       true,
	}, nil)
}

func (c *Client) MarkAllConversationsRead(ctx context.Context, credential string) error {
	return c.do(ctx, request{
		endpoint:   "conversations.read_all",
		method:     http.MethodPost,
		path:       "/conversations/mark-all-read",
		credential: credential,
		auth:       true,
	}, nil)
}

type sendWire struct {
	Content         string `json:"content"`
	ConversationID  string `json:"conversationId,omitempty"`
	RecipientUserID string `json:"recipientId,omitempty"`
	GuestName       string `json:"guestName,omitempty"`
	GuestEmail      string `json:"guestEmail,omitempty"`
}

type sentWire struct {
	Message          messageWire `json:"message"`
	ConversationID   string      `json:"conversationId"`
	GuestAccessToken string      `json:"guestAccessToken"`
}

func (w sentWire) toDomain() (inbox.Sent, error) {
	msg, err := w.Message.toDomain(w.ConversationID)
	if err != nil {
		return inbox.Sent{}, decodeFailure(err)
	}
	convID := inbox.ConversationID(w.ConversationID)
	if convID == "" {
		convID = msg.ConversationID
	}
	return inbox.Sent{Message: msg, ConversationID: convID, GuestAccessToken: w.GuestAccessToken}, nil
}

// SendMessage posts an authenticated message, either into an existing conversation or
// to a recipient to start a new one.
func (c *Client) SendMessage(ctx context.Context, credential string, msg inbox.Outgoing) (inbox.Sent, error) {
	var out sentWire
	if err := c.do(ctx, request{
		endpoint: "conversations.send",
		method:   http.MethodPost,
		path:     "/conversations/messages",
		body: sendWire{
			Content:         msg.Content,
			ConversationID:  string(msg.ConversationID),
			RecipientUserID: msg.RecipientUserID,
		},
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return inbox.Sent{}, err
	}
	return out.toDomain()
}

// SendGuestMessage starts a conversation on behalf of an unauthenticated guest. The
// returned access token is the guest's only way back into the thread.
func (c *Client) SendGuestMessage(ctx context.Context, msg inbox.Outgoing) (inbox.Sent, error) {
	body := sendWire{Content: msg.Content, RecipientUserID: msg.RecipientUserID}
	if msg.Guest != nil {
		body.GuestName = msg.Guest.Name
		body.GuestEmail = msg.Guest.Email
	}
	var out sentWire
	if err := c.do(ctx, request{
		endpoint: "conversations.guest_send",
		method:   http.MethodPost,
		path:     "/conversations/guest/messages",
		body:     body,
	}, &out); err != nil {
		return inbox.Sent{}, err
	}
	return out.toDomain()
}

// GuestConversation loads the thread a guest access token grants.
func (c *Client) GuestConversation(ctx context.Context, token string) (inbox.Conversation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return inbox.Conversation{}, apperr.Unauthenticated("guest token missing")
	}
	var out struct {
		Conversation conversationWire `json:"conversation"`
	}
	if err := c.do(ctx, request{
		endpoint: "conversations.guest_thread",
		method:   http.MethodGet,
		path:     "/conversations/guest/" + escape(token),
	}, &out); err != nil {
		return inbox.Conversation{}, err
	}
	conv, err := out.Conversation.toDomain()
	if err != nil {
		return inbox.Conversation{}, decodeFailure(err)
	}
	return conv, nil
}

// ReplyAsGuest appends a guest message to the conversation the token grants.
func (c *Client) ReplyAsGuest(ctx context.Context, token, content string) (inbox.Message, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return inbox.Message{}, apperr.Unauthenticated("guest token missing")
	}
	var out sentWire
	if err := c.do(ctx, request{
		endpoint: "conversations.guest_reply",
		method:   http.MethodPost,
		path:     "/conversations/guest/" + escape(token) + "/messages",
		body:     sendWire{Content: content},
	}, &out); err != nil {
		return inbox.Message{}, err
	}
	sent, err := out.toDomain()
	if err != nil {
		return inbox.Message{}, err
	}
	return sent.Message, nil
}

// UnreadConversations returns the backend's count of conversations with unread messages.
func (c *Client) UnreadConversations(ctx context.Context, credential string) (int, error) {
	var out countWire
	if err := c.do(ctx, request{
		endpoint:   "conversations.unread_count",
		method:     http.MethodGet,
		path:       "/conversations/unread-count",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func decodeFailure(err error) error {
	return &apperr.NetworkError{Message: "invalid response from storefront api", Err: err}
}
