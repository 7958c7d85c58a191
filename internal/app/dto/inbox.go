package dto

import (
	"time"

	appinbox "storefront/internal/app/inbox"
	domaininbox "storefront/internal/domain/inbox"
)

type Sender struct {
	Kind   string `json:"kind"`
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Label  string `json:"label"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	Sender         Sender    `json:"sender"`
	Mine           bool      `json:"mine"`
}

type ConversationPreview struct {
	ID          string    `json:"id"`
	SenderLabel string    `json:"sender_label"`
	Excerpt     string    `json:"excerpt"`
	Timestamp   time.Time `json:"timestamp"`
	Unread      bool      `json:"unread"`
}

type InboxResponse struct {
	ViewerUserID  string                `json:"viewer_user_id"`
	Conversations []ConversationPreview `json:"conversations"`
	UnreadShown   int                   `json:"unread_shown"`
}

type ThreadResponse struct {
	ViewerUserID   string    `json:"viewer_user_id,omitempty"`
	ConversationID string    `json:"conversation_id"`
	StoreID        string    `json:"store_id,omitempty"`
	Messages       []Message `json:"messages"`
	MarkedRead     bool      `json:"marked_read"`
}

type SendResponse struct {
	Message          Message `json:"message"`
	ConversationID   string  `json:"conversation_id"`
	GuestAccessToken string  `json:"guest_access_token,omitempty"`
}

type CountResponse struct {
	Count int `json:"count"`
}

func MapSender(s domaininbox.Sender) Sender {
	out := Sender{Kind: string(s.Kind), Label: s.Label()}
	switch {
	case s.User != nil:
		out.UserID = s.User.ID
		out.Name = s.User.Name
		out.Email = s.User.Email
	case s.Guest != nil:
		out.Name = s.Guest.Name
		out.Email = s.Guest.Email
	}
	return out
}

func MapMessage(m domaininbox.Message, viewerID string) Message {
	return Message{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Sender:         MapSender(m.Sender),
		Mine:           m.Sender.IsUser(viewerID),
	}
}

func MapInbox(in appinbox.Inbox) InboxResponse {
	previews := make([]ConversationPreview, 0, len(in.Previews))
	for _, p := range in.Previews {
		previews = append(previews, ConversationPreview{
			ID:          string(p.ConversationID),
			SenderLabel: p.SenderLabel,
			Excerpt:     p.Excerpt,
			Timestamp:   p.Timestamp,
			Unread:      p.IsUnread,
		})
	}
	return InboxResponse{ViewerUserID: in.ViewerUserID, Conversations: previews, UnreadShown: in.UnreadShown}
}

func MapThread(viewerID string, conv domaininbox.Conversation, markedRead bool) ThreadResponse {
	messages := make([]Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		messages = append(messages, MapMessage(m, viewerID))
	}
	return ThreadResponse{
		ViewerUserID:   viewerID,
		ConversationID: string(conv.ID),
		StoreID:        conv.StoreID,
		Messages:       messages,
		MarkedRead:     markedRead,
	}
}

func MapSent(sent domaininbox.Sent, viewerID string) SendResponse {
	return SendResponse{
		Message:          MapMessage(sent.Message, viewerID),
		ConversationID:   string(sent.ConversationID),
		GuestAccessToken: sent.GuestAccessToken,
	}
}
