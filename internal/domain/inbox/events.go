package inbox

import "time"

// MessageSentEvent is recorded once the backend accepted a message.
type MessageSentEvent struct {
	ConversationID ConversationID `json:"conversation_id"`
	MessageID      MessageID      `json:"message_id"`
	SenderKind     SenderKind     `json:"sender_kind"`
	NewThread      bool           `json:"new_thread"`
	At             time.Time      `json:"at"`
}

func (e MessageSentEvent) EventName() string     { return "message.sent" }
func (e MessageSentEvent) AggregateID() string   { return string(e.ConversationID) }
func (e MessageSentEvent) OccurredAt() time.Time { return e.At }

type ConversationReadEvent struct {
	ConversationID ConversationID `json:"conversation_id"`
	ViewerUserID   string         `json:"viewer_user_id"`
	At             time.Time      `json:"at"`
}

func (e ConversationReadEvent) EventName() string     { return "conversation.read" }
func (e ConversationReadEvent) AggregateID() string   { return string(e.ConversationID) }
func (e ConversationReadEvent) OccurredAt() time.Time { return e.At }
