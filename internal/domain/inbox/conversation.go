package inbox

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrSenderMissing   = errors.New("inbox: message sender missing")
	ErrSenderAmbiguous = errors.New("inbox: message has both user and guest sender")
)

type ConversationID string

type MessageID string

type User struct {
	ID    string
	Name  string
	Email string
}

// Guest is an unauthenticated counterparty identified by name and email.
type Guest struct {
	Name  string
	Email string
}

type SenderKind string

const (
	SenderKindUser  SenderKind = "user"
	SenderKindGuest SenderKind = "guest"
)

// Sender is either a registered user or a guest, never both and never neither.
type Sender struct {
	Kind  SenderKind
	User  *User
	Guest *Guest
}

func UserSender(u User) Sender {
	return Sender{Kind: SenderKindUser, User: &u}
}

func GuestSender(g Guest) Sender {
	return Sender{Kind: SenderKindGuest, Guest: &g}
}

// Validate checks the exactly-one invariant.
func (s Sender) Validate() error {
	switch {
	case s.User != nil && s.Guest != nil:
		return ErrSenderAmbiguous
	case s.Kind == SenderKindUser && s.User != nil:
		return nil
	case s.Kind == SenderKindGuest && s.Guest != nil:
		return nil
	default:
		return ErrSenderMissing
	}
}

// IsUser reports whether the sender is the registered user with the given id.
func (s Sender) IsUser(userID string) bool {
	if s.Kind != SenderKindUser || s.User == nil {
		return false
	}
	userID = strings.TrimSpace(userID)
	return userID != "" && s.User.ID == userID
}

// Label resolves the display name: guest name, guest email, user name, user email.
func (s Sender) Label() string {
	if s.Guest != nil {
		if name := strings.TrimSpace(s.Guest.Name); name != "" {
			return name
		}
		if email := strings.TrimSpace(s.Guest.Email); email != "" {
			return email
		}
	}
	if s.User != nil {
		if name := strings.TrimSpace(s.User.Name); name != "" {
			return name
		}
		if email := strings.TrimSpace(s.User.Email); email != "" {
			return email
		}
	}
	return DefaultSenderLabel
}

type Participant struct {
	User       User
	LastReadAt *time.Time
}

type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Content        string
	CreatedAt      time.Time
	Sender         Sender
}

// Conversation is a page-scoped copy of a backend thread. Messages are newest-first in
// list previews and chronological in a full thread.
type Conversation struct {
	ID           ConversationID
	StoreID      string
	UpdatedAt    time.Time
	Participants []Participant
	Messages     []Message
}

// Participant returns the entry for userID, if the user takes part in the conversation.
func (c Conversation) Participant(userID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.User.ID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// Involves reports whether userID is a participant or has sent a message in the conversation.
func (c Conversation) Involves(userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	if _, ok := c.Participant(userID); ok {
		return true
	}
	for _, m := range c.Messages {
		if m.Sender.IsUser(userID) {
			return true
		}
	}
	return false
}

// List is the authenticated conversation list with the viewer's id.
type List struct {
	ViewerUserID  string
	Conversations []Conversation
}

// Thread is one conversation with its full, chronological history.
type Thread struct {
	ViewerUserID string
	Conversation Conversation
}

// Outgoing describes a message to send. Exactly one of ConversationID and RecipientUserID
// is set; Guest is set only for unauthenticated senders.
type Outgoing struct {
	Content         string
	ConversationID  ConversationID
	RecipientUserID string
	Guest           *Guest
}

// Sent is the backend's answer to a send. GuestAccessToken is only issued to guests
// starting a new conversation.
type Sent struct {
	Message          Message
	ConversationID   ConversationID
	GuestAccessToken string
}
