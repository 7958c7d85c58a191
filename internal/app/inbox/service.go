package inbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/app/activity"
	domaininbox "storefront/internal/domain/inbox"
	"storefront/internal/domain/shared/apperr"
)

var ErrGatewayMissing = errors.New("inbox: gateway not configured")

// Gateway is the slice of the storefront API the inbox needs.
type Gateway interface {
	ListConversations(ctx context.Context, credential string) (domaininbox.List, error)
	GetThread(ctx context.Context, credential string, id domaininbox.ConversationID) (domaininbox.Thread, error)
	MarkConversationRead(ctx context.Context, credential string, id domaininbox.ConversationID) error
	MarkAllConversationsRead(ctx context.Context, credential string) error
	SendMessage(ctx context.Context, credential string, msg domaininbox.Outgoing) (domaininbox.Sent, error)
	SendGuestMessage(ctx context.Context, msg domaininbox.Outgoing) (domaininbox.Sent, error)
	GuestConversation(ctx context.Context, token string) (domaininbox.Conversation, error)
	ReplyAsGuest(ctx context.Context, token, content string) (domaininbox.Message, error)
	UnreadConversations(ctx context.Context, credential string) (int, error)
}

type Service struct {
	Gateway  Gateway
	Activity *activity.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Inbox is the viewer's conversation list with derived previews.
type Inbox struct {
	ViewerUserID  string
	Conversations []domaininbox.Conversation
	Previews      []domaininbox.Preview
	UnreadShown   int
}

// OpenedThread is a thread fetched for display together with the outcome of the read
// marker update that follows it.
type OpenedThread struct {
	domaininbox.Thread
	MarkedRead bool
}

type SendMessageInput struct {
	Content         string
	ConversationID  domaininbox.ConversationID
	RecipientUserID string
	Guest           *domaininbox.Guest
	Credential      string
}

func (s *Service) FetchAll(ctx context.Context, credential string) (Inbox, error) {
	if err := s.ready(); err != nil {
		return Inbox{}, err
	}
	if err := requireCredential(credential); err != nil {
		return Inbox{}, err
	}
	list, err := s.Gateway.ListConversations(ctx, credential)
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{
		ViewerUserID:  list.ViewerUserID,
		Conversations: list.Conversations,
		Previews:      domaininbox.ComputePreviews(list.Conversations, list.ViewerUserID),
		UnreadShown:   domaininbox.CountUnread(list.Conversations, list.ViewerUserID),
	}, nil
}

// FetchThread loads the full history. It never advances the read marker.
func (s *Service) FetchThread(ctx context.Context, credential string, id domaininbox.ConversationID) (domaininbox.Thread, error) {
	if err := s.ready(); err != nil {
		return domaininbox.Thread{}, err
	}
	if err := requireCredential(credential); err != nil {
		return domaininbox.Thread{}, err
	}
	if err := requireConversation(id); err != nil {
		return domaininbox.Thread{}, err
	}
	return s.Gateway.GetThread(ctx, credential, id)
}

// OpenThread is what a UI does when a thread is viewed: fetch, then mark read. A failed
// mark-read is logged and reported through MarkedRead; the thread is still returned.
func (s *Service) OpenThread(ctx context.Context, credential string, id domaininbox.ConversationID) (OpenedThread, error) {
	thread, err := s.FetchThread(ctx, credential, id)
	if err != nil {
		return OpenedThread{}, err
	}
	if err := s.MarkRead(ctx, credential, id); err != nil {
		s.logWarn("mark read after open failed", "conversation_id", id, "error", err)
		return OpenedThread{Thread: thread}, nil
	}
	return OpenedThread{Thread: thread, MarkedRead: true}, nil
}

// MarkRead advances the viewer's marker server-side. Repeating it is harmless.
func (s *Service) MarkRead(ctx context.Context, credential string, id domaininbox.ConversationID) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireCredential(credential); err != nil {
		return err
	}
	if err := requireConversation(id); err != nil {
		return err
	}
	if err := s.Gateway.MarkConversationRead(ctx, credential, id); err != nil {
		return err
	}
	s.Activity.Record(ctx, domaininbox.ConversationReadEvent{ConversationID: id, At: s.now()})
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, credential string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireCredential(credential); err != nil {
		return err
	}
	return s.Gateway.MarkAllConversationsRead(ctx, credential)
}

// SendMessage validates and routes a message. Authenticated senders may reply or start a
// thread; guests may only start one and receive the access token for it.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (domaininbox.Sent, error) {
	if err := s.ready(); err != nil {
		return domaininbox.Sent{}, err
	}
	content, err := domaininbox.ValidateContent(in.Content)
	if err != nil {
		return domaininbox.Sent{}, err
	}
	convID := domaininbox.ConversationID(strings.TrimSpace(string(in.ConversationID)))
	recipient := strings.TrimSpace(in.RecipientUserID)
	switch {
	case convID == "" && recipient == "":
		return domaininbox.Sent{}, apperr.Invalid("conversation_id", "either a conversation or a recipient is required")
	case convID != "" && recipient != "":
		return domaininbox.Sent{}, apperr.Invalid("conversation_id", "conversation and recipient are mutually exclusive")
	}

	out := domaininbox.Outgoing{Content: content, ConversationID: convID, RecipientUserID: recipient}
	credential := strings.TrimSpace(in.Credential)

	var sent domaininbox.Sent
	if credential == "" {
		if in.Guest == nil {
			return domaininbox.Sent{}, apperr.Invalid("guest", "guest name and email are required")
		}
		guest, err := domaininbox.ValidateGuest(*in.Guest)
		if err != nil {
			return domaininbox.Sent{}, err
		}
		if convID != "" {
			return domaininbox.Sent{}, apperr.Invalid("conversation_id", "guests reply with their access token")
		}
		out.Guest = &guest
		sent, err = s.Gateway.SendGuestMessage(ctx, out)
		if err != nil {
			return domaininbox.Sent{}, err
		}
	} else {
		if in.Guest != nil {
			return domaininbox.Sent{}, apperr.Invalid("guest", "guest details are not accepted from signed-in senders")
		}
		sent, err = s.Gateway.SendMessage(ctx, credential, out)
		if err != nil {
			return domaininbox.Sent{}, err
		}
		sent.GuestAccessToken = ""
	}

	kind := domaininbox.SenderKindUser
	if credential == "" {
		kind = domaininbox.SenderKindGuest
	}
	s.Activity.Record(ctx, domaininbox.MessageSentEvent{
		ConversationID: sent.ConversationID,
		MessageID:      sent.Message.ID,
		SenderKind:     kind,
		NewThread:      convID == "",
		At:             s.now(),
	})
	return sent, nil
}

// GuestConversation returns the single conversation the token is scoped to.
func (s *Service) GuestConversation(ctx context.Context, token string) (domaininbox.Conversation, error) {
	if err := s.ready(); err != nil {
		return domaininbox.Conversation{}, err
	}
	if strings.TrimSpace(token) == "" {
		return domaininbox.Conversation{}, apperr.Unauthenticated("guest access token required")
	}
	return s.Gateway.GuestConversation(ctx, token)
}

func (s *Service) SendGuestMessage(ctx context.Context, token, content string) (domaininbox.Message, error) {
	if err := s.ready(); err != nil {
		return domaininbox.Message{}, err
	}
	if strings.TrimSpace(token) == "" {
		return domaininbox.Message{}, apperr.Unauthenticated("guest access token required")
	}
	content, err := domaininbox.ValidateContent(content)
	if err != nil {
		return domaininbox.Message{}, err
	}
	msg, err := s.Gateway.ReplyAsGuest(ctx, token, content)
	if err != nil {
		return domaininbox.Message{}, err
	}
	s.Activity.Record(ctx, domaininbox.MessageSentEvent{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderKind:     domaininbox.SenderKindGuest,
		At:             s.now(),
	})
	return msg, nil
}

// SendAsGuest routes a guest message. Without a recipient it replies through the token.
// With one it replies in the token's thread only when that thread already involves the
// recipient, and starts a new thread (with a fresh token) otherwise, so a message for one
// store never lands in another store's thread. An expired token with a recipient also
// starts a new thread.
func (s *Service) SendAsGuest(ctx context.Context, token string, in SendMessageInput) (domaininbox.Sent, error) {
	token = strings.TrimSpace(token)
	recipient := strings.TrimSpace(in.RecipientUserID)
	if token != "" {
		if recipient == "" {
			return s.replyAsGuest(ctx, token, in.Content)
		}
		conv, err := s.GuestConversation(ctx, token)
		switch {
		case err == nil && conv.Involves(recipient):
			return s.replyAsGuest(ctx, token, in.Content)
		case err != nil && !apperr.IsAuth(err):
			return domaininbox.Sent{}, err
		}
	}
	in.Credential = ""
	in.ConversationID = ""
	return s.SendMessage(ctx, in)
}

func (s *Service) replyAsGuest(ctx context.Context, token, content string) (domaininbox.Sent, error) {
	msg, err := s.SendGuestMessage(ctx, token, content)
	if err != nil {
		return domaininbox.Sent{}, err
	}
	return domaininbox.Sent{ConversationID: msg.ConversationID, Message: msg}, nil
}

// UnreadCount is the backend's global count; it is not derived from a fetched list.
func (s *Service) UnreadCount(ctx context.Context, credential string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if err := requireCredential(credential); err != nil {
		return 0, err
	}
	return s.Gateway.UnreadConversations(ctx, credential)
}

func (s *Service) ready() error {
	if s == nil || s.Gateway == nil {
		return ErrGatewayMissing
	}
	return nil
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

func requireCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return apperr.Unauthenticated("credential missing")
	}
	return nil
}

func requireConversation(id domaininbox.ConversationID) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperr.Invalid("conversation_id", "conversation id is required")
	}
	return nil
}
