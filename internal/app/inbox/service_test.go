package inbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/app/activity"
	domaininbox "storefront/internal/domain/inbox"
	"storefront/internal/domain/shared/apperr"
)

type fakeGateway struct {
	mu        sync.Mutex
	list      domaininbox.List
	thread    domaininbox.Thread
	markErr   error
	marked    []domaininbox.ConversationID
	sent      []domaininbox.Outgoing
	guestSent []domaininbox.Outgoing
	unread    int
	unreadErr error
	calls     int
}

func (f *fakeGateway) ListConversations(context.Context, string) (domaininbox.List, error) {
	f.calls++
	return f.list, nil
}

func (f *fakeGateway) GetThread(context.Context, string, domaininbox.ConversationID) (domaininbox.Thread, error) {
	f.calls++
	return f.thread, nil
}

func (f *fakeGateway) MarkConversationRead(_ context.Context, _ string, id domaininbox.ConversationID) error {
	f.calls++
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeGateway) MarkAllConversationsRead(context.Context, string) error {
	f.calls++
	return nil
}

func (f *fakeGateway) SendMessage(_ context.Context, _ string, msg domaininbox.Outgoing) (domaininbox.Sent, error) {
	f.calls++
	f.sent = append(f.sent, msg)
	return domaininbox.Sent{
		Message:          domaininbox.Message{ID: "m1", ConversationID: "c1", Content: msg.Content},
		ConversationID:   "c1",
		GuestAccessToken: "should-not-leak",
	}, nil
}

func (f *fakeGateway) SendGuestMessage(_ context.Context, msg domaininbox.Outgoing) (domaininbox.Sent, error) {
	f.calls++
	f.guestSent = append(f.guestSent, msg)
	return domaininbox.Sent{
		Message:          domaininbox.Message{ID: "m2", ConversationID: "c2", Content: msg.Content},
		ConversationID:   "c2",
		GuestAccessToken: "gt_2",
	}, nil
}

func (f *fakeGateway) GuestConversation(_ context.Context, token string) (domaininbox.Conversation, error) {
	f.calls++
	if token != "gt_2" {
		return domaininbox.Conversation{}, &apperr.NetworkError{Status: 404, Message: "not found"}
	}
	return domaininbox.Conversation{
		ID:           "c2",
		Participants: []domaininbox.Participant{{User: domaininbox.User{ID: "seller"}}},
	}, nil
}

func (f *fakeGateway) ReplyAsGuest(_ context.Context, _ string, content string) (domaininbox.Message, error) {
	f.calls++
	return domaininbox.Message{ID: "m3", ConversationID: "c2", Content: content}, nil
}

func (f *fakeGateway) UnreadConversations(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.unread, f.unreadErr
}

type memoryBox struct {
	records []activity.EventRecord
}

func (b *memoryBox) Add(_ context.Context, rec activity.EventRecord) error {
	b.records = append(b.records, rec)
	return nil
}

func newService(gw *fakeGateway) (*Service, *memoryBox) {
	box := &memoryBox{}
	return &Service{
		Gateway:  gw,
		Activity: &activity.Recorder{Box: box},
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}, box
}

func ts(hour int) time.Time {
	return time.Date(2024, 5, 1, hour, 0, 0, 0, time.UTC)
}

func TestService_FetchAllRequiresCredential(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newService(gw)

	_, err := svc.FetchAll(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))
	assert.Zero(t, gw.calls)
}

func TestService_FetchAllDerivesPreviews(t *testing.T) {
	lastRead := ts(5)
	gw := &fakeGateway{list: domaininbox.List{
		ViewerUserID: "b",
		Conversations: []domaininbox.Conversation{
			{
				ID:           "c1",
				Participants: []domaininbox.Participant{{User: domaininbox.User{ID: "b"}, LastReadAt: &lastRead}},
				Messages: []domaininbox.Message{{
					ID: "m1", CreatedAt: ts(10), Content: "hello",
					Sender: domaininbox.UserSender(domaininbox.User{ID: "a", Name: "Alice"}),
				}},
			},
			{ID: "c2"},
		},
	}}
	svc, _ := newService(gw)

	inbox, err := svc.FetchAll(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, inbox.Previews, 2)
	assert.True(t, inbox.Previews[0].IsUnread)
	assert.Equal(t, "Alice", inbox.Previews[0].SenderLabel)
	assert.Equal(t, domaininbox.EmptyConversationLabel, inbox.Previews[1].Excerpt)
	assert.Equal(t, 1, inbox.UnreadShown)
}

func TestService_FetchThreadDoesNotMarkRead(t *testing.T) {
	gw := &fakeGateway{thread: domaininbox.Thread{ViewerUserID: "b", Conversation: domaininbox.Conversation{ID: "c1"}}}
	svc, _ := newService(gw)

	thread, err := svc.FetchThread(context.Background(), "tok", "c1")
	require.NoError(t, err)
	assert.Equal(t, domaininbox.ConversationID("c1"), thread.Conversation.ID)
	assert.Empty(t, gw.marked)
}

func TestService_OpenThreadMarksRead(t *testing.T) {
	gw := &fakeGateway{thread: domaininbox.Thread{Conversation: domaininbox.Conversation{ID: "c1"}}}
	svc, box := newService(gw)

	opened, err := svc.OpenThread(context.Background(), "tok", "c1")
	require.NoError(t, err)
	assert.True(t, opened.MarkedRead)
	assert.Equal(t, []domaininbox.ConversationID{"c1"}, gw.marked)
	require.Len(t, box.records, 1)
	assert.Equal(t, "conversation.read", box.records[0].Name)

	gw.markErr = errors.New("boom")
	opened, err = svc.OpenThread(context.Background(), "tok", "c1")
	require.NoError(t, err)
	assert.False(t, opened.MarkedRead)
}

func TestService_MarkReadIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newService(gw)

	require.NoError(t, svc.MarkRead(context.Background(), "tok", "c1"))
	require.NoError(t, svc.MarkRead(context.Background(), "tok", "c1"))
	assert.Len(t, gw.marked, 2)

	err := svc.MarkRead(context.Background(), "tok", " ")
	assert.True(t, apperr.IsValidation(err))
}

func TestService_SendMessageValidation(t *testing.T) {
	guest := &domaininbox.Guest{Name: "Ann", Email: "ann@example.com"}
	tests := []struct {
		name  string
		input SendMessageInput
	}{
		{name: "empty content", input: SendMessageInput{Content: "   ", RecipientUserID: "s", Credential: "tok"}},
		{name: "no route", input: SendMessageInput{Content: "hi", Credential: "tok"}},
		{name: "both routes", input: SendMessageInput{Content: "hi", ConversationID: "c1", RecipientUserID: "s", Credential: "tok"}},
		{name: "guest without details", input: SendMessageInput{Content: "hi", RecipientUserID: "s"}},
		{name: "guest missing email", input: SendMessageInput{Content: "hi", RecipientUserID: "s", Guest: &domaininbox.Guest{Name: "Ann"}}},
		{name: "guest replying by id", input: SendMessageInput{Content: "hi", ConversationID: "c1", Guest: guest}},
		{name: "signed in with guest", input: SendMessageInput{Content: "hi", RecipientUserID: "s", Guest: guest, Credential: "tok"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{}
			svc, _ := newService(gw)
			_, err := svc.SendMessage(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Zero(t, gw.calls)
		})
	}
}

func TestService_SendMessageAuthenticated(t *testing.T) {
	gw := &fakeGateway{}
	svc, box := newService(gw)

	sent, err := svc.SendMessage(context.Background(), SendMessageInput{Content: "  hi there ", ConversationID: "c1", Credential: "tok"})
	require.NoError(t, err)
	assert.Empty(t, sent.GuestAccessToken)
	require.Len(t, gw.sent, 1)
	assert.Equal(t, "hi there", gw.sent[0].Content)
	require.Len(t, box.records, 1)
	assert.Equal(t, "message.sent", box.records[0].Name)
}

func TestService_GuestStartsThreadAndUsesToken(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newService(gw)

	sent, err := svc.SendMessage(context.Background(), SendMessageInput{
		Content:         "is this available?",
		RecipientUserID: "seller",
		Guest:           &domaininbox.Guest{Name: " Ann ", Email: "ann@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gt_2", sent.GuestAccessToken)
	require.Len(t, gw.guestSent, 1)
	assert.Equal(t, "Ann", gw.guestSent[0].Guest.Name)

	conv, err := svc.GuestConversation(context.Background(), sent.GuestAccessToken)
	require.NoError(t, err)
	assert.Equal(t, sent.ConversationID, conv.ID)

	_, err = svc.GuestConversation(context.Background(), "")
	assert.True(t, apperr.IsAuth(err))

	msg, err := svc.SendGuestMessage(context.Background(), sent.GuestAccessToken, "follow up")
	require.NoError(t, err)
	assert.Equal(t, domaininbox.ConversationID("c2"), msg.ConversationID)

	_, err = svc.SendGuestMessage(context.Background(), sent.GuestAccessToken, "")
	assert.True(t, apperr.IsValidation(err))
}

func TestService_SendAsGuestRoutesByRecipient(t *testing.T) {
	ann := &domaininbox.Guest{Name: "Ann", Email: "ann@example.com"}

	t.Run("no token starts a thread", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, _ := newService(gw)
		sent, err := svc.SendAsGuest(context.Background(), "", SendMessageInput{Content: "hi", RecipientUserID: "seller", Guest: ann})
		require.NoError(t, err)
		assert.Equal(t, "gt_2", sent.GuestAccessToken)
		assert.Len(t, gw.guestSent, 1)
	})

	t.Run("token without recipient replies", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, _ := newService(gw)
		sent, err := svc.SendAsGuest(context.Background(), "gt_2", SendMessageInput{Content: "again"})
		require.NoError(t, err)
		assert.Equal(t, domaininbox.ConversationID("c2"), sent.ConversationID)
		assert.Empty(t, sent.GuestAccessToken)
		assert.Empty(t, gw.guestSent)
	})

	t.Run("recipient already in the token thread replies", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, _ := newService(gw)
		sent, err := svc.SendAsGuest(context.Background(), "gt_2", SendMessageInput{Content: "again", RecipientUserID: "seller", Guest: ann})
		require.NoError(t, err)
		assert.Equal(t, domaininbox.ConversationID("c2"), sent.ConversationID)
		assert.Empty(t, gw.guestSent)
	})

	t.Run("other recipient starts a new thread", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, _ := newService(gw)
		sent, err := svc.SendAsGuest(context.Background(), "gt_2", SendMessageInput{Content: "hi B", RecipientUserID: "sellerB", Guest: ann})
		require.NoError(t, err)
		assert.Equal(t, "gt_2", sent.GuestAccessToken)
		require.Len(t, gw.guestSent, 1)
		assert.Equal(t, "sellerB", gw.guestSent[0].RecipientUserID)
	})

	t.Run("new thread still needs guest identity", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, _ := newService(gw)
		_, err := svc.SendAsGuest(context.Background(), "gt_2", SendMessageInput{Content: "hi B", RecipientUserID: "sellerB"})
		assert.True(t, apperr.IsValidation(err))
		assert.Empty(t, gw.guestSent)
	})

	t.Run("token lookup failure is returned", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, _ := newService(gw)
		_, err := svc.SendAsGuest(context.Background(), "gt_unknown", SendMessageInput{Content: "hi", RecipientUserID: "seller", Guest: ann})
		assert.True(t, apperr.IsNetwork(err))
		assert.Empty(t, gw.guestSent)
	})
}

func TestService_NilGateway(t *testing.T) {
	var svc *Service
	_, err := svc.UnreadCount(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrGatewayMissing)
}

func TestUnreadPoller_PollsUntilCancelled(t *testing.T) {
	gw := &fakeGateway{unread: 3}
	svc, _ := newService(gw)
	poller := svc.NewUnreadPoller("tok", 10*time.Millisecond)

	var seen atomic.Int32
	poller.OnCount = func(count int) {
		assert.Equal(t, 3, count)
		seen.Add(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	require.Eventually(t, func() bool { return seen.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestUnreadPoller_ErrorsDoNotStopPolling(t *testing.T) {
	gw := &fakeGateway{unreadErr: &apperr.NetworkError{Status: 502}}
	svc, _ := newService(gw)
	poller := svc.NewUnreadPoller("tok", 5*time.Millisecond)

	var failures atomic.Int32
	poller.OnError = func(error) { failures.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = poller.Run(ctx) }()

	require.Eventually(t, func() bool { return failures.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
