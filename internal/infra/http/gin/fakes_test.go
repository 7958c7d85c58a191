package ginserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"storefront/internal/domain/catalog"
	domaininbox "storefront/internal/domain/inbox"
	"storefront/internal/domain/notifications"
	domainorders "storefront/internal/domain/orders"
	"storefront/internal/domain/payments"
	"storefront/internal/domain/shared/apperr"
	"storefront/internal/domain/shared/money"
	"storefront/internal/domain/user"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeInbox struct {
	mu          sync.Mutex
	marked      []domaininbox.ConversationID
	guestTokens []string
	started     []string
	unread      int
	unreadErr   error
}

func (f *fakeInbox) ListConversations(context.Context, string) (domaininbox.List, error) {
	return domaininbox.List{
		ViewerUserID: "u1",
		Conversations: []domaininbox.Conversation{{
			ID:           "c1",
			Participants: []domaininbox.Participant{{User: domaininbox.User{ID: "u1"}}},
			Messages: []domaininbox.Message{{
				ID:        "m1",
				Content:   "Is this still available?",
				CreatedAt: fixedNow,
				Sender:    domaininbox.GuestSender(domaininbox.Guest{Name: "Ann", Email: "ann@example.com"}),
			}},
		}},
	}, nil
}

func (f *fakeInbox) GetThread(_ context.Context, _ string, id domaininbox.ConversationID) (domaininbox.Thread, error) {
	return domaininbox.Thread{
		ViewerUserID: "u1",
		Conversation: domaininbox.Conversation{
			ID: id,
			Messages: []domaininbox.Message{{
				ID:        "m1",
				Content:   "hello",
				CreatedAt: fixedNow,
				Sender:    domaininbox.UserSender(domaininbox.User{ID: "u1", Name: "Seller"}),
			}},
		},
	}, nil
}

func (f *fakeInbox) MarkConversationRead(_ context.Context, _ string, id domaininbox.ConversationID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeInbox) MarkAllConversationsRead(context.Context, string) error { return nil }

func (f *fakeInbox) SendMessage(_ context.Context, _ string, msg domaininbox.Outgoing) (domaininbox.Sent, error) {
	return domaininbox.Sent{
		ConversationID: "c1",
		Message: domaininbox.Message{
			ID:             "m2",
			ConversationID: "c1",
			Content:        msg.Content,
			CreatedAt:      fixedNow,
			Sender:         domaininbox.UserSender(domaininbox.User{ID: "u1"}),
		},
	}, nil
}

// guestThreads maps the seller a guest writes to onto the thread and token the backend issues.
var guestThreads = map[string]struct {
	conv  domaininbox.ConversationID
	token string
}{
	"seller":  {conv: "c9", token: "guest-token-1"},
	"sellerB": {conv: "c10", token: "guest-token-2"},
}

func (f *fakeInbox) SendGuestMessage(_ context.Context, msg domaininbox.Outgoing) (domaininbox.Sent, error) {
	f.mu.Lock()
	f.started = append(f.started, msg.RecipientUserID)
	f.mu.Unlock()
	thread, ok := guestThreads[msg.RecipientUserID]
	if !ok {
		return domaininbox.Sent{}, &apperr.NetworkError{Status: http.StatusNotFound, Message: "recipient not found"}
	}
	return domaininbox.Sent{
		ConversationID:   thread.conv,
		GuestAccessToken: thread.token,
		Message: domaininbox.Message{
			ID:             "m3",
			ConversationID: thread.conv,
			Content:        msg.Content,
			CreatedAt:      fixedNow,
			Sender:         domaininbox.GuestSender(*msg.Guest),
		},
	}, nil
}

func (f *fakeInbox) GuestConversation(_ context.Context, token string) (domaininbox.Conversation, error) {
	f.mu.Lock()
	f.guestTokens = append(f.guestTokens, token)
	f.mu.Unlock()
	if token != "guest-token-1" {
		return domaininbox.Conversation{}, apperr.Unauthenticated("unknown guest token")
	}
	return domaininbox.Conversation{
		ID:           "c9",
		Participants: []domaininbox.Participant{{User: domaininbox.User{ID: "seller"}}},
	}, nil
}

func (f *fakeInbox) ReplyAsGuest(_ context.Context, token, content string) (domaininbox.Message, error) {
	f.mu.Lock()
	f.guestTokens = append(f.guestTokens, token)
	f.mu.Unlock()
	conv := domaininbox.ConversationID("c9")
	if token == "guest-token-2" {
		conv = "c10"
	}
	return domaininbox.Message{
		ID:             "m4",
		ConversationID: conv,
		Content:        content,
		CreatedAt:      fixedNow,
		Sender:         domaininbox.GuestSender(domaininbox.Guest{Name: "Ann", Email: "ann@example.com"}),
	}, nil
}

func (f *fakeInbox) UnreadConversations(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, f.unreadErr
}

// fakeOrders holds one 100.00 USD paid order; a refund updates it the way the backend
// would, so a re-fetch sees the backend's status.
type fakeOrders struct {
	refundErr error
	refunds   int
	status    domainorders.Status
	refunded  *money.Money
}

func (f *fakeOrders) ListOrders(context.Context, string, string) ([]domainorders.Order, error) {
	status := f.status
	if status == "" {
		status = domainorders.StatusPaid
	}
	return []domainorders.Order{{
		ID:           "o1",
		Amount:       money.Must(10000, "USD"),
		PlatformFee:  money.Must(1000, "USD"),
		Status:       status,
		RefundAmount: f.refunded,
		CreatedAt:    fixedNow.Add(-time.Hour),
	}}, nil
}

func (f *fakeOrders) Refund(_ context.Context, _ string, req domainorders.RefundRequest) (domainorders.RefundResult, error) {
	f.refunds++
	if f.refundErr != nil {
		return domainorders.RefundResult{}, f.refundErr
	}
	f.status = domainorders.StatusPartiallyRefunded
	if req.Amount.Amount == 10000 {
		f.status = domainorders.StatusRefunded
	}
	amount := req.Amount
	f.refunded = &amount
	return domainorders.RefundResult{Success: true, RefundID: "re_1", Amount: req.Amount, Status: f.status}, nil
}

type fakeStorefront struct{}

func (fakeStorefront) Configured() bool { return true }

func (fakeStorefront) ListStores(context.Context) ([]catalog.Store, error) {
	return []catalog.Store{{ID: "s1", Slug: "shop", Name: "Shop"}}, nil
}

func (fakeStorefront) GetStore(_ context.Context, slug string) (catalog.Store, error) {
	if slug != "shop" {
		return catalog.Store{}, &apperr.NetworkError{Status: 404, Message: "Store not found"}
	}
	return catalog.Store{ID: "s1", Slug: slug, Name: "Shop"}, nil
}

func (fakeStorefront) StoreItems(context.Context, string) ([]catalog.Item, error) {
	return []catalog.Item{{ID: "i1", Name: "Mug", Price: money.Must(1200, "USD")}}, nil
}

func (fakeStorefront) RecordStoreView(context.Context, string, string) error { return nil }

func (fakeStorefront) CreateCheckout(_ context.Context, _ string, in payments.CheckoutInput) (payments.CheckoutSession, error) {
	return payments.CheckoutSession{SessionID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil
}

func (fakeStorefront) VerifySession(context.Context, string) (payments.Verification, error) {
	return payments.Verification{Success: true, OrderID: "o1"}, nil
}

func (fakeStorefront) SyncPaymentIntent(context.Context, string) (string, error) { return "o1", nil }

func (fakeStorefront) ListNotifications(context.Context, string) ([]notifications.Notification, error) {
	return []notifications.Notification{{ID: "n1", Title: "New order", CreatedAt: fixedNow}}, nil
}

func (fakeStorefront) UnreadNotifications(context.Context, string) (int, error) { return 1, nil }

func (fakeStorefront) MarkNotificationRead(context.Context, string, string) error { return nil }

func (fakeStorefront) MarkAllNotificationsRead(context.Context, string) error { return nil }

func (fakeStorefront) SyncUser(_ context.Context, _ string, in user.SyncInput) (user.User, error) {
	return user.User{ID: "u1", Email: in.Email, Name: in.Name}, nil
}

func (fakeStorefront) ConnectAccountSession(context.Context, string) (payments.AccountSession, error) {
	return payments.AccountSession{ClientSecret: "secret"}, nil
}

func (fakeStorefront) ConnectStatus(context.Context, string) (payments.ConnectStatus, error) {
	return payments.ConnectStatus{Connected: true}, nil
}
