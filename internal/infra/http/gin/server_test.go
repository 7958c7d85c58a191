package ginserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinbox "storefront/internal/app/inbox"
	apporders "storefront/internal/app/orders"
	appstorefront "storefront/internal/app/storefront"
	"storefront/internal/domain/shared/apperr"
	"storefront/internal/infra/config"
	"storefront/internal/infra/obs"
	"storefront/internal/infra/security"
	"storefront/internal/infra/storage/memory"
)

type testEnv struct {
	router  *gin.Engine
	inbox   *fakeInbox
	orders  *fakeOrders
	sealer  *security.GuestSealer
	limiter *ClientLimiter
}

func newTestEnv(t *testing.T, opts ...func(*testEnv)) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	sealer, err := security.NewGuestSealer("test-secret")
	require.NoError(t, err)

	env := &testEnv{
		inbox:   &fakeInbox{unread: 3},
		orders:  &fakeOrders{},
		sealer:  sealer,
		limiter: NewClientLimiter(100, 100),
	}
	for _, opt := range opts {
		opt(env)
	}
	inboxSvc := &appinbox.Service{Gateway: env.inbox, Now: func() time.Time { return fixedNow }}
	ordersSvc := &apporders.Service{Gateway: env.orders, Ledger: memory.NewRefundLedger(), Now: func() time.Time { return fixedNow }}
	storeSvc := &appstorefront.Service{Gateway: fakeStorefront{}}

	env.router = NewRouter(
		config.Config{Env: "test"},
		obs.Middleware{Metrics: obs.NewHTTPMetrics(reg)},
		obs.HealthHandlers{},
		reg,
		Handlers{
			Inbox:        InboxHandler{Service: inboxSvc, PollInterval: 10 * time.Millisecond},
			Guest:        GuestHandler{Service: inboxSvc, Sealer: sealer},
			GuestLimiter: env.limiter,
			Orders:       OrdersHandler{Service: ordersSvc},
			Stores:       StoreHandler{Service: storeSvc},
			Checkout:     CheckoutHandler{Service: storeSvc},
			Account:      AccountHandler{Service: storeSvc},
		},
	)
	return env
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

var bearer = map[string]string{"Authorization": "Bearer tok"}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/readyz", "", nil).Code)

	rec := env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

func TestInbox_RequiresBearer(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/inbox", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/inbox", "", map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInbox_ListReturnsPreviews(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/inbox", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "u1", body["viewer_user_id"])
	assert.EqualValues(t, 1, body["unread_shown"])
	convs := body["conversations"].([]any)
	require.Len(t, convs, 1)
	preview := convs[0].(map[string]any)
	assert.Equal(t, "Ann", preview["sender_label"])
	assert.Equal(t, true, preview["unread"])
}

func TestInbox_ThreadMarksReadUnlessAskedNotTo(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/inbox/c1?mark_read=false", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["marked_read"])
	assert.Empty(t, env.inbox.marked)

	rec = env.do(http.MethodGet, "/api/v1/inbox/c1", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["marked_read"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, true, msgs[0].(map[string]any)["mine"])
	assert.Len(t, env.inbox.marked, 1)

	rec = env.do(http.MethodGet, "/api/v1/inbox/c1?mark_read=maybe", "", bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInbox_SendValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/inbox/messages", `{"content":"   ","conversation_id":"c1"}`, bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/inbox/messages", `{"content":"hi","conversation_id":"c1"}`, bearer)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "c1", body["conversation_id"])
	assert.NotContains(t, body, "guest_access_token")
}

func TestInbox_UnreadCount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/inbox/unread-count", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["count"])
}

func TestInbox_UnreadStreamPushesCounts(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/inbox/unread-count/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimPrefix(line, "event:")
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
			break
		}
	}
	assert.Equal(t, "unread", event)
	assert.JSONEq(t, `{"count":3}`, data)
}

func TestInbox_UnreadStreamStopsOnAuthFailure(t *testing.T) {
	env := newTestEnv(t)
	env.inbox.unreadErr = apperr.Unauthenticated("expired")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/inbox/unread-count/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	assert.Contains(t, lines, "event:error")
}

func TestGuest_StartThreadSetsSealedCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/guest/messages",
		`{"content":"Is this available?","recipient_user_id":"seller","name":"Ann","email":"ann@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "c9", body["conversation_id"])
	assert.NotContains(t, body, "guest_access_token")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, guestCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, "guest-token-1")

	cookie := guestCookieName + "=" + cookies[0].Value
	rec = env.do(http.MethodGet, "/api/v1/guest/conversation", "", map[string]string{"Cookie": cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c9", decode(t, rec)["conversation_id"])

	rec = env.do(http.MethodPost, "/api/v1/guest/messages", `{"content":"Still there?"}`, map[string]string{"Cookie": cookie})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"guest-token-1", "guest-token-1"}, env.inbox.guestTokens)
}

func TestGuest_RecipientOutsideTokenThreadStartsNewThread(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/guest/messages",
		`{"content":"hi A","recipient_user_id":"seller","name":"Ann","email":"ann@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := rec.Result().Cookies()
	require.Len(t, first, 1)
	cookie := map[string]string{"Cookie": guestCookieName + "=" + first[0].Value}

	rec = env.do(http.MethodPost, "/api/v1/guest/messages",
		`{"content":"hi B, new store","recipient_user_id":"sellerB","name":"Ann","email":"ann@example.com"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "c10", body["conversation_id"])
	assert.Equal(t, "c10", body["message"].(map[string]any)["conversation_id"])
	assert.Equal(t, []string{"seller", "sellerB"}, env.inbox.started)
	assert.Equal(t, []string{"guest-token-1"}, env.inbox.guestTokens, "token only used to look up its thread")

	second := rec.Result().Cookies()
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].Value, second[0].Value)
	token, err := env.sealer.Open(second[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "guest-token-2", token)
}

func TestGuest_RecipientInTokenThreadReplies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/guest/messages",
		`{"content":"me again","recipient_user_id":"seller","name":"Ann","email":"ann@example.com"}`,
		map[string]string{guestTokenHeader: "guest-token-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c9", decode(t, rec)["conversation_id"])
	assert.Empty(t, env.inbox.started)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, []string{"guest-token-1", "guest-token-1"}, env.inbox.guestTokens)
}

func TestGuest_HeaderTokenAndTamperedCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/guest/conversation", "", map[string]string{guestTokenHeader: "guest-token-1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/guest/conversation", "", map[string]string{"Cookie": guestCookieName + "=garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/guest/conversation", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuest_MissingIdentityIsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/guest/messages", `{"content":"hi","recipient_user_id":"seller"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuest_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) { e.limiter = NewClientLimiter(0.001, 1) })

	first := env.do(http.MethodGet, "/api/v1/guest/conversation", "", map[string]string{guestTokenHeader: "guest-token-1"})
	assert.Equal(t, http.StatusOK, first.Code)
	second := env.do(http.MethodGet, "/api/v1/guest/conversation", "", map[string]string{guestTokenHeader: "guest-token-1"})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestOrders_ListAndSummary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/orders?status=paid&page=1", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = env.do(http.MethodGet, "/api/v1/orders?days=soon", "", bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/orders/summary", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	kpis := decode(t, rec)["kpis"].(map[string]any)
	assert.EqualValues(t, 1, kpis["total_orders"])
}

func TestOrders_Refund(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/api/v1/orders/o1/refund", `{"amount":"25.00","reason":"damaged"}`, bearer)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "re_1", body["refund_id"])
	})

	t.Run("backend status passes through", func(t *testing.T) {
		tests := []struct {
			amount string
			status string
			cents  float64
		}{
			{amount: "100.00", status: "refunded", cents: 10000},
			{amount: "40.00", status: "partially_refunded", cents: 4000},
		}
		for _, tc := range tests {
			env := newTestEnv(t)
			rec := env.do(http.MethodPost, "/api/v1/orders/o1/refund", `{"amount":"`+tc.amount+`"}`, bearer)
			require.Equal(t, http.StatusOK, rec.Code, tc.amount)
			body := decode(t, rec)
			assert.Equal(t, tc.status, body["status"], tc.amount)
			order := body["order"].(map[string]any)
			assert.Equal(t, tc.status, order["status"], tc.amount)
			assert.Equal(t, tc.cents, order["refund_amount"].(map[string]any)["amount_cents"], tc.amount)
		}
	})

	t.Run("retry with idempotency key replays", func(t *testing.T) {
		env := newTestEnv(t)
		headers := map[string]string{"Authorization": bearer["Authorization"], "Idempotency-Key": "k1"}
		first := env.do(http.MethodPost, "/api/v1/orders/o1/refund", `{"amount":"25.00"}`, headers)
		require.Equal(t, http.StatusOK, first.Code)
		assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

		second := env.do(http.MethodPost, "/api/v1/orders/o1/refund", `{"amount":"25.00"}`, headers)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, decode(t, first), decode(t, second))
		assert.Equal(t, 1, env.orders.refunds)
	})

	t.Run("invalid amount", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/api/v1/orders/o1/refund", `{"amount":"250"}`, bearer)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec), "error")
	})

	t.Run("backend rejection is inline", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.refundErr = &apperr.RefundError{Status: 400, Message: "Charge already refunded"}
		rec := env.do(http.MethodPost, "/api/v1/orders/o1/refund", `{"amount":"25"}`, bearer)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, map[string]any{"refund_error": "Charge already refunded"}, decode(t, rec))
	})
}

func TestOrders_ExportUnavailable(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/orders/export", "", bearer)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStores_PageAndNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/stores/shop", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "shop", body["store"].(map[string]any)["slug"])
	assert.Len(t, body["items"], 1)

	rec = env.do(http.MethodGet, "/api/v1/stores/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Store not found", decode(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/v1/stores/shop/view", "", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCheckout_CreateValidates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/checkout", `{"item_id":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/checkout", `{"item_id":"i1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cs_1", decode(t, rec)["session_id"])

	rec = env.do(http.MethodGet, "/api/v1/checkout/verify", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccount_ConfigAndNotifications(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["api_configured"])
	assert.Equal(t, true, body["payments_key_missing"])

	rec = env.do(http.MethodGet, "/api/v1/notifications", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["unread"])

	rec = env.do(http.MethodPost, "/api/v1/notifications/n1/read", "", bearer)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/me/sync", `{"email":"Ann@Example.com"}`, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann@example.com", decode(t, rec)["email"])
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", extractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", extractBearerToken("bearer  abc "))
	assert.Empty(t, extractBearerToken("Basic abc"))
	assert.Empty(t, extractBearerToken(""))
}
