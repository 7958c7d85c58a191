package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/infra/config"
	"storefront/internal/infra/obs"
)

type Handlers struct {
	Inbox        InboxHTTP
	Guest        GuestHTTP
	GuestLimiter *ClientLimiter
	Orders       OrdersHTTP
	Stores       StoreHTTP
	Checkout     CheckoutHTTP
	Account      AccountHTTP
}

// NewServer builds the BFF router. Groups whose handler is nil are not mounted.
func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, gatherer prometheus.Gatherer, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, gatherer, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, gatherer prometheus.Gatherer, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	if h.Account != nil {
		api.GET("/config", h.Account.Config)
		api.POST("/me/sync", h.Account.Sync)
		api.GET("/notifications", h.Account.Notifications)
		api.GET("/notifications/unread-count", h.Account.NotificationUnreadCount)
		api.POST("/notifications/:id/read", h.Account.MarkNotificationRead)
		api.POST("/notifications/read-all", h.Account.MarkAllNotificationsRead)
	}
	if h.Inbox != nil {
		inbox := api.Group("/inbox")
		inbox.GET("", h.Inbox.List)
		inbox.GET("/unread-count", h.Inbox.UnreadCount)
		inbox.GET("/unread-count/stream", h.Inbox.UnreadStream)
		inbox.POST("/read-all", h.Inbox.MarkAllRead)
		inbox.POST("/messages", h.Inbox.Send)
		inbox.GET("/:id", h.Inbox.Thread)
		inbox.POST("/:id/read", h.Inbox.MarkRead)
	}
	if h.Guest != nil {
		guest := api.Group("/guest", h.GuestLimiter.Middleware())
		guest.GET("/conversation", h.Guest.Conversation)
		guest.POST("/messages", h.Guest.Send)
	}
	if h.Orders != nil {
		orders := api.Group("/orders")
		orders.GET("", h.Orders.List)
		orders.GET("/summary", h.Orders.Summary)
		orders.POST("/export", h.Orders.Export)
		orders.POST("/:id/refund", h.Orders.Refund)
	}
	if h.Stores != nil {
		api.GET("/stores", h.Stores.List)
		api.GET("/stores/:slug", h.Stores.Page)
		api.POST("/stores/:slug/view", h.Stores.RecordView)
	}
	if h.Checkout != nil {
		api.POST("/checkout", h.Checkout.Create)
		api.GET("/checkout/verify", h.Checkout.Verify)
		api.POST("/checkout/sync", h.Checkout.SyncPaymentIntent)
		api.POST("/connect/account-session", h.Checkout.ConnectSession)
		api.GET("/connect/status", h.Checkout.ConnectStatus)
	}

	return router
}

// corsConfig allows credentials only for an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", guestTokenHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
