package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"storefront/internal/app/activity"
	appinbox "storefront/internal/app/inbox"
	apporders "storefront/internal/app/orders"
	appstorefront "storefront/internal/app/storefront"
	"storefront/internal/infra/api"
	"storefront/internal/infra/broker/kafka"
	"storefront/internal/infra/config"
	mongoinfra "storefront/internal/infra/db/mongo"
	ginserver "storefront/internal/infra/http/gin"
	"storefront/internal/infra/obs"
	"storefront/internal/infra/outbox"
	"storefront/internal/infra/security"
	"storefront/internal/infra/storage/memory"
	"storefront/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("running with degraded configuration", "missing", missing)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := buildApplication(cfg, logger, reg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: obs.NewHTTPMetrics(reg)}, obs.HealthHandlers{
		Ready: app.ready,
	}, reg, app.handlers)

	go func() {
		if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("activity relay stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "api_configured", cfg.APIBaseURL != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// ensureIndexes is not fatal: the stores work without indexes, but the refund ledger and
// relayed events then never expire.
func ensureIndexes(logger *slog.Logger, steps map[string]func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for name, ensure := range steps {
		if err := ensure(ctx); err != nil {
			logger.Warn("mongo index setup failed; documents will not expire", "collection", name, "error", err)
		}
	}
}

type application struct {
	handlers ginserver.Handlers
	worker   *outbox.Worker
	mongo    *mongoinfra.Client
	producer *kafka.Producer
}

func buildApplication(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*application, error) {
	app := &application{}

	var (
		box    activity.Outbox
		source outbox.Source
		ledger apporders.RefundLedger
	)
	if cfg.OutboxPersistent() {
		client, err := mongoinfra.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		app.mongo = client
		store := outbox.NewStore(client.DB)
		refunds := mongoinfra.NewRefundLedger(client.DB)
		ensureIndexes(logger, map[string]func(context.Context) error{
			"outbox":        store.EnsureIndexes,
			"refund_ledger": refunds.EnsureIndexes,
		})
		box, source, ledger = store, store, refunds
		logger.Info("activity outbox ready", "backend", "mongo", "db", cfg.MongoDB)
	} else {
		store := outbox.NewMemoryStore()
		box, source = store, store
		ledger = memory.NewRefundLedger()
		logger.Info("activity outbox ready", "backend", "memory")
	}

	var producer outbox.Producer = outbox.LogProducer{Logger: logger}
	if cfg.KafkaEnabled() {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, "storefront")
		if err != nil {
			app.close(logger)
			return nil, err
		}
		app.producer = p
		producer = p
		logger.Info("activity relay publishing to kafka", "brokers", cfg.KafkaBrokers)
	}
	app.worker = &outbox.Worker{
		Store:       source,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	recorder := &activity.Recorder{Box: box, Encoder: activity.JSONEventEncoder{}, Logger: logger}
	gateway := api.NewClient(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, logger, api.NewMetrics(reg))

	inboxSvc := &appinbox.Service{Gateway: gateway, Activity: recorder, Logger: logger}
	ordersSvc := &apporders.Service{Gateway: gateway, Ledger: ledger, Activity: recorder, Logger: logger}
	storeSvc := &appstorefront.Service{Gateway: gateway, PaymentsKey: cfg.PaymentsKey, Activity: recorder, Logger: logger}

	if cfg.ExportsEnabled() {
		exporter, err := s3.NewExporter(s3.Options{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			UseSSL:         cfg.S3UseSSL,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			Logger:         logger,
		})
		if err != nil {
			logger.Warn("order exports disabled", "error", err)
		} else {
			ordersSvc.Exporter = exporter
		}
	}

	var sealer *security.GuestSealer
	if cfg.GuestCookieSecret != "" {
		s, err := security.NewGuestSealer(cfg.GuestCookieSecret)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		sealer = s
	}

	app.handlers = ginserver.Handlers{
		Inbox:        ginserver.InboxHandler{Service: inboxSvc, PollInterval: cfg.UnreadPollInterval, Logger: logger},
		Guest:        ginserver.GuestHandler{Service: inboxSvc, Sealer: sealer, SecureCookie: cfg.Env == "prod", Logger: logger},
		GuestLimiter: ginserver.NewClientLimiter(cfg.GuestRateRPS, cfg.GuestRateBurst),
		Orders:       ginserver.OrdersHandler{Service: ordersSvc, Logger: logger},
		Stores:       ginserver.StoreHandler{Service: storeSvc, Logger: logger},
		Checkout:     ginserver.CheckoutHandler{Service: storeSvc, Logger: logger},
		Account:      ginserver.AccountHandler{Service: storeSvc, Logger: logger},
	}
	return app, nil
}

// ready fails only on infrastructure the process owns. A missing upstream URL degrades
// features and is reported by /api/v1/config instead.
func (a *application) ready() error {
	if a.mongo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.mongo.Ping(ctx)
}

func (a *application) close(logger *slog.Logger) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Close(ctx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}
}
