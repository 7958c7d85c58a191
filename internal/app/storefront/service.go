// Package storefront covers the catalog, checkout, notification and account calls that
// carry no derivation logic of their own.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/app/activity"
	"storefront/internal/domain/catalog"
	"storefront/internal/domain/notifications"
	"storefront/internal/domain/payments"
	"storefront/internal/domain/shared/apperr"
	"storefront/internal/domain/user"
)

var ErrGatewayMissing = errors.New("storefront: gateway not configured")

type Gateway interface {
	Configured() bool
	ListStores(ctx context.Context) ([]catalog.Store, error)
	GetStore(ctx context.Context, slug string) (catalog.Store, error)
	StoreItems(ctx context.Context, slug string) ([]catalog.Item, error)
	RecordStoreView(ctx context.Context, credential, slug string) error
	CreateCheckout(ctx context.Context, credential string, in payments.CheckoutInput) (payments.CheckoutSession, error)
	VerifySession(ctx context.Context, sessionID string) (payments.Verification, error)
	SyncPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
	ListNotifications(ctx context.Context, credential string) ([]notifications.Notification, error)
	UnreadNotifications(ctx context.Context, credential string) (int, error)
	MarkNotificationRead(ctx context.Context, credential, id string) error
	MarkAllNotificationsRead(ctx context.Context, credential string) error
	SyncUser(ctx context.Context, credential string, in user.SyncInput) (user.User, error)
	ConnectAccountSession(ctx context.Context, credential string) (payments.AccountSession, error)
	ConnectStatus(ctx context.Context, credential string) (payments.ConnectStatus, error)
}

type Service struct {
	Gateway     Gateway
	PaymentsKey string
	Activity    *activity.Recorder
	Logger      *slog.Logger
	Now         func() time.Time
}

// PublicConfig is what a browser needs to bootstrap. Missing values degrade features
// instead of failing startup.
type PublicConfig struct {
	APIConfigured      bool
	PaymentsKey        string
	PaymentsKeyMissing bool
}

func (s *Service) PublicConfig() PublicConfig {
	key := strings.TrimSpace(s.PaymentsKey)
	return PublicConfig{
		APIConfigured:      s.Gateway != nil && s.Gateway.Configured(),
		PaymentsKey:        key,
		PaymentsKeyMissing: key == "",
	}
}

func (s *Service) Stores(ctx context.Context) ([]catalog.Store, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Gateway.ListStores(ctx)
}

func (s *Service) Store(ctx context.Context, slug string) (catalog.Store, error) {
	if err := s.ready(); err != nil {
		return catalog.Store{}, err
	}
	slug, err := requireSlug(slug)
	if err != nil {
		return catalog.Store{}, err
	}
	return s.Gateway.GetStore(ctx, slug)
}

// StoreItems returns the catalog with every item's images in position order.
func (s *Service) StoreItems(ctx context.Context, slug string) ([]catalog.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	slug, err := requireSlug(slug)
	if err != nil {
		return nil, err
	}
	items, err := s.Gateway.StoreItems(ctx, slug)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Images = items[i].OrderedImages()
	}
	return items, nil
}

// RecordView is best effort: failures are logged and swallowed.
func (s *Service) RecordView(ctx context.Context, credential, slug string) {
	if s.ready() != nil {
		return
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return
	}
	if err := s.Gateway.RecordStoreView(ctx, credential, slug); err != nil {
		s.logWarn("record store view failed", "slug", slug, "error", err)
		return
	}
	s.Activity.Record(ctx, catalog.StoreViewedEvent{Slug: slug, At: s.now()})
}

func (s *Service) Checkout(ctx context.Context, credential string, in payments.CheckoutInput) (payments.CheckoutSession, error) {
	if err := s.ready(); err != nil {
		return payments.CheckoutSession{}, err
	}
	normalized, err := in.Normalize()
	if err != nil {
		return payments.CheckoutSession{}, apperr.Invalid("item_id", err.Error())
	}
	return s.Gateway.CreateCheckout(ctx, credential, normalized)
}

func (s *Service) VerifySession(ctx context.Context, sessionID string) (payments.Verification, error) {
	if err := s.ready(); err != nil {
		return payments.Verification{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return payments.Verification{}, apperr.Invalid("session_id", "session id is required")
	}
	return s.Gateway.VerifySession(ctx, sessionID)
}

func (s *Service) SyncPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return "", apperr.Invalid("payment_intent_id", "payment intent id is required")
	}
	return s.Gateway.SyncPaymentIntent(ctx, paymentIntentID)
}

func (s *Service) Notifications(ctx context.Context, credential string) ([]notifications.Notification, error) {
	if err := s.authed(credential); err != nil {
		return nil, err
	}
	return s.Gateway.ListNotifications(ctx, credential)
}

func (s *Service) NotificationUnreadCount(ctx context.Context, credential string) (int, error) {
	if err := s.authed(credential); err != nil {
		return 0, err
	}
	return s.Gateway.UnreadNotifications(ctx, credential)
}

func (s *Service) MarkNotificationRead(ctx context.Context, credential, id string) error {
	if err := s.authed(credential); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Invalid("notification_id", "notification id is required")
	}
	return s.Gateway.MarkNotificationRead(ctx, credential, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, credential string) error {
	if err := s.authed(credential); err != nil {
		return err
	}
	return s.Gateway.MarkAllNotificationsRead(ctx, credential)
}

func (s *Service) SyncUser(ctx context.Context, credential string, in user.SyncInput) (user.User, error) {
	if err := s.authed(credential); err != nil {
		return user.User{}, err
	}
	normalized, err := in.Normalize()
	if err != nil {
		return user.User{}, apperr.Invalid("email", err.Error())
	}
	return s.Gateway.SyncUser(ctx, credential, normalized)
}

func (s *Service) ConnectAccountSession(ctx context.Context, credential string) (payments.AccountSession, error) {
	if err := s.authed(credential); err != nil {
		return payments.AccountSession{}, err
	}
	return s.Gateway.ConnectAccountSession(ctx, credential)
}

func (s *Service) ConnectStatus(ctx context.Context, credential string) (payments.ConnectStatus, error) {
	if err := s.authed(credential); err != nil {
		return payments.ConnectStatus{}, err
	}
	return s.Gateway.ConnectStatus(ctx, credential)
}

func (s *Service) ready() error {
	if s == nil || s.Gateway == nil {
		return ErrGatewayMissing
	}
	return nil
}

func (s *Service) authed(credential string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(credential) == "" {
		return apperr.Unauthenticated("credential missing")
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

func requireSlug(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", apperr.Invalid("slug", "store slug is required")
	}
	return slug, nil
}
