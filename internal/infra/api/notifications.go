package api

import (
	"context"
	"net/http"

	"storefront/internal/domain/notifications"
)

func (c *Client) ListNotifications(ctx context.Context, credential string) ([]notifications.Notification, error) {
	var out struct {
		Notifications []notificationWire `json:"notifications"`
	}
	if err := c.do(ctx, request{
		endpoint:   "notifications.list",
		method:     http.MethodGet,
		path:       "/notifications",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return nil, err
	}
	items := make([]notifications.Notification, 0, len(out.Notifications))
	for _, w := range out.Notifications {
		items = append(items, w.toDomain())
	}
	return items, nil
}

func (c *Client) UnreadNotifications(ctx context.Context, credential string) (int, error) {
	var out countWire
	if err := c.do(ctx, request{
		endpoint:   "notifications.unread_count",
		method:     http.MethodGet,
		path:       "/notifications/unread-count",
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, credential, id string) error {
	return c.do(ctx, request{
		endpoint:   "notifications.read",
		method:     http.MethodPost,
		path:       "/notifications/" + escape(id) + "/read",
		credential: credential,
		auth:       true,
	}, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, credential string) error {
	return c.do(ctx, request{
		endpoint:   "notifications.read_all",
		method:     http.MethodPost,
		path:       "/notifications/mark-all-read",
		credential: credential,
		auth:       true,
	}, nil)
}
