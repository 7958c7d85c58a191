package api

import (
	"context"
	"net/http"

	"storefront/internal/domain/user"
)

// SyncUser upserts the signed-in identity into the backend user table.
func (c *Client) SyncUser(ctx context.Context, credential string, in user.SyncInput) (user.User, error) {
	var out struct {
		User userWire `json:"user"`
	}
	if err := c.do(ctx, request{
		endpoint:   "users.sync",
		method:     http.MethodPost,
		path:       "/users/sync",
		body:       map[string]string{"email": in.Email, "name": in.Name},
		credential: credential,
		auth:       true,
	}, &out); err != nil {
		return user.User{}, err
	}
	return user.User{ID: user.UserID(out.User.ID), Email: out.User.Email, Name: out.User.Name}, nil
}
