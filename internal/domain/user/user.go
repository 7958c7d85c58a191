package user

import (
	"errors"
	"strings"
)

var ErrEmailRequired = errors.New("user: email is required")

type UserID string

// User is the backend record reconciled from the identity provider.
type User struct {
	ID    UserID
	Email string
	Name  string
}

// SyncInput carries the identity-provider profile pushed to POST /users/sync.
type SyncInput struct {
	Email string
	Name  string
}

func (in SyncInput) Normalize() (SyncInput, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" {
		return SyncInput{}, ErrEmailRequired
	}
	return in, nil
}
