// Package apperr holds the error taxonomy shared by the inbox, orders and storefront flows.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is shown when the backend gives no usable message.
const GenericMessage = "request failed"

// ErrNotAuthenticated is wrapped by every AuthError.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthError reports a missing or rejected credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return ErrNotAuthenticated.Error()
	}
	return fmt.Sprintf("%s: %s", ErrNotAuthenticated.Error(), e.Reason)
}

func (e *AuthError) Unwrap() error { return ErrNotAuthenticated }

// NetworkError covers transport failures (Status 0) and non-2xx responses.
type NetworkError struct {
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = GenericMessage
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is raised before any network call when input is rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// RefundError carries the backend's refund failure message verbatim.
type RefundError struct {
	Status  int
	Message string
}

func (e *RefundError) Error() string {
	if e.Message == "" {
		return "refund failed"
	}
	return e.Message
}

// Invalid is shorthand for a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Unauthenticated is shorthand for an AuthError.
func Unauthenticated(reason string) error {
	return &AuthError{Reason: reason}
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

func IsRefund(err error) bool {
	var target *RefundError
	return errors.As(err, &target)
}

// Message returns the text a UI should display for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Message != "" {
			return netErr.Message
		}
		return GenericMessage
	}
	return err.Error()
}

// HTTPStatus maps the taxonomy onto a status code for the BFF transport.
func HTTPStatus(err error) int {
	var (
		authErr   *AuthError
		validErr  *ValidationError
		refundErr *RefundError
		netErr    *NetworkError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.As(err, &refundErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &netErr):
		if netErr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		if netErr.Status >= 400 && netErr.Status < 500 {
			return netErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
