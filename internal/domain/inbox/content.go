package inbox

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/shared/apperr"
)

// ValidateContent trims the message and enforces the non-empty and length rules.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperr.Invalid("content", "message must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", apperr.Invalid("content", fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}
	return trimmed, nil
}

// ValidateGuest requires both guest contact fields.
func ValidateGuest(g Guest) (Guest, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Email = strings.TrimSpace(g.Email)
	if g.Name == "" {
		return Guest{}, apperr.Invalid("guest.name", "name is required")
	}
	if g.Email == "" || !strings.Contains(g.Email, "@") {
		return Guest{}, apperr.Invalid("guest.email", "a valid email is required")
	}
	return g, nil
}
