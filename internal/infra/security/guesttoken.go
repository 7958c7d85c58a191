package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrSecretRequired = errors.New("security: guest cookie secret is required")
	ErrInvalidSeal    = errors.New("security: sealed guest token is invalid")
)

// GuestSealer encrypts guest access tokens before they are stored in a browser cookie.
type GuestSealer struct {
	key [32]byte
}

func NewGuestSealer(secret string) (*GuestSealer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	return &GuestSealer{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal returns a URL-safe value holding token.
func (s *GuestSealer) Seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Tampered or foreign values fail with ErrInvalidSeal.
func (s *GuestSealer) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSeal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrInvalidSeal
	}
	return string(plain), nil
}
