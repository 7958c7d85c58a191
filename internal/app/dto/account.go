package dto

import (
	appstorefront "storefront/internal/app/storefront"
	"storefront/internal/domain/payments"
	"storefront/internal/domain/user"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type PublicConfig struct {
	APIConfigured      bool   `json:"api_configured"`
	PaymentsKey        string `json:"payments_key,omitempty"`
	PaymentsKeyMissing bool   `json:"payments_key_missing"`
}

type VerificationResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status,omitempty"`
}

type AccountSessionResponse struct {
	ClientSecret string `json:"client_secret"`
}

func MapUser(u user.User) User {
	return User{ID: string(u.ID), Email: u.Email, Name: u.Name}
}

func MapPublicConfig(cfg appstorefront.PublicConfig) PublicConfig {
	return PublicConfig{
		APIConfigured:      cfg.APIConfigured,
		PaymentsKey:        cfg.PaymentsKey,
		PaymentsKeyMissing: cfg.PaymentsKeyMissing,
	}
}

func MapVerification(v payments.Verification) VerificationResponse {
	return VerificationResponse{Success: v.Success, OrderID: v.OrderID, Status: v.Status}
}

func MapCheckout(s payments.CheckoutSession) CheckoutResponse {
	return CheckoutResponse{SessionID: s.SessionID, URL: s.URL}
}
