package dto

import "storefront/internal/domain/shared/money"

type MoneyDTO struct {
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Display     string  `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		AmountCents: value.Amount,
		Amount:      value.Major(),
		Currency:    value.Currency,
		Display:     value.String(),
	}
}

func mapMoneyPtr(value *money.Money) *MoneyDTO {
	if value == nil {
		return nil
	}
	out := MapMoney(*value)
	return &out
}
