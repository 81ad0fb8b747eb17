package dto

import (
	"programhub/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted,omitempty"`
}

// MapMoney renders m with formatter when one is supplied.
func MapMoney(m money.Money, formatter money.Formatter, locale string) MoneyDTO {
	out := MoneyDTO{Amount: m.Amount, Currency: m.Currency}
	if formatter != nil {
		out.Formatted = formatter.Format(m, locale)
	}
	return out
}
