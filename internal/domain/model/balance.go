package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance holds a merchant's prepaid deposit balance for one currency.
// Amounts are decimals to avoid float drift; the repository enforces that a
// debit never takes the persisted amount below zero.
type Balance struct {
	MerchantID string
	Currency   string // ISO-ish code, e.g. "IDR"
	Amount     decimal.Decimal
	UpdatedAt  time.Time
}

func (b *Balance) Positive() bool {
	return b.Amount.IsPositive()
}
