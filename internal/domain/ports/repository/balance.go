package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// BalanceRepository is the port for merchant deposit balances.
type BalanceRepository interface {
	Find(ctx context.Context, tx Tx, merchantID, currency string) (*model.Balance, error)

	// Debit subtracts amount, failing with domain.ErrInsufficientBalance when
	// the result would go below zero. The check happens in the UPDATE itself,
	// never as a post-write correction.
	Debit(ctx context.Context, tx Tx, merchantID, currency string, amount decimal.Decimal) error

	// Credit adds amount unconditionally, creating the row if missing.
	Credit(ctx context.Context, tx Tx, merchantID, currency string, amount decimal.Decimal) error
}
