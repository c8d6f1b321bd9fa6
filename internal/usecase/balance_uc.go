// File: internal/usecase/balance_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// BalanceUseCase fronts the deposit ledger. Mutations always run under the
// transaction of the event they account for: an order completion debit or a
// verified top-up credit. The auto-switch engine only ever reads the balance.
type BalanceUseCase struct {
	balances repository.BalanceRepository
	tm       repository.TransactionManager
	autosw   *AutoSwitchUseCase
	currency string
	log      *zerolog.Logger
}

func NewBalanceUseCase(balances repository.BalanceRepository, tm repository.TransactionManager, autosw *AutoSwitchUseCase, currency string, logger *zerolog.Logger) *BalanceUseCase {
	l := logger.With().Str("component", "BalanceUC").Logger()
	return &BalanceUseCase{balances: balances, tm: tm, autosw: autosw, currency: currency, log: &l}
}

// Get returns the merchant's balance, zero-valued when no row exists yet.
func (uc *BalanceUseCase) Get(ctx context.Context, merchantID string) (*model.Balance, error) {
	bal, err := uc.balances.Find(ctx, repository.NoTX, merchantID, uc.currency)
	if errors.Is(err, domain.ErrNotFound) {
		return &model.Balance{MerchantID: merchantID, Currency: uc.currency, Amount: decimal.Zero}, nil
	}
	return bal, err
}

// Debit charges the balance inside the caller's transaction. The repository
// rejects any debit that would take the persisted amount below zero.
func (uc *BalanceUseCase) Debit(ctx context.Context, tx repository.Tx, merchantID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidArgument
	}
	return uc.balances.Debit(ctx, tx, merchantID, uc.currency, amount)
}

// Credit adds to the balance inside the caller's transaction. Used only from
// a verified payment request.
func (uc *BalanceUseCase) Credit(ctx context.Context, tx repository.Tx, merchantID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidArgument
	}
	return uc.balances.Credit(ctx, tx, merchantID, uc.currency, amount)
}

// ChargeOrder debits the per-order fee when an order completes, then lets the
// auto-switch engine react to a depleted balance without blocking the caller.
func (uc *BalanceUseCase) ChargeOrder(ctx context.Context, merchantID string, amount decimal.Decimal, now time.Time) error {
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return uc.Debit(ctx, tx, merchantID, amount)
	})
	if err != nil {
		return err
	}
	uc.autosw.Check(ctx, merchantID, now)
	return nil
}
