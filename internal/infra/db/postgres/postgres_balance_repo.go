package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// Ensure balanceRepo implements repository.BalanceRepository
var _ repository.BalanceRepository = (*balanceRepo)(nil)

type balanceRepo struct {
	pool *pgxpool.Pool
}

func NewBalanceRepo(pool *pgxpool.Pool) *balanceRepo {
	return &balanceRepo{pool: pool}
}

func (r *balanceRepo) Find(ctx context.Context, tx repository.Tx, merchantID, currency string) (*model.Balance, error) {
	const q = `
SELECT merchant_id, currency, amount, updated_at
  FROM balances
 WHERE merchant_id=$1 AND currency=$2;`

	row, err := pickRow(ctx, r.pool, tx, q, merchantID, currency)
	if err != nil {
		return nil, err
	}

	b := &model.Balance{}
	if err := row.Scan(&b.MerchantID, &b.Currency, &b.Amount, &b.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}

// Debit relies on the WHERE clause to refuse overdrafts: zero rows affected
// means either a missing row or an amount below the debit, both of which read
// as insufficient balance to the caller.
func (r *balanceRepo) Debit(ctx context.Context, tx repository.Tx, merchantID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidArgument
	}
	const q = `
UPDATE balances
   SET amount = amount - $3, updated_at = now()
 WHERE merchant_id=$1 AND currency=$2 AND amount >= $3;`

	tag, err := execSQL(ctx, r.pool, tx, q, merchantID, currency, amount)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (r *balanceRepo) Credit(ctx context.Context, tx repository.Tx, merchantID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO balances (merchant_id, currency, amount, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (merchant_id, currency) DO UPDATE
   SET amount = balances.amount + EXCLUDED.amount, updated_at = now();`

	if _, err := execSQL(ctx, r.pool, tx, q, merchantID, currency, amount); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
