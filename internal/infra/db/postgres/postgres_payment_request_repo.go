package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// Ensure paymentRequestRepo implements repository.PaymentRequestRepository
var _ repository.PaymentRequestRepository = (*paymentRequestRepo)(nil)

type paymentRequestRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRequestRepo(pool *pgxpool.Pool) *paymentRequestRepo {
	return &paymentRequestRepo{pool: pool}
}

const paymentRequestColumns = `id, merchant_id, type, status, amount, currency, months_requested, reject_reason, expires_at, confirmed_at, resolved_at, created_at, updated_at`

func (r *paymentRequestRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRequest) error {
	const q = `
INSERT INTO payment_requests (
  id, merchant_id, type, status, amount, currency, months_requested, reject_reason, expires_at, confirmed_at, resolved_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  status=$4, reject_reason=$8, confirmed_at=$10, resolved_at=$11, updated_at=$13;`

	if _, err := execSQL(ctx, r.pool, tx, q, p.ID, p.MerchantID, p.Type, p.Status, p.Amount, p.Currency, p.MonthsRequested, p.RejectReason, p.ExpiresAt, p.ConfirmedAt, p.ResolvedAt, p.CreatedAt, p.UpdatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRequest, error) {
	const q = `SELECT ` + paymentRequestColumns + ` FROM payment_requests WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *paymentRequestRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRequest, error) {
	const q = `SELECT ` + paymentRequestColumns + ` FROM payment_requests WHERE id=$1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *paymentRequestRepo) FindOpenByMerchant(ctx context.Context, tx repository.Tx, merchantID string) (*model.PaymentRequest, error) {
	const q = `
SELECT ` + paymentRequestColumns + `
  FROM payment_requests
 WHERE merchant_id=$1 AND status IN ('pending','confirmed')
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, merchantID)
}

func (r *paymentRequestRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.PaymentRequest, error) {
	const q = `
SELECT ` + paymentRequestColumns + `
  FROM payment_requests
 WHERE merchant_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, merchantID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentRequest
	for rows.Next() {
		p, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *paymentRequestRepo) ExpireStalePending(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE payment_requests
   SET status='expired', resolved_at=$1, updated_at=$1
 WHERE status='pending' AND expires_at < $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}

func (r *paymentRequestRepo) PurgeTerminal(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	const q = `
DELETE FROM payment_requests
 WHERE status IN ('rejected','cancelled','expired') AND resolved_at < $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, before)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}

func (r *paymentRequestRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.PaymentRequest, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPaymentRequest(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func scanPaymentRequest(row pgx.Row) (*model.PaymentRequest, error) {
	p := &model.PaymentRequest{}
	var typ, status string
	if err := row.Scan(&p.ID, &p.MerchantID, &typ, &status, &p.Amount, &p.Currency, &p.MonthsRequested, &p.RejectReason, &p.ExpiresAt, &p.ConfirmedAt, &p.ResolvedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Type = model.PaymentRequestType(typ)
	p.Status = model.PaymentRequestStatus(status)
	return p, nil
}
