package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, merchant_id, type, status, trial_ends_at, current_period_end, suspend_reason, in_grace_period, grace_ends_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, merchant_id, type, status, trial_ends_at, current_period_end, suspend_reason, in_grace_period, grace_ends_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (merchant_id) DO UPDATE SET
  type=$3, status=$4, trial_ends_at=$5, current_period_end=$6, suspend_reason=$7, in_grace_period=$8, grace_ends_at=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.MerchantID, s.Type, s.Status, s.TrialEndsAt, s.CurrentPeriodEnd, s.SuspendReason, s.InGracePeriod, s.GraceEndsAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *subscriptionRepo) FindByMerchant(ctx context.Context, tx repository.Tx, merchantID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE merchant_id=$1;`
	return r.queryOne(ctx, tx, q, merchantID)
}

func (r *subscriptionRepo) FindByMerchantForUpdate(ctx context.Context, tx repository.Tx, merchantID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE merchant_id=$1
 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, merchantID)
}

// UpdateStateGuarded writes the transition fields only when the row still
// matches the state the decision was computed from. A stale decision matches
// zero rows and reports changed=false rather than clobbering a newer state.
func (r *subscriptionRepo) UpdateStateGuarded(ctx context.Context, tx repository.Tx, s *model.Subscription, prevStatus model.SubscriptionStatus, prevType model.SubscriptionType, prevInGrace bool) (bool, error) {
	const q = `
UPDATE subscriptions
   SET type=$1, status=$2, trial_ends_at=$3, current_period_end=$4, suspend_reason=$5, in_grace_period=$6, grace_ends_at=$7, updated_at=$8
 WHERE merchant_id=$9 AND status=$10 AND type=$11 AND in_grace_period=$12;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		s.Type, s.Status, s.TrialEndsAt, s.CurrentPeriodEnd, s.SuspendReason, s.InGracePeriod, s.GraceEndsAt, s.UpdatedAt,
		s.MerchantID, prevStatus, prevType, prevInGrace)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return false, err
		default:
			return false, domain.ErrOperationFailed
		}
	}
	return tag.RowsAffected() == 1, nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}

	s := &model.Subscription{}
	var typ, status string
	var reason *string
	if err := row.Scan(&s.ID, &s.MerchantID, &typ, &status, &s.TrialEndsAt, &s.CurrentPeriodEnd, &reason, &s.InGracePeriod, &s.GraceEndsAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Type = model.SubscriptionType(typ)
	s.Status = model.SubscriptionStatus(status)
	if reason != nil {
		r := model.SuspendReason(*reason)
		s.SuspendReason = &r
	}
	return s, nil
}
