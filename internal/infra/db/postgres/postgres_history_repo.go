package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// Ensure historyRepo implements repository.SubscriptionHistoryRepository
var _ repository.SubscriptionHistoryRepository = (*historyRepo)(nil)

type historyRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *historyRepo {
	return &historyRepo{pool: pool}
}

func (r *historyRepo) Append(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error {
	const q = `
INSERT INTO subscription_history (
  id, merchant_id, old_type, old_status, new_type, new_status, reason, actor, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	if _, err := execSQL(ctx, r.pool, tx, q, h.ID, h.MerchantID, h.OldType, h.OldStatus, h.NewType, h.NewStatus, h.Reason, h.Actor, h.CreatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *historyRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.SubscriptionHistory, error) {
	const q = `
SELECT id, merchant_id, old_type, old_status, new_type, new_status, reason, actor, created_at
  FROM subscription_history
 WHERE merchant_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, merchantID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SubscriptionHistory
	for rows.Next() {
		h := &model.SubscriptionHistory{}
		var oldType, oldStatus, newType, newStatus, actor string
		var reason *string
		if err := rows.Scan(&h.ID, &h.MerchantID, &oldType, &oldStatus, &newType, &newStatus, &reason, &actor, &h.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		h.OldType = model.SubscriptionType(oldType)
		h.OldStatus = model.SubscriptionStatus(oldStatus)
		h.NewType = model.SubscriptionType(newType)
		h.NewStatus = model.SubscriptionStatus(newStatus)
		h.Actor = model.HistoryActor(actor)
		if reason != nil {
			sr := model.SuspendReason(*reason)
			h.Reason = &sr
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
