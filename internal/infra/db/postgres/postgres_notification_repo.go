package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// Ensure notificationRepo implements repository.NotificationRepository
var _ repository.NotificationRepository = (*notificationRepo)(nil)

type notificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *notificationRepo {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) Enqueue(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if n.Payload == nil {
		return domain.ErrInvalidArgument
	}
	body, err := json.Marshal(n.Payload)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO notifications (id, merchant_id, kind, payload, created_at, sent_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	if _, err := execSQL(ctx, r.pool, tx, q, n.ID, n.MerchantID, n.Payload.Kind(), body, n.CreatedAt, n.SentAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *notificationRepo) ListUnsent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Notification, error) {
	const q = `
SELECT id, merchant_id, kind, payload, created_at, sent_at
  FROM notifications
 WHERE sent_at IS NULL
 ORDER BY created_at
 LIMIT $1;`

	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		var kind string
		var body []byte
		if err := rows.Scan(&n.ID, &n.MerchantID, &kind, &body, &n.CreatedAt, &n.SentAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		payload, err := decodePayload(model.NotificationKind(kind), body)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		n.Payload = payload
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *notificationRepo) MarkSent(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE notifications SET sent_at=now() WHERE id=$1 AND sent_at IS NULL;`

	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func decodePayload(kind model.NotificationKind, body []byte) (model.NotificationPayload, error) {
	switch kind {
	case model.NotificationSubscriptionSuspended:
		var p model.SuspendedPayload
		return p, json.Unmarshal(body, &p)
	case model.NotificationSubscriptionReactivated:
		var p model.ReactivatedPayload
		return p, json.Unmarshal(body, &p)
	case model.NotificationPaymentRequestVerified:
		var p model.PaymentVerifiedPayload
		return p, json.Unmarshal(body, &p)
	case model.NotificationPaymentRequestRejected:
		var p model.PaymentRejectedPayload
		return p, json.Unmarshal(body, &p)
	default:
		return nil, domain.ErrInvalidArgument
	}
}
