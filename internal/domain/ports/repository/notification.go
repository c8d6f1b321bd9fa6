package repository

import (
	"context"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// NotificationRepository is the outbox port. Enqueue runs inside the
// transition's transaction so exactly one row exists per applied transition.
type NotificationRepository interface {
	Enqueue(ctx context.Context, tx Tx, n *model.Notification) error
	ListUnsent(ctx context.Context, tx Tx, limit int) ([]*model.Notification, error)
	MarkSent(ctx context.Context, tx Tx, id string) error
}
