package repository

import (
	"context"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// SubscriptionHistoryRepository appends to the immutable transition trail.
type SubscriptionHistoryRepository interface {
	Append(ctx context.Context, tx Tx, h *model.SubscriptionHistory) error
	ListByMerchant(ctx context.Context, tx Tx, merchantID string, limit int) ([]*model.SubscriptionHistory, error)
}
