package repository

import (
	"context"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// SubscriptionRepository is the port for merchant billing subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByMerchant(ctx context.Context, tx Tx, merchantID string) (*model.Subscription, error)

	// FindByMerchantForUpdate locks the row for the rest of the transaction.
	// It is the entry point of every decide+apply sequence.
	FindByMerchantForUpdate(ctx context.Context, tx Tx, merchantID string) (*model.Subscription, error)

	// UpdateStateGuarded writes the transition fields only if the persisted
	// row still carries the expected prior status/type/grace flag. It returns
	// false when no row matched, i.e. a concurrent applier already won.
	UpdateStateGuarded(ctx context.Context, tx Tx, s *model.Subscription, prevStatus model.SubscriptionStatus, prevType model.SubscriptionType, prevInGrace bool) (bool, error)

	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
