package repository

import (
	"context"
	"time"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// PaymentRequestRepository is the port for the bank-transfer workflow rows.
type PaymentRequestRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentRequest, error)
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.PaymentRequest, error)
	FindOpenByMerchant(ctx context.Context, tx Tx, merchantID string) (*model.PaymentRequest, error)
	ListByMerchant(ctx context.Context, tx Tx, merchantID string, limit int) ([]*model.PaymentRequest, error)

	// ExpireStalePending flips pending requests whose ExpiresAt has passed to
	// expired, returning how many rows changed.
	ExpireStalePending(ctx context.Context, tx Tx, now time.Time) (int64, error)

	// PurgeTerminal deletes terminal (rejected/cancelled/expired) requests
	// resolved before the cutoff.
	PurgeTerminal(ctx context.Context, tx Tx, before time.Time) (int64, error)
}
