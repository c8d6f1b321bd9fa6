package repository

import (
	"context"
	"time"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// MerchantRepository is the port for the slice of the merchant profile the
// billing engine touches.
type MerchantRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Merchant) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Merchant, error)

	// SetOpen forces the storefront flag. Auto-switch callers must skip
	// merchants with ManualOverride set; this method does not re-check it.
	SetOpen(ctx context.Context, tx Tx, id string, open bool, now time.Time) error

	// ListBillableIDs returns ids of merchants whose subscription status is
	// not cancelled and whose profile is not soft-deleted, for the sweep.
	ListBillableIDs(ctx context.Context, tx Tx) ([]string, error)

	// PurgeDeleted permanently removes merchants soft-deleted before the
	// cutoff, returning the number of rows deleted.
	PurgeDeleted(ctx context.Context, tx Tx, before time.Time) (int64, error)
}

// CatalogRepository covers the retention sweep over soft-deleted catalog rows
// (menu items and their addons). The rest of catalog CRUD lives outside the
// billing engine.
type CatalogRepository interface {
	PurgeDeleted(ctx context.Context, tx Tx, before time.Time) (int64, error)
}
