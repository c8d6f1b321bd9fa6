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

// Ensure merchantRepo implements repository.MerchantRepository
var _ repository.MerchantRepository = (*merchantRepo)(nil)

type merchantRepo struct {
	pool *pgxpool.Pool
}

func NewMerchantRepo(pool *pgxpool.Pool) *merchantRepo {
	return &merchantRepo{pool: pool}
}

func (r *merchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	const q = `
INSERT INTO merchants (id, name, timezone, is_open, manual_override, deleted_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  name=$2, timezone=$3, is_open=$4, manual_override=$5, deleted_at=$6, updated_at=$8;`

	if _, err := execSQL(ctx, r.pool, tx, q, m.ID, m.Name, m.Timezone, m.IsOpen, m.ManualOverride, m.DeletedAt, m.CreatedAt, m.UpdatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *merchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	const q = `
SELECT id, name, timezone, is_open, manual_override, deleted_at, created_at, updated_at
  FROM merchants
 WHERE id=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	m := &model.Merchant{}
	if err := row.Scan(&m.ID, &m.Name, &m.Timezone, &m.IsOpen, &m.ManualOverride, &m.DeletedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func (r *merchantRepo) SetOpen(ctx context.Context, tx repository.Tx, id string, open bool, now time.Time) error {
	const q = `UPDATE merchants SET is_open=$2, updated_at=$3 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, open, now)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *merchantRepo) ListBillableIDs(ctx context.Context, tx repository.Tx) ([]string, error) {
	const q = `
SELECT m.id
  FROM merchants m
  JOIN subscriptions s ON s.merchant_id = m.id
 WHERE m.deleted_at IS NULL AND s.status <> 'cancelled'
 ORDER BY m.id;`

	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return ids, nil
}

func (r *merchantRepo) PurgeDeleted(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	const q = `DELETE FROM merchants WHERE deleted_at IS NOT NULL AND deleted_at < $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, before)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}

// Ensure catalogRepo implements repository.CatalogRepository
var _ repository.CatalogRepository = (*catalogRepo)(nil)

// catalogRepo only handles the retention purge; catalog CRUD belongs to the
// storefront service.
type catalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) PurgeDeleted(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	// Addons first: they hang off menu items and carry no soft-delete marker
	// of their own once the parent goes.
	const purgeAddons = `
DELETE FROM menu_item_addons a
 USING menu_items i
 WHERE a.menu_item_id = i.id AND i.deleted_at IS NOT NULL AND i.deleted_at < $1;`
	const purgeItems = `
DELETE FROM menu_items WHERE deleted_at IS NOT NULL AND deleted_at < $1;`

	if _, err := execSQL(ctx, r.pool, tx, purgeAddons, before); err != nil {
		return 0, domain.ErrOperationFailed
	}
	tag, err := execSQL(ctx, r.pool, tx, purgeItems, before)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}
