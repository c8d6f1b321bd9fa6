package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres); repositories accept nil for the non-transactional
// path.
type Tx interface{}

// NoTX marks an explicitly non-transactional call.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the transaction handle through `tx`. Keeping the handle opaque keeps
// use-case interfaces clean while still letting every read-decide-write
// sequence share one transaction.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
