package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories accept NoTX to run against the pool directly.
type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside a database transaction and passes the
// handle to fn. Use cases call repositories with the same ctx and tx:
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		k, err := keys.FindByCode(ctx, tx, code)
//		...
//		return err
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
