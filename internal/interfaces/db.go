// Package interfaces declares the seams between the service layer and its
// infrastructure: the database querier, the repositories, and the transaction
// runner.
package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the querier contract repositories run against. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same repository call works standalone or
// inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
