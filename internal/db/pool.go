// Package db provides the shared Postgres pool abstraction and bulk copy
// helper used by the Postgres store.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the query surface shared by pgxpool.Pool, pgx.Tx, and pgxmock's
// pool. Keeping the store on this interface lets SaveSnapshot reuse the COPY
// helper inside a transaction and keeps the Postgres store testable without
// a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}
