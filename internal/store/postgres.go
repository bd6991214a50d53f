package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/boreal-data/transfers-cli/internal/db"
	"github.com/boreal-data/transfers-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	source_url  TEXT NOT NULL,
	etag        TEXT,
	table_count INTEGER NOT NULL,
	row_count   INTEGER NOT NULL,
	scraped_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transfers (
	snapshot_id  TEXT NOT NULL REFERENCES snapshots(id),
	seq          INTEGER NOT NULL,
	jurisdiction TEXT NOT NULL,
	component    TEXT NOT NULL,
	fiscal_year  TEXT NOT NULL,
	amount       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (snapshot_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_source_scraped ON snapshots(source_url, scraped_at DESC);
CREATE INDEX IF NOT EXISTS idx_transfers_snapshot ON transfers(snapshot_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var transferColumns = []string{"snapshot_id", "seq", "jurisdiction", "component", "fiscal_year", "amount"}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap model.Snapshot, records []model.TransferRecord) (*model.Snapshot, error) {
	snap.ID = uuid.New().String()
	if snap.ScrapedAt.IsZero() {
		snap.ScrapedAt = time.Now().UTC()
	}
	snap.RowCount = len(records)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO snapshots (id, source_url, etag, table_count, row_count, scraped_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ID, snap.SourceURL, snap.ETag, snap.TableCount, snap.RowCount, snap.ScrapedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{snap.ID, i, r.Jurisdiction, r.Component, r.FiscalYear, r.Amount}
	}
	if _, err := db.CopyFrom(ctx, tx, "transfers", transferColumns, rows); err != nil {
		return nil, eris.Wrap(err, "postgres: copy transfers")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit snapshot")
	}
	return &snap, nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, sourceURL string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source_url, etag, table_count, row_count, scraped_at FROM snapshots
		 WHERE source_url = $1 ORDER BY scraped_at DESC LIMIT 1`,
		sourceURL,
	)

	var snap model.Snapshot
	var etag *string
	err := row.Scan(&snap.ID, &snap.SourceURL, &etag, &snap.TableCount, &snap.RowCount, &snap.ScrapedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest snapshot")
	}
	if etag != nil {
		snap.ETag = *etag
	}
	return &snap, nil
}

func (s *PostgresStore) Transfers(ctx context.Context, snapshotID string) ([]model.TransferRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT jurisdiction, component, fiscal_year, amount FROM transfers
		 WHERE snapshot_id = $1 ORDER BY seq`,
		snapshotID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query transfers")
	}
	defer rows.Close()

	var records []model.TransferRecord
	for rows.Next() {
		var r model.TransferRecord
		if err := rows.Scan(&r.Jurisdiction, &r.Component, &r.FiscalYear, &r.Amount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan transfer")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate transfers")
}
