package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/boreal-data/transfers-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	source_url  TEXT NOT NULL,
	etag        TEXT,
	table_count INTEGER NOT NULL,
	row_count   INTEGER NOT NULL,
	scraped_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS transfers (
	snapshot_id  TEXT NOT NULL REFERENCES snapshots(id),
	seq          INTEGER NOT NULL,
	jurisdiction TEXT NOT NULL,
	component    TEXT NOT NULL,
	fiscal_year  TEXT NOT NULL,
	amount       REAL NOT NULL,
	PRIMARY KEY (snapshot_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_source_scraped ON snapshots(source_url, scraped_at DESC);
CREATE INDEX IF NOT EXISTS idx_transfers_snapshot ON transfers(snapshot_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot, records []model.TransferRecord) (*model.Snapshot, error) {
	snap.ID = uuid.New().String()
	if snap.ScrapedAt.IsZero() {
		snap.ScrapedAt = time.Now().UTC()
	}
	snap.RowCount = len(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source_url, etag, table_count, row_count, scraped_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.SourceURL, snap.ETag, snap.TableCount, snap.RowCount, snap.ScrapedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transfers (snapshot_id, seq, jurisdiction, component, fiscal_year, amount) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare transfer insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, snap.ID, i, r.Jurisdiction, r.Component, r.FiscalYear, r.Amount); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert transfer %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit snapshot")
	}
	return &snap, nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, sourceURL string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_url, etag, table_count, row_count, scraped_at FROM snapshots
		 WHERE source_url = ? ORDER BY scraped_at DESC LIMIT 1`,
		sourceURL,
	)

	var snap model.Snapshot
	var etag sql.NullString
	err := row.Scan(&snap.ID, &snap.SourceURL, &etag, &snap.TableCount, &snap.RowCount, &snap.ScrapedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest snapshot")
	}
	snap.ETag = etag.String
	return &snap, nil
}

func (s *SQLiteStore) Transfers(ctx context.Context, snapshotID string) ([]model.TransferRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT jurisdiction, component, fiscal_year, amount FROM transfers
		 WHERE snapshot_id = ? ORDER BY seq`,
		snapshotID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query transfers")
	}
	defer rows.Close()

	var records []model.TransferRecord
	for rows.Next() {
		var r model.TransferRecord
		if err := rows.Scan(&r.Jurisdiction, &r.Component, &r.FiscalYear, &r.Amount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan transfer")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate transfers")
}
