package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boreal-data/transfers-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_LatestSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, source_url, etag, table_count, row_count, scraped_at FROM snapshots`).
		WithArgs(testSourceURL).
		WillReturnError(pgx.ErrNoRows)

	snap, err := s.LatestSnapshot(context.Background(), testSourceURL)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	etag := `"v7"`
	scrapedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, source_url, etag, table_count, row_count, scraped_at FROM snapshots`).
		WithArgs(testSourceURL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "source_url", "etag", "table_count", "row_count", "scraped_at"}).
			AddRow("snap-1", testSourceURL, &etag, 14, 980, scrapedAt))

	snap, err := s.LatestSnapshot(context.Background(), testSourceURL)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, `"v7"`, snap.ETag)
	assert.Equal(t, 14, snap.TableCount)
	assert.Equal(t, 980, snap.RowCount)
	assert.Equal(t, scrapedAt, snap.ScrapedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), testSourceURL, `"v1"`, 2, 4, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"transfers"}, transferColumns).
		WillReturnResult(4)
	mock.ExpectCommit()

	snap, err := s.SaveSnapshot(context.Background(), model.Snapshot{
		SourceURL:  testSourceURL,
		ETag:       `"v1"`,
		TableCount: 2,
	}, sampleRecords())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 4, snap.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_CopyFailureRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), testSourceURL, "", 2, 4, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"transfers"}, transferColumns).
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	_, err := s.SaveSnapshot(context.Background(), model.Snapshot{
		SourceURL:  testSourceURL,
		TableCount: 2,
	}, sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy transfers")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Transfers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT jurisdiction, component, fiscal_year, amount FROM transfers`).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows([]string{"jurisdiction", "component", "fiscal_year", "amount"}).
			AddRow("Quebec", "Equalization", "2024-25", 13316.0).
			AddRow("Ontario", "Equalization", "2024-25", 576.0))

	records, err := s.Transfers(context.Background(), "snap-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Quebec", records[0].Jurisdiction)
	assert.InDelta(t, 576.0, records[1].Amount, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
