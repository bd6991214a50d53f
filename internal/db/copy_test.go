package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "transfers", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := [][]any{
		{"snap-1", "Quebec", "Equalization", "2024-25", 13316.0},
		{"snap-1", "Ontario", "Equalization", "2024-25", 576.0},
	}
	mock.ExpectCopyFrom(pgx.Identifier{"transfers"}, []string{"snapshot_id", "jurisdiction", "component", "fiscal_year", "amount"}).
		WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "transfers",
		[]string{"snapshot_id", "jurisdiction", "component", "fiscal_year", "amount"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"transfers"}, []string{"a"}).
		WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "transfers", []string{"a"}, [][]any{{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO transfers")
	assert.NoError(t, mock.ExpectationsWereMet())
}
