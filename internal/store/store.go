// Package store persists scrape snapshots and their transfer records. Two
// backends implement the same interface: SQLite for the single-user CLI
// default and Postgres for shared deployments.
package store

import (
	"context"

	"github.com/boreal-data/transfers-cli/internal/model"
)

// Store defines the persistence interface for scraped transfer data.
type Store interface {
	// SaveSnapshot persists a snapshot and its transfer rows. The snapshot
	// ID is assigned by the store and returned on the copy.
	SaveSnapshot(ctx context.Context, snap model.Snapshot, records []model.TransferRecord) (*model.Snapshot, error)

	// LatestSnapshot returns the most recent snapshot for the source URL,
	// or nil when nothing has been scraped yet.
	LatestSnapshot(ctx context.Context, sourceURL string) (*model.Snapshot, error)

	// Transfers returns a snapshot's records in stored order: jurisdiction
	// page order, then catalog component order, then fiscal year.
	Transfers(ctx context.Context, snapshotID string) ([]model.TransferRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
