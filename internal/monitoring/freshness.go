// Package monitoring reports on the health of the stored dataset: when the
// source page was last scraped and whether the data is stale.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/boreal-data/transfers-cli/internal/store"
)

// DatasetStatus is a point-in-time view of the stored dataset's health.
type DatasetStatus struct {
	HasSnapshot bool      `json:"has_snapshot"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at,omitempty"`
	Age         string    `json:"age,omitempty"`
	TableCount  int       `json:"table_count"`
	RowCount    int       `json:"row_count"`
	Stale       bool      `json:"stale"`
	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers dataset status from the store.
type Collector struct {
	store     store.Store
	sourceURL string
	maxAge    time.Duration
	now       func() time.Time
}

// NewCollector creates a status collector. Snapshots older than maxAge are
// reported stale; the source page is updated around each federal budget, so
// the default configuration uses a generous threshold.
func NewCollector(st store.Store, sourceURL string, maxAge time.Duration) *Collector {
	return &Collector{
		store:     st,
		sourceURL: sourceURL,
		maxAge:    maxAge,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Collect gathers the current dataset status.
func (c *Collector) Collect(ctx context.Context) (*DatasetStatus, error) {
	status := &DatasetStatus{
		CollectedAt: c.now(),
		Stale:       true,
	}

	snap, err := c.store.LatestSnapshot(ctx, c.sourceURL)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: latest snapshot")
	}
	if snap == nil {
		return status, nil
	}

	age := c.now().Sub(snap.ScrapedAt)

	status.HasSnapshot = true
	status.SnapshotID = snap.ID
	status.ScrapedAt = snap.ScrapedAt
	status.Age = age.Round(time.Minute).String()
	status.TableCount = snap.TableCount
	status.RowCount = snap.RowCount
	status.Stale = c.maxAge > 0 && age > c.maxAge
	return status, nil
}
