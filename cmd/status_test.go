//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boreal-data/transfers-cli/internal/monitoring"
)

func TestFormatStatus(t *testing.T) {
	scraped := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

	var buf bytes.Buffer
	formatStatus(&buf, &monitoring.DatasetStatus{
		HasSnapshot: true,
		SnapshotID:  "0b7f3a1c",
		ScrapedAt:   scraped,
		Age:         "36h0m0s",
		TableCount:  14,
		RowCount:    980,
		Stale:       false,
	})

	output := buf.String()
	assert.Contains(t, output, "SNAPSHOT")
	assert.Contains(t, output, "0b7f3a1c")
	assert.Contains(t, output, "2026-03-02 09:15")
	assert.Contains(t, output, "36h0m0s")
	assert.Contains(t, output, "14")
	assert.Contains(t, output, "980")
	assert.Contains(t, output, "false")
}

func TestFormatStatus_Stale(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, &monitoring.DatasetStatus{
		HasSnapshot: true,
		SnapshotID:  "aa11",
		ScrapedAt:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Age:         "2880h0m0s",
		Stale:       true,
	})

	assert.Contains(t, buf.String(), "true")
}
