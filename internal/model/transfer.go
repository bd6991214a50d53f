package model

import "time"

// AggregateJurisdiction is the name used for the all-provinces roll-up table
// published at the top of the source page.
const AggregateJurisdiction = "Aggregate"

// TransferRecord is one cell of a cleaned source table: the amount a single
// transfer component allocates to one jurisdiction in one fiscal year.
// Amounts are in millions of dollars, except the per-capita component which
// the source publishes in dollars.
type TransferRecord struct {
	Jurisdiction string  `json:"jurisdiction"`
	Component    string  `json:"component"`
	FiscalYear   string  `json:"fiscal_year"`
	Amount       float64 `json:"amount"`
}

// Snapshot describes one successful scrape of the source page.
type Snapshot struct {
	ID         string    `json:"id"`
	SourceURL  string    `json:"source_url"`
	ETag       string    `json:"etag,omitempty"`
	TableCount int       `json:"table_count"`
	RowCount   int       `json:"row_count"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// ReportRow is one long-format row of the per-year report: the amount for one
// component in one jurisdiction.
type ReportRow struct {
	Jurisdiction string  `json:"jurisdiction"`
	Component    string  `json:"component"`
	Value        float64 `json:"value"`
}

// ChartSeries holds the values of one component across the report's
// jurisdictions, in jurisdiction order.
type ChartSeries struct {
	Component string    `json:"component"`
	Values    []float64 `json:"values"`
}

// ChartPayload is the grouped-bar-chart data the report page renders for one
// fiscal year.
type ChartPayload struct {
	FiscalYear    string        `json:"fiscal_year"`
	Jurisdictions []string      `json:"jurisdictions"`
	Series        []ChartSeries `json:"series"`
}
