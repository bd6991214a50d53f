// Package report shapes stored transfer records into the long-format rows
// and grouped-bar-chart payloads the report page renders.
package report

import (
	"strings"

	"github.com/boreal-data/transfers-cli/internal/model"
)

// Options filters a per-year report.
type Options struct {
	// Components restricts the report to the named components. Nil means
	// all components present in the records; an empty non-nil slice selects
	// none, as when every box on the report page is unchecked.
	Components []string

	// IncludeAggregate keeps the all-provinces roll-up jurisdiction in the
	// report alongside the individual provinces and territories.
	IncludeAggregate bool
}

// Rows returns the long-format report rows for one fiscal year, in the
// order the records were stored (jurisdiction page order, then component).
func Rows(records []model.TransferRecord, fiscalYear string, opts Options) []model.ReportRow {
	wanted := componentSet(opts.Components)

	rows := make([]model.ReportRow, 0, len(records))
	for _, r := range records {
		if r.FiscalYear != fiscalYear {
			continue
		}
		if !opts.IncludeAggregate && r.Jurisdiction == model.AggregateJurisdiction {
			continue
		}
		if wanted != nil && !wanted[strings.ToLower(r.Component)] {
			continue
		}
		rows = append(rows, model.ReportRow{
			Jurisdiction: r.Jurisdiction,
			Component:    r.Component,
			Value:        r.Amount,
		})
	}
	return rows
}

// Chart assembles the grouped-bar-chart payload for one fiscal year: one
// series per component, values aligned with the jurisdiction axis.
func Chart(records []model.TransferRecord, fiscalYear string, opts Options) model.ChartPayload {
	rows := Rows(records, fiscalYear, opts)

	var jurisdictions []string
	jurIndex := make(map[string]int)
	var components []string
	valueByKey := make(map[string]map[string]float64)

	for _, row := range rows {
		if _, ok := jurIndex[row.Jurisdiction]; !ok {
			jurIndex[row.Jurisdiction] = len(jurisdictions)
			jurisdictions = append(jurisdictions, row.Jurisdiction)
		}
		if valueByKey[row.Component] == nil {
			valueByKey[row.Component] = make(map[string]float64)
			components = append(components, row.Component)
		}
		valueByKey[row.Component][row.Jurisdiction] = row.Value
	}

	payload := model.ChartPayload{
		FiscalYear:    fiscalYear,
		Jurisdictions: jurisdictions,
		Series:        make([]model.ChartSeries, 0, len(components)),
	}
	for _, comp := range components {
		values := make([]float64, len(jurisdictions))
		for jur, idx := range jurIndex {
			values[idx] = valueByKey[comp][jur]
		}
		payload.Series = append(payload.Series, model.ChartSeries{
			Component: comp,
			Values:    values,
		})
	}
	return payload
}

func componentSet(components []string) map[string]bool {
	if components == nil {
		return nil
	}
	set := make(map[string]bool, len(components))
	for _, c := range components {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return set
}
