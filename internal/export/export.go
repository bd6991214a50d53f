// Package export writes the stored transfer dataset to XLSX or CSV files.
// XLSX mirrors the source page layout: one sheet per jurisdiction with
// component rows and fiscal-year columns. CSV is the long-format record list.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/boreal-data/transfers-cli/internal/model"
)

// Format selects the output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatCSV:
		return Format(s), nil
	default:
		return "", eris.Errorf("export: unknown format %q (valid: xlsx, csv)", s)
	}
}

// Write writes records to path in the given format. When fiscalYear is
// non-empty only that year's values are written.
func Write(path string, format Format, records []model.TransferRecord, fiscalYear string) error {
	if fiscalYear != "" {
		records = filterYear(records, fiscalYear)
	}
	if len(records) == 0 {
		return eris.New("export: no records to write")
	}
	switch format {
	case FormatXLSX:
		return writeXLSX(path, records)
	case FormatCSV:
		return writeCSV(path, records)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

func filterYear(records []model.TransferRecord, fiscalYear string) []model.TransferRecord {
	out := make([]model.TransferRecord, 0, len(records))
	for _, r := range records {
		if r.FiscalYear == fiscalYear {
			out = append(out, r)
		}
	}
	return out
}

// grid regroups long-format records into per-jurisdiction tables, keeping
// stored order for jurisdictions, components, and years.
type grid struct {
	jurisdictions []string
	components    []string
	years         []string
	amounts       map[string]map[string]map[string]float64
}

func buildGrid(records []model.TransferRecord) *grid {
	g := &grid{amounts: make(map[string]map[string]map[string]float64)}
	seenJur := make(map[string]bool)
	seenComp := make(map[string]bool)
	seenYear := make(map[string]bool)

	for _, r := range records {
		if !seenJur[r.Jurisdiction] {
			seenJur[r.Jurisdiction] = true
			g.jurisdictions = append(g.jurisdictions, r.Jurisdiction)
		}
		if !seenComp[r.Component] {
			seenComp[r.Component] = true
			g.components = append(g.components, r.Component)
		}
		if !seenYear[r.FiscalYear] {
			seenYear[r.FiscalYear] = true
			g.years = append(g.years, r.FiscalYear)
		}
		if g.amounts[r.Jurisdiction] == nil {
			g.amounts[r.Jurisdiction] = make(map[string]map[string]float64)
		}
		if g.amounts[r.Jurisdiction][r.Component] == nil {
			g.amounts[r.Jurisdiction][r.Component] = make(map[string]float64)
		}
		g.amounts[r.Jurisdiction][r.Component][r.FiscalYear] = r.Amount
	}
	return g
}

func writeXLSX(path string, records []model.TransferRecord) error {
	g := buildGrid(records)

	f := xlsx.NewFile()
	for _, jur := range g.jurisdictions {
		sheet, err := f.AddSheet(sheetName(jur))
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", jur)
		}

		header := sheet.AddRow()
		header.AddCell().Value = "Component"
		for _, year := range g.years {
			header.AddCell().Value = year
		}

		for _, comp := range g.components {
			row := sheet.AddRow()
			row.AddCell().Value = comp
			for _, year := range g.years {
				row.AddCell().SetFloat(g.amounts[jur][comp][year])
			}
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// sheetName truncates to the 31-character sheet name limit.
func sheetName(s string) string {
	if len(s) > 31 {
		return s[:31]
	}
	return s
}

func writeCSV(path string, records []model.TransferRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer file.Close() //nolint:errcheck

	w := csv.NewWriter(file)
	if err := w.Write([]string{"jurisdiction", "component", "fiscal_year", "amount"}); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range records {
		row := []string{r.Jurisdiction, r.Component, r.FiscalYear, strconv.FormatFloat(r.Amount, 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush")
}
