package scrape

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boreal-data/transfers-cli/internal/catalog"
	"github.com/boreal-data/transfers-cli/internal/model"
	"github.com/boreal-data/transfers-cli/internal/transform"
)

// Normalize turns raw page tables into the full transfer-record grid for the
// catalog: every jurisdiction x component x fiscal year, with amounts the
// page does not publish filled as zero.
//
// Tables map to jurisdictions by caption when the caption is recognizable,
// falling back to page order. Tables beyond the catalog's jurisdiction list
// are ignored, and a table whose header has no recognizable fiscal-year
// columns is skipped, as is one resolving to a jurisdiction an earlier table
// already claimed; each case logs a warning. Returns the records and the
// number of tables that contributed data.
func Normalize(ctx context.Context, tables []Table, cat *catalog.Catalog) ([]model.TransferRecord, int, error) {
	log := zap.L().With(zap.String("component", "scrape.normalize"))

	if len(tables) > len(cat.Jurisdictions) {
		log.Warn("page has more tables than cataloged jurisdictions, ignoring extras",
			zap.Int("tables", len(tables)),
			zap.Int("jurisdictions", len(cat.Jurisdictions)),
		)
		tables = tables[:len(cat.Jurisdictions)]
	}

	// amounts[i] holds the cleaned component->year->amount grid of table i,
	// nil when the table was skipped.
	amounts := make([]map[string]map[string]float64, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range tables {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			yearByCol := recognizeHeader(t.Header, cat)
			if len(yearByCol) == 0 {
				log.Warn("table header has no recognizable fiscal years, skipping",
					zap.Int("table", i),
					zap.String("caption", t.Caption),
				)
				return nil
			}

			grid := make(map[string]map[string]float64)
			for _, row := range t.Rows {
				comp, ok := cat.ComponentWithCasing(transform.CleanComponent(row.Label))
				if !ok {
					continue
				}
				if grid[comp] == nil {
					grid[comp] = make(map[string]float64)
				}
				for col, year := range yearByCol {
					if col < len(row.Cells) {
						grid[comp][year] = transform.ParseAmount(row.Cells[col])
					}
				}
			}
			amounts[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var records []model.TransferRecord
	used := 0
	// A captioned table elsewhere on the page and a caption-less table at
	// that jurisdiction's slot would otherwise both resolve to the same
	// name and persist two conflicting grids for it.
	assigned := make(map[string]int)
	for i, grid := range amounts {
		if grid == nil {
			continue
		}
		name := jurisdictionName(tables[i].Caption, i, cat)
		if first, dup := assigned[name]; dup {
			log.Warn("table resolves to a jurisdiction already claimed by an earlier table, skipping",
				zap.Int("table", i),
				zap.Int("claimed_by", first),
				zap.String("jurisdiction", name),
			)
			continue
		}
		assigned[name] = i
		used++
		for _, comp := range cat.Components {
			for _, year := range cat.FiscalYears {
				records = append(records, model.TransferRecord{
					Jurisdiction: name,
					Component:    comp,
					FiscalYear:   year,
					Amount:       grid[comp][year],
				})
			}
		}
	}
	return records, used, nil
}

// recognizeHeader maps column index to fiscal year for header labels that
// parse as cataloged fiscal years.
func recognizeHeader(header []string, cat *catalog.Catalog) map[int]string {
	years := make(map[int]string)
	for col, label := range header {
		year, err := transform.NormalizeFiscalYear(label)
		if err != nil {
			continue
		}
		if cat.HasFiscalYear(year) {
			years[col] = year
		}
	}
	return years
}

// jurisdictionName resolves which jurisdiction a table belongs to, trusting
// the caption when it names a cataloged jurisdiction and page order otherwise.
func jurisdictionName(caption string, index int, cat *catalog.Catalog) string {
	if caption != "" {
		fromCaption := transform.ExtractJurisdiction(caption)
		for _, j := range cat.Jurisdictions {
			if j.Name == fromCaption {
				return j.Name
			}
		}
	}
	return cat.Jurisdictions[index].Name
}
