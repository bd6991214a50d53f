// Package scrape extracts the per-jurisdiction transfer tables from the
// source page HTML and normalizes them into transfer records.
package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Row is one body row of a source table: the component label in the first
// cell followed by one raw cell per fiscal-year column.
type Row struct {
	Label string
	Cells []string
}

// Table is one HTML table lifted off the page before cleaning.
type Table struct {
	Caption string
	Header  []string // fiscal-year column labels, first (label) column excluded
	Rows    []Row
}

// ParseTables extracts every table from the page. Tables without a body are
// skipped; an HTML document with no tables at all is an error since it means
// the page layout changed out from under us.
func ParseTables(html []byte) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		t := Table{
			Caption: cleanText(sel.Find("caption").First().Text()),
		}

		headerCells := sel.Find("thead tr").First().Find("th, td")
		if headerCells.Length() == 0 {
			headerCells = sel.Find("tr").First().Find("th, td")
		}
		headerCells.Each(func(i int, cell *goquery.Selection) {
			if i == 0 {
				return // label column
			}
			t.Header = append(t.Header, cleanText(cell.Text()))
		})

		bodyRows := sel.Find("tbody tr")
		if bodyRows.Length() == 0 {
			if all := sel.Find("tr"); all.Length() > 1 {
				bodyRows = all.Slice(1, goquery.ToEnd)
			}
		}
		bodyRows.Each(func(_ int, rowSel *goquery.Selection) {
			cells := rowSel.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			row := Row{Label: cleanText(cells.First().Text())}
			cells.Each(func(i int, cell *goquery.Selection) {
				if i == 0 {
					return
				}
				row.Cells = append(row.Cells, cleanText(cell.Text()))
			})
			t.Rows = append(t.Rows, row)
		})

		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	})

	if len(tables) == 0 {
		return nil, eris.New("scrape: no tables found on page")
	}
	return tables, nil
}

// cleanText trims a cell and collapses internal whitespace, including the
// non-breaking spaces canada.ca uses inside formatted numbers.
func cleanText(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
