// Package transform holds the cleaning rules applied to raw source table
// cells before they become transfer records.
package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Footnote markers on the page are rendered as trailing digits on the
// component label, e.g. "Equalization 3".
var trailingFootnote = regexp.MustCompile(`\s*\d+$`)

var fiscalYearPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// CleanComponent strips footnote digits and surrounding whitespace from a
// component label.
func CleanComponent(s string) string {
	s = collapseSpace(s)
	return strings.TrimSpace(trailingFootnote.ReplaceAllString(s, ""))
}

// ParseAmount converts a formatted table cell into a numeric amount.
// "-" means zero on the source page; "$" and "," are display formatting.
// Anything that still fails to parse is treated as zero, matching the
// missing-as-zero fill used throughout the report.
func ParseAmount(s string) float64 {
	s = collapseSpace(s)
	if s == "" || s == "-" || s == "n/a" {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", "(", "-", ")", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// NormalizeFiscalYear validates a fiscal-year label like "2016-17", where
// the two-digit suffix must be the year following the four-digit start.
func NormalizeFiscalYear(s string) (string, error) {
	s = collapseSpace(s)
	// The page renders the separator as an en dash in some revisions.
	s = strings.ReplaceAll(s, "–", "-")
	m := fiscalYearPattern.FindStringSubmatch(s)
	if m == nil {
		return "", eris.Errorf("transform: invalid fiscal year %q", s)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return "", eris.Wrapf(err, "transform: fiscal year %q", s)
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return "", eris.Wrapf(err, "transform: fiscal year %q", s)
	}
	if (start+1)%100 != end {
		return "", eris.Errorf("transform: fiscal year %q is not consecutive", s)
	}
	return s, nil
}

// ExtractJurisdiction derives a jurisdiction name from a table title like
// "Federal Support to Quebec". The roll-up table over all provinces and
// territories maps to "Aggregate".
func ExtractJurisdiction(title string) string {
	title = collapseSpace(title)
	if strings.Contains(title, "Provinces and Territories") {
		return "Aggregate"
	}
	return strings.TrimSpace(strings.TrimPrefix(title, "Federal Support to "))
}

// collapseSpace trims a string and folds runs of whitespace, including
// non-breaking spaces used as thousands separators in French-locale cells,
// into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
