// Package catalog defines which jurisdictions, transfer components, and
// fiscal years the scraper extracts from the source page. The built-in
// catalog matches the Department of Finance page as published; a YAML file
// can override it when the page changes.
package catalog

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Jurisdiction pairs a source table title with the jurisdiction name used in
// stored records and the report.
type Jurisdiction struct {
	Title string `yaml:"title"`
	Name  string `yaml:"name"`
}

// Catalog enumerates the tables, component rows, and fiscal-year columns of
// interest on the source page.
type Catalog struct {
	SourceURL     string         `yaml:"source_url"`
	Jurisdictions []Jurisdiction `yaml:"jurisdictions"`
	Components    []string       `yaml:"components"`
	FiscalYears   []string       `yaml:"fiscal_years"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// Load reads a catalog override from the given YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if c.SourceURL == "" {
		return eris.New("catalog: source_url is required")
	}
	if len(c.Jurisdictions) == 0 {
		return eris.New("catalog: at least one jurisdiction is required")
	}
	if len(c.Components) == 0 {
		return eris.New("catalog: at least one component is required")
	}
	if len(c.FiscalYears) == 0 {
		return eris.New("catalog: at least one fiscal year is required")
	}
	seen := make(map[string]bool, len(c.Jurisdictions))
	for _, j := range c.Jurisdictions {
		if j.Name == "" {
			return eris.Errorf("catalog: jurisdiction with title %q has no name", j.Title)
		}
		if seen[j.Name] {
			return eris.Errorf("catalog: duplicate jurisdiction %q", j.Name)
		}
		seen[j.Name] = true
	}
	return nil
}

// JurisdictionNames returns the jurisdiction names in page order.
func (c *Catalog) JurisdictionNames() []string {
	names := make([]string, len(c.Jurisdictions))
	for i, j := range c.Jurisdictions {
		names[i] = j.Name
	}
	return names
}

// ComponentWithCasing maps a case-insensitive component match back to the
// catalog's canonical casing. Returns false if the component is not listed.
func (c *Catalog) ComponentWithCasing(name string) (string, bool) {
	for _, comp := range c.Components {
		if strings.EqualFold(comp, strings.TrimSpace(name)) {
			return comp, true
		}
	}
	return "", false
}

// HasFiscalYear reports whether the given fiscal year column is of interest.
func (c *Catalog) HasFiscalYear(year string) bool {
	for _, y := range c.FiscalYears {
		if y == year {
			return true
		}
	}
	return false
}
