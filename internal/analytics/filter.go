// Package analytics filters enriched feedback tables and computes the
// aggregates shown on the dashboard.
package analytics

import (
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// Filters selects rows by category, product, severity and region. An empty
// list on a dimension does not filter that dimension. Rows must match every
// non-empty dimension and any value within it.
type Filters struct {
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Products   []string `json:"products,omitempty" yaml:"products,omitempty"`
	Severities []string `json:"severities,omitempty" yaml:"severities,omitempty"`
	Regions    []string `json:"regions,omitempty" yaml:"regions,omitempty"`
}

// Empty reports whether no dimension is filtered.
func (f Filters) Empty() bool {
	return len(f.Categories) == 0 && len(f.Products) == 0 &&
		len(f.Severities) == 0 && len(f.Regions) == 0
}

// Filter returns the rows of records that match f, in their original order.
// The input slice is never modified.
func Filter(records []model.Enriched, f Filters) []model.Enriched {
	categories := toSet(f.Categories)
	products := toSet(f.Products)
	severities := toSet(f.Severities)
	regions := toSet(f.Regions)

	out := make([]model.Enriched, 0, len(records))
	for _, r := range records {
		if !categories.match(string(r.Category)) ||
			!products.match(r.Product) ||
			!severities.match(string(r.Severity)) ||
			!regions.match(string(r.Region)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type valueSet map[string]struct{}

// toSet returns nil for an empty list so match passes everything through.
func toSet(values []string) valueSet {
	if len(values) == 0 {
		return nil
	}
	s := make(valueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s valueSet) match(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}
