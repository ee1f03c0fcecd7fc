package analytics

import (
	"slices"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// NoProduct is the top product of an empty table.
const NoProduct = "N/A"

// Stats are the headline numbers of a table.
type Stats struct {
	TotalFeedback        int            `json:"total_feedback" yaml:"total_feedback"`
	CriticalIssues       int            `json:"critical_issues" yaml:"critical_issues"`
	ComplianceIssues     int            `json:"compliance_issues" yaml:"compliance_issues"`
	AvgOpportunityScore  float64        `json:"avg_opportunity_score" yaml:"avg_opportunity_score"`
	TopProduct           string         `json:"top_product" yaml:"top_product"`
	RegionalDistribution map[string]int `json:"regional_distribution" yaml:"regional_distribution"`
}

// Summarize computes Stats. An empty table yields zero counts, a zero
// average and NoProduct. Product ties go to the product seen first.
func Summarize(records []model.Enriched) Stats {
	stats := Stats{
		TotalFeedback:        len(records),
		TopProduct:           NoProduct,
		RegionalDistribution: RegionalDistribution(records),
	}
	if len(records) == 0 {
		return stats
	}

	var scoreSum int
	productCounts := make(map[string]int)
	var productOrder []string
	for _, r := range records {
		if r.Severity == model.SeverityCritical {
			stats.CriticalIssues++
		}
		if r.Category == model.CategoryCompliance {
			stats.ComplianceIssues++
		}
		scoreSum += r.OpportunityScore

		if productCounts[r.Product] == 0 {
			productOrder = append(productOrder, r.Product)
		}
		productCounts[r.Product]++
	}
	stats.AvgOpportunityScore = float64(scoreSum) / float64(len(records))

	best := 0
	for _, p := range productOrder {
		if productCounts[p] > best {
			best = productCounts[p]
			stats.TopProduct = p
		}
	}
	return stats
}

// Count is the number of rows carrying Value.
type Count struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// RegionalDistribution counts rows per region. Regions without rows are
// omitted.
func RegionalDistribution(records []model.Enriched) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[string(r.Region)]++
	}
	return out
}

// CategoryCounts counts rows per category in the fixed category order,
// including categories with no rows.
func CategoryCounts(records []model.Enriched) []Count {
	counts := make(map[model.Category]int, len(model.Categories))
	for _, r := range records {
		counts[r.Category]++
	}
	out := make([]Count, len(model.Categories))
	for i, c := range model.Categories {
		out[i] = Count{Value: string(c), Count: counts[c]}
	}
	return out
}

// SeverityCounts counts rows per severity, most severe first, including
// severities with no rows.
func SeverityCounts(records []model.Enriched) []Count {
	counts := make(map[model.Severity]int, len(model.Severities))
	for _, r := range records {
		counts[r.Severity]++
	}
	out := make([]Count, len(model.Severities))
	for i, s := range model.Severities {
		out[i] = Count{Value: string(s), Count: counts[s]}
	}
	return out
}

// ScoreCount is the number of rows with a given opportunity score.
type ScoreCount struct {
	Score int             `json:"score" yaml:"score"`
	Band  model.ScoreBand `json:"band" yaml:"band"`
	Count int             `json:"count" yaml:"count"`
}

// ScoreCounts counts rows per opportunity score, ascending. Scores with no
// rows are omitted.
func ScoreCounts(records []model.Enriched) []ScoreCount {
	counts := make(map[int]int)
	for _, r := range records {
		counts[r.OpportunityScore]++
	}
	scores := make([]int, 0, len(counts))
	for s := range counts {
		scores = append(scores, s)
	}
	slices.Sort(scores)

	out := make([]ScoreCount, len(scores))
	for i, s := range scores {
		out[i] = ScoreCount{Score: s, Band: model.BandFor(s), Count: counts[s]}
	}
	return out
}

// Agreement compares analyst labels with AI categories.
type Agreement struct {
	Labeled int     `json:"labeled" yaml:"labeled"`
	Matched int     `json:"matched" yaml:"matched"`
	Rate    float64 `json:"rate" yaml:"rate"`
}

// HumanAgreement measures how often the AI category equals the analyst
// label, over rows that carry one. Rate is 0 when no row is labeled.
func HumanAgreement(records []model.Enriched) Agreement {
	var a Agreement
	for _, r := range records {
		if r.HumanCategory == "" {
			continue
		}
		a.Labeled++
		if r.HumanCategory == string(r.Category) {
			a.Matched++
		}
	}
	if a.Labeled > 0 {
		a.Rate = float64(a.Matched) / float64(a.Labeled)
	}
	return a
}

// FilterOptions lists the distinct values present on each filter dimension.
type FilterOptions struct {
	Categories []string `json:"categories" yaml:"categories"`
	Products   []string `json:"products" yaml:"products"`
	Severities []string `json:"severities" yaml:"severities"`
	Regions    []string `json:"regions" yaml:"regions"`
}

// Options returns the values a filter can select for records. Enumerated
// dimensions keep their canonical order; products are sorted.
func Options(records []model.Enriched) FilterOptions {
	categories := make(map[model.Category]bool)
	severities := make(map[model.Severity]bool)
	regions := make(map[model.Region]bool)
	products := make(map[string]bool)
	for _, r := range records {
		categories[r.Category] = true
		severities[r.Severity] = true
		regions[r.Region] = true
		products[r.Product] = true
	}

	opts := FilterOptions{
		Categories: []string{},
		Products:   make([]string, 0, len(products)),
		Severities: []string{},
		Regions:    []string{},
	}
	for _, c := range model.Categories {
		if categories[c] {
			opts.Categories = append(opts.Categories, string(c))
		}
	}
	for _, s := range model.Severities {
		if severities[s] {
			opts.Severities = append(opts.Severities, string(s))
		}
	}
	for _, r := range model.Regions {
		if regions[r] {
			opts.Regions = append(opts.Regions, string(r))
		}
	}
	for p := range products {
		opts.Products = append(opts.Products, p)
	}
	slices.Sort(opts.Products)
	return opts
}
