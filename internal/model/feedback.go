package model

// Severity is the customer-reported impact of a feedback item.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// DefaultSeverity replaces any severity outside the closed set.
const DefaultSeverity = SeverityMedium

// Severities lists every valid severity, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s belongs to the closed severity set.
func (s Severity) Valid() bool {
	_, ok := severityScores[s]
	return ok
}

// Region is the customer's sales region.
type Region string

const (
	RegionUS    Region = "US"
	RegionEU    Region = "EU"
	RegionAPAC  Region = "APAC"
	RegionLATAM Region = "LATAM"
)

// DefaultRegion replaces any region outside the closed set.
const DefaultRegion = RegionAPAC

// Regions lists every valid region.
var Regions = []Region{RegionUS, RegionEU, RegionAPAC, RegionLATAM}

// Valid reports whether r belongs to the closed region set.
func (r Region) Valid() bool {
	_, ok := regionScores[r]
	return ok
}

// Category is one of the three strategic business priorities.
type Category string

const (
	CategoryEnterprise Category = "Win Enterprise Deals"
	CategoryCompliance Category = "Ensure Regulatory & Data Compliance"
	CategoryUsability  Category = "Improve Platform Usability & Performance"
)

// DefaultCategory is assigned whenever the model answer is not a known category.
const DefaultCategory = CategoryUsability

// Categories is the fixed category list. Its order drives offline assignment.
var Categories = []Category{CategoryEnterprise, CategoryCompliance, CategoryUsability}

// Valid reports whether c is one of the three strategic categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryEnterprise, CategoryCompliance, CategoryUsability:
		return true
	}
	return false
}

// severityScores and regionScores are the only copies of the scoring weights.
var severityScores = map[Severity]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityMedium:   3,
	SeverityLow:      2,
}

var regionScores = map[Region]int{
	RegionUS:    3,
	RegionEU:    2,
	RegionAPAC:  1,
	RegionLATAM: 1,
}

// SeverityScore returns the weight for s and whether s is known.
func SeverityScore(s Severity) (int, bool) {
	v, ok := severityScores[s]
	return v, ok
}

// RegionScore returns the weight for r and whether r is known.
func RegionScore(r Region) (int, bool) {
	v, ok := regionScores[r]
	return v, ok
}

// Opportunity score bounds over the closed enums.
const (
	MinOpportunityScore = 3
	MaxOpportunityScore = 8
)

// Feedback is one normalized input row.
type Feedback struct {
	Text     string   `json:"feedback"`
	Product  string   `json:"product"`
	Severity Severity `json:"severity"`
	Region   Region   `json:"region"`

	// HumanCategory is the optional analyst label from the input file. It is
	// only used to measure agreement with the AI category.
	HumanCategory string `json:"category,omitempty"`
}

// Scored is a Feedback row with its opportunity score components.
type Scored struct {
	Feedback
	SeverityScore    int `json:"severity_score"`
	RegionScore      int `json:"region_score"`
	OpportunityScore int `json:"opportunity_score"`
}

// Enriched is a Scored row with the AI category and summary attached.
type Enriched struct {
	Scored
	Category Category `json:"ai_category"`
	Summary  string   `json:"ai_summary"`
}

// ScoreBand buckets an opportunity score for display.
type ScoreBand string

const (
	ScoreBandHigh   ScoreBand = "high"
	ScoreBandMedium ScoreBand = "medium"
	ScoreBandLow    ScoreBand = "low"
)

// BandFor returns the display band of an opportunity score.
func BandFor(score int) ScoreBand {
	switch {
	case score >= 7:
		return ScoreBandHigh
	case score >= 5:
		return ScoreBandMedium
	default:
		return ScoreBandLow
	}
}
