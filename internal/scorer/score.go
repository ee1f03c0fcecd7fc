// Package scorer computes the deterministic opportunity score of feedback rows.
package scorer

import (
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// Components returns the severity and region weights of a row. Values outside
// the closed enums are weighted as their normalization defaults so the
// function stays total.
func Components(sev model.Severity, reg model.Region) (severityScore, regionScore int) {
	s, ok := model.SeverityScore(sev)
	if !ok {
		s, _ = model.SeverityScore(model.DefaultSeverity)
	}
	r, ok := model.RegionScore(reg)
	if !ok {
		r, _ = model.RegionScore(model.DefaultRegion)
	}
	return s, r
}

// Score returns severity weight + region weight, always in [3, 8].
func Score(sev model.Severity, reg model.Region) int {
	s, r := Components(sev, reg)
	return s + r
}

// ScoreRecord attaches the score columns to a single row.
func ScoreRecord(f model.Feedback) model.Scored {
	s, r := Components(f.Severity, f.Region)
	return model.Scored{
		Feedback:         f,
		SeverityScore:    s,
		RegionScore:      r,
		OpportunityScore: s + r,
	}
}

// ScoreTable scores every row and returns a new table in the same order.
func ScoreTable(rows []model.Feedback) []model.Scored {
	out := make([]model.Scored, len(rows))
	for i, f := range rows {
		out[i] = ScoreRecord(f)
	}
	return out
}

// Rescore recomputes the score columns of an already-scored table from the
// current severity and region. Applying it repeatedly yields the same table.
func Rescore(rows []model.Scored) []model.Scored {
	out := make([]model.Scored, len(rows))
	for i, r := range rows {
		out[i] = ScoreRecord(r.Feedback)
	}
	return out
}
