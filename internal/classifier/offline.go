package classifier

import "github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"

// OfflineCategory is the deterministic category assigned to row i when no
// text-generation service is used.
func OfflineCategory(i int) model.Category {
	return model.Categories[mod(i, len(model.Categories))]
}

// OfflineSummary cycles through the sample summaries.
func OfflineSummary(i int) string {
	return model.SampleSummaries[mod(i, len(model.SampleSummaries))]
}

func mod(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}
