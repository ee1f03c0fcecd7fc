package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Valid(t *testing.T) {
	for _, s := range Severities {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Severity("critical").Valid())
	assert.False(t, Severity("").Valid())
}

func TestRegion_Valid(t *testing.T) {
	for _, r := range Regions {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Region("xx").Valid())
}

func TestCategory_Valid(t *testing.T) {
	assert.Len(t, Categories, 3)
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("Win Enterprise").Valid())
	assert.True(t, DefaultCategory.Valid())
}

func TestScoreTables(t *testing.T) {
	tests := []struct {
		sev  Severity
		want int
	}{
		{SeverityCritical, 5},
		{SeverityHigh, 4},
		{SeverityMedium, 3},
		{SeverityLow, 2},
	}
	for _, tt := range tests {
		got, ok := SeverityScore(tt.sev)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, tt.sev)
	}

	us, _ := RegionScore(RegionUS)
	eu, _ := RegionScore(RegionEU)
	apac, _ := RegionScore(RegionAPAC)
	latam, _ := RegionScore(RegionLATAM)
	assert.Equal(t, []int{3, 2, 1, 1}, []int{us, eu, apac, latam})

	_, ok := RegionScore("MARS")
	assert.False(t, ok)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, ScoreBandHigh, BandFor(8))
	assert.Equal(t, ScoreBandHigh, BandFor(7))
	assert.Equal(t, ScoreBandMedium, BandFor(6))
	assert.Equal(t, ScoreBandMedium, BandFor(5))
	assert.Equal(t, ScoreBandLow, BandFor(4))
	assert.Equal(t, ScoreBandLow, BandFor(3))
}

func TestSampleFeedback(t *testing.T) {
	rows := SampleFeedback()
	assert.Len(t, rows, 10)
	for _, r := range rows {
		assert.True(t, r.Severity.Valid())
		assert.True(t, r.Region.Valid())
		assert.True(t, Category(r.HumanCategory).Valid())
	}

	// Each call hands out an independent copy.
	rows[0].Product = "changed"
	assert.Equal(t, "Enterprise Dashboard", SampleFeedback()[0].Product)
	assert.Len(t, SampleSummaries, 10)
}
