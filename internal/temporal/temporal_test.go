// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func year(y int) *time.Time {
	t := time.Date(y, 6, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		post *time.Time
		want float64
	}{
		{"unknown date", nil, 0.5},
		{"zero date", &time.Time{}, 0.5},
		{"same year", year(2015), 1},
		{"one year after", year(2016), 1},
		{"three years after", year(2018), 1},
		{"ten years after", year(2025), 0.2},
		{"twenty years after", year(2035), 0.2},
		{"one year before", year(2014), 0.3},
		{"three years before", year(2012), 0.2},
		{"long before", year(1990), 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.post, 2015)
			assert.InDelta(t, tt.want, got.Score, 1e-9)
			assert.Len(t, got.Rationale, 1)
		})
	}
}

func TestRelevanceMonotonic(t *testing.T) {
	// Non-increasing moving away from the peak window in both directions.
	prev := Relevance(peakYears)
	for e := peakYears + 0.25; e <= 30; e += 0.25 {
		got := Relevance(e)
		assert.LessOrEqual(t, got, prev, "after trial at %.2f", e)
		prev = got
	}
	prev = Relevance(0)
	for e := -0.25; e >= -30; e -= 0.25 {
		got := Relevance(e)
		assert.LessOrEqual(t, got, prev, "before trial at %.2f", e)
		prev = got
	}
}

func TestRelevanceContinuous(t *testing.T) {
	for _, boundary := range []float64{-1, 0, peakYears, decayYears} {
		assert.InDelta(t, Relevance(boundary-1e-9), Relevance(boundary+1e-9), 1e-6, "at %.0f", boundary)
	}
}

func TestRelevanceBounded(t *testing.T) {
	for e := -100.0; e <= 100; e += 0.5 {
		got := Relevance(e)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestScoreRationale(t *testing.T) {
	assert.Equal(t, "posted 1 year after the trial", Score(year(2016), 2015).Rationale[0])
	assert.Equal(t, "posted 3 years after the trial", Score(year(2018), 2015).Rationale[0])
	assert.Equal(t, "posted 1 year before the trial", Score(year(2014), 2015).Rationale[0])
	assert.Equal(t, "posted in the trial year", Score(year(2015), 2015).Rationale[0])
}
