// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package temporal scores how close in time a review was posted to the
// clinical trial it is matched against.
package temporal

import (
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const (
	// Neutral is the score when the post date is unknown.
	Neutral = 0.5

	peakYears  = 3
	decayYears = 10
	lateFloor  = 0.2

	earlyStart   = 0.3
	earlyPerYear = 0.05
	earlyFloor   = 0.05
)

// Relevance maps elapsed years from trial to post onto [0, 1]. Posts up to
// three years after the trial score 1.0, decaying linearly to 0.2 at ten
// years. Posts predating the trial score low and keep falling.
func Relevance(elapsed float64) float64 {
	switch {
	case elapsed >= 0 && elapsed <= peakYears:
		return 1
	case elapsed > peakYears && elapsed <= decayYears:
		return 1 - (1-lateFloor)*(elapsed-peakYears)/(decayYears-peakYears)
	case elapsed > decayYears:
		return lateFloor
	case elapsed >= -1:
		// Between one year before the trial and the trial year.
		return earlyStart + (1-earlyStart)*(elapsed+1)
	default:
		return math.Max(earlyFloor, earlyStart-earlyPerYear*(-elapsed-1))
	}
}

// Score returns the temporal relevance of a post made at postDate to a
// trial held in trialYear. A nil postDate yields Neutral.
func Score(postDate *time.Time, trialYear int) types.ComponentScore {
	if postDate == nil || postDate.IsZero() {
		return types.ComponentScore{Score: Neutral, Rationale: []string{"post date unknown"}}
	}
	elapsed := float64(postDate.Year() - trialYear)
	score := Relevance(elapsed)

	var note string
	switch {
	case elapsed == 0:
		note = "posted in the trial year"
	case elapsed > 0:
		note = fmt.Sprintf("posted %s after the trial", years(elapsed))
	default:
		note = fmt.Sprintf("posted %s before the trial", years(-elapsed))
	}
	return types.ComponentScore{Score: score, Rationale: []string{note}}
}

func years(n float64) string {
	if n == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%.0f years", n)
}
