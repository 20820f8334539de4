// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reliability

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// EvaluateBatch scores reviews against criteria with at most workers
// concurrent evaluations and returns results in input order. workers <= 0
// uses GOMAXPROCS. Criteria are validated once up front. If ctx is
// cancelled the batch stops and ctx.Err() is returned.
func (e *Evaluator) EvaluateBatch(ctx context.Context, reviews []types.ReviewRecord, criteria types.ClinicalTrialCriteria, workers int) ([]types.ReliabilityResult, error) {
	if err := criteria.Validate(e.now()); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(reviews))

	results := make([]types.ReliabilityResult, len(reviews))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Errors here can only come from ctx, checked below.
				results[i], _ = e.evaluate(ctx, reviews[i], criteria)
			}
		}()
	}

feed:
	for i := range reviews {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Score bands used by Summarize.
const (
	ExcellentScore = 0.8
	GoodScore      = 0.6
	FairScore      = 0.4
)

// Summary holds counts from a batch evaluation.
type Summary struct {
	Reliable  int     `json:"reliable"`
	Rejected  int     `json:"rejected"`
	Excellent int     `json:"excellent"`
	Good      int     `json:"good"`
	Fair      int     `json:"fair"`
	Poor      int     `json:"poor"`
	MeanScore float64 `json:"mean_score"`
}

// Total returns the number of reviews summarized.
func (s Summary) Total() int {
	return s.Reliable + s.Rejected
}

// Summarize counts verdicts and score bands across results.
func Summarize(results []types.ReliabilityResult) Summary {
	var s Summary
	var sum float64
	for _, r := range results {
		if r.IsReliable {
			s.Reliable++
		} else {
			s.Rejected++
		}
		switch {
		case r.OverallScore >= ExcellentScore:
			s.Excellent++
		case r.OverallScore >= GoodScore:
			s.Good++
		case r.OverallScore >= FairScore:
			s.Fair++
		default:
			s.Poor++
		}
		sum += r.OverallScore
	}
	if len(results) > 0 {
		s.MeanScore = sum / float64(len(results))
	}
	return s
}

// Print writes the summary in the CLI's plain-text format.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Reviews evaluated: %d\n", s.Total())
	fmt.Fprintf(w, "Reliable:          %d\n", s.Reliable)
	fmt.Fprintf(w, "Rejected:          %d\n", s.Rejected)
	fmt.Fprintf(w, "Mean score:        %.3f\n", s.MeanScore)
	fmt.Fprintln(w, "\nScore distribution:")
	fmt.Fprintf(w, "  Excellent (>= %.1f): %d\n", ExcellentScore, s.Excellent)
	fmt.Fprintf(w, "  Good (%.1f-%.1f):     %d\n", GoodScore, ExcellentScore, s.Good)
	fmt.Fprintf(w, "  Fair (%.1f-%.1f):     %d\n", FairScore, GoodScore, s.Fair)
	fmt.Fprintf(w, "  Poor (< %.1f):       %d\n", FairScore, s.Poor)
}
