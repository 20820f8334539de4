// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/treatment-reviews/internal/reliability"
	"github.com/pdiddy/treatment-reviews/internal/store"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <review-file>",
	Short: "Score reviews from a JSON or YAML file",
	Long: `Analyze reads reviews from a JSON or YAML file and scores each one against
the clinical trial criteria. Each item is either a review object
({"id", "text", "rating", "metadata": {...}}) or a bare string of review text.

Criteria come from --criteria (a file written by search-trials
--save-criteria) and/or the individual criteria flags; flags win.

Results are printed as a table by default, or as JSON or CSV with --format.
Use --save to record the run in the results database.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	workers, _ := cmd.Flags().GetInt("workers")
	save, _ := cmd.Flags().GetBool("save")
	top, _ := cmd.Flags().GetInt("top")

	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	reviews, err := loadReviews(args[0])
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return fmt.Errorf("no reviews with text in %s", args[0])
	}

	ctx := commandContext(cmd)
	scoring := scoringConfig(cmd, appConfig.Scoring)
	eval, closeFn, err := newEvaluator(ctx, scoring, appConfig)
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Fprintf(os.Stderr, "Analyzing %d reviews from %s\n", len(reviews), args[0])
	results, err := eval.EvaluateBatch(ctx, reviews, criteria, workers)
	if err != nil {
		return err
	}

	out, err := createOutput(output)
	if err != nil {
		return err
	}
	if err := writeResults(out, format, reviews, results); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if save {
		run, err := saveRun(ctx, args[0], criteria, eval.Config(), reviews, results)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved run %s (%d results)\n", run.ID, run.Total)
	}

	fmt.Fprintln(os.Stderr)
	reliability.Summarize(results).Print(os.Stderr)
	printTopReliable(reviews, results, top)
	return nil
}

// printTopReliable lists the n highest-scoring reliable reviews on stderr.
func printTopReliable(reviews []types.ReviewRecord, results []types.ReliabilityResult, n int) {
	if n <= 0 {
		return
	}
	idx := make([]int, 0, len(results))
	for i, r := range results {
		if r.IsReliable {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return results[idx[a]].OverallScore > results[idx[b]].OverallScore
	})
	if len(idx) > n {
		idx = idx[:n]
	}

	fmt.Fprintf(os.Stderr, "\nTop %d most reliable reviews:\n", len(idx))
	for rank, i := range idx {
		fmt.Fprintf(os.Stderr, "\n%d. Score: %.3f\n", rank+1, results[i].OverallScore)
		fmt.Fprintf(os.Stderr, "   Text: %s\n", truncate(oneLine(reviews[i].Text), 200))
	}
}

// saveRun opens the results store and records one run.
func saveRun(ctx context.Context, source string, criteria types.ClinicalTrialCriteria, scoring types.ScoringConfig, reviews []types.ReviewRecord, results []types.ReliabilityResult) (store.Run, error) {
	s, err := store.Open(appConfig.Store)
	if err != nil {
		return store.Run{}, err
	}
	defer s.Close()

	entries := make([]store.Entry, len(results))
	for i := range results {
		entries[i] = store.Entry{Review: reviews[i], Result: results[i]}
	}
	return s.SaveRun(ctx, source, criteria, scoring, entries)
}

var testReviewCmd = &cobra.Command{
	Use:   "test-review <text>",
	Short: "Score a single review text and show the breakdown",
	Long: `Test-review scores one review text and prints every component score with
its rationale. Criteria flags default to a generic therapy so that the
command can be used to explore the scoring without a trial in mind.`,
	Args: cobra.ExactArgs(1),
	RunE: runTestReview,
}

func runTestReview(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	if criteria.TherapyName == "" {
		criteria.TherapyName = "Generic Therapy"
	}
	if criteria.ConditionTreated == "" {
		criteria.ConditionTreated = "General"
	}
	if criteria.Year == 0 {
		criteria.Year = 2020
	}
	platform, _ := cmd.Flags().GetString("platform")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := commandContext(cmd)
	eval, closeFn, err := newEvaluator(ctx, scoringConfig(cmd, appConfig.Scoring), appConfig)
	if err != nil {
		return err
	}
	defer closeFn()

	review := types.ReviewRecord{
		Text:     args[0],
		Metadata: types.Metadata{SourcePlatform: platform},
	}
	result, err := eval.Evaluate(ctx, review, criteria)
	if err != nil {
		return err
	}

	if asJSON {
		return writeResults(os.Stdout, formatJSON, []types.ReviewRecord{review}, []types.ReliabilityResult{result})
	}
	printResult(args[0], result)
	return nil
}

// printResult writes one result with its rationale in plain text.
func printResult(text string, r types.ReliabilityResult) {
	fmt.Printf("Review: %s\n\n", truncate(oneLine(text), 100))
	fmt.Printf("Reliable:      %t\n", r.IsReliable)
	fmt.Printf("Overall score: %.3f\n", r.OverallScore)
	if r.DetectorUsed {
		fmt.Println("AI detector:   used")
	}
	fmt.Println()
	for _, k := range types.Components {
		cs := r.Breakdown[k]
		fmt.Printf("%-15s %.3f (weight %.2f)\n", k, cs.Score, r.Weights.Get(k))
		for _, why := range cs.Rationale {
			fmt.Printf("    - %s\n", why)
		}
	}
	if len(r.Flags) > 0 {
		fmt.Printf("\nFlags: %s\n", strings.Join(r.Flags, ", "))
	}
}

func init() {
	addCriteriaFlags(analyzeCmd)
	analyzeCmd.Flags().String("format", formatTable, "output format: table, json, or csv")
	analyzeCmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	analyzeCmd.Flags().Int("workers", 4, "concurrent evaluations")
	analyzeCmd.Flags().Bool("save", false, "save the run to the results database")
	analyzeCmd.Flags().Int("top", 5, "list this many top reliable reviews after the summary (0 to disable)")

	addCriteriaFlags(testReviewCmd)
	testReviewCmd.Flags().String("platform", "", "source platform of the review, e.g. drugs.com")
	testReviewCmd.Flags().Bool("json", false, "print the full result as JSON")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(testReviewCmd)
}
