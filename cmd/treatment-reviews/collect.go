// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/treatment-reviews/internal/crawler"
	"github.com/pdiddy/treatment-reviews/internal/reliability"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect reviews from review sites and score them",
	Long: `Collect searches the configured review platforms (drugs.com, webmd,
patientslikeme, reddit) for the therapy, scores every review it finds
against the trial criteria, and writes the results as JSON.

Platforms that fail are reported and skipped; collection continues with the
rest. Requests are spaced by crawler.delay and retried on rate limiting.

By default only reliable reviews are written; use --include-unreliable to
keep all of them. Use --save to record the run in the results database.`,
	RunE: runCollect,
}

func runCollect(cmd *cobra.Command, args []string) error {
	maxReviews, _ := cmd.Flags().GetInt("max-reviews")
	platforms, _ := cmd.Flags().GetStringSlice("platform")
	subreddit, _ := cmd.Flags().GetString("subreddit")
	output, _ := cmd.Flags().GetString("output")
	includeUnreliable, _ := cmd.Flags().GetBool("include-unreliable")
	workers, _ := cmd.Flags().GetInt("workers")
	save, _ := cmd.Flags().GetBool("save")

	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := criteria.Validate(time.Now()); err != nil {
		return err
	}

	crawlCfg := appConfig.Crawler
	if cmd.Flags().Changed("max-reviews") {
		crawlCfg.MaxReviews = maxReviews
	}
	if len(platforms) > 0 {
		crawlCfg.Platforms = platforms
	}
	sources, err := crawler.NewSources(crawlCfg, appLog)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	fmt.Fprintf(os.Stderr, "Collecting reviews for: %s\n", criteria.TherapyName)
	fmt.Fprintf(os.Stderr, "Condition:              %s\n", criteria.ConditionTreated)
	fmt.Fprintf(os.Stderr, "Trial year:             %d\n", criteria.Year)

	q := crawler.Query{
		Therapy:   criteria.TherapyName,
		Subreddit: subreddit,
		MaxPages:  crawlCfg.MaxPages,
		Limit:     crawlCfg.MaxReviews,
	}
	reviews, sum, err := crawler.Collect(ctx, sources, q, crawlCfg.MaxReviews, appLog)
	if err != nil {
		return err
	}
	printCollectSummary(sum)
	if len(reviews) == 0 {
		return fmt.Errorf("no reviews found for %q", criteria.TherapyName)
	}

	scoring := scoringConfig(cmd, appConfig.Scoring)
	eval, closeFn, err := newEvaluator(ctx, scoring, appConfig)
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := eval.EvaluateBatch(ctx, reviews, criteria, workers)
	if err != nil {
		return err
	}

	if save {
		run, err := saveRun(ctx, "crawl", criteria, eval.Config(), reviews, results)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved run %s (%d results)\n", run.ID, run.Total)
	}

	keptReviews, keptResults := reviews, results
	if !includeUnreliable {
		keptReviews, keptResults = reliableOnly(reviews, results)
	}

	if output == "" {
		output = defaultCollectOutput(criteria.TherapyName, time.Now())
	}
	out, err := createOutput(output)
	if err != nil {
		return err
	}
	if err := writeResults(out, formatJSON, keptReviews, keptResults); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	summary := reliability.Summarize(results)
	fmt.Fprintf(os.Stderr, "\nFound %d reliable reviews out of %d total\n", summary.Reliable, summary.Total())
	fmt.Fprintf(os.Stderr, "Saved %d reviews to: %s\n\n", len(keptResults), output)
	summary.Print(os.Stderr)
	return nil
}

// printCollectSummary prints per-platform counts and failures.
func printCollectSummary(sum crawler.Summary) {
	names := make([]string, 0, len(sum.PerSource))
	for name := range sum.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-16s %d reviews\n", name, sum.PerSource[name])
	}
	if sum.HasFailures() {
		failed := make([]string, 0, len(sum.Failures))
		for name := range sum.Failures {
			failed = append(failed, name)
		}
		sort.Strings(failed)
		for _, name := range failed {
			fmt.Fprintf(os.Stderr, "  %-16s failed: %s\n", name, sum.Failures[name])
		}
	}
	if sum.Duplicates > 0 {
		fmt.Fprintf(os.Stderr, "  %d duplicate reviews dropped\n", sum.Duplicates)
	}
	if sum.Truncated > 0 {
		fmt.Fprintf(os.Stderr, "  %d reviews over the limit dropped\n", sum.Truncated)
	}
}

func reliableOnly(reviews []types.ReviewRecord, results []types.ReliabilityResult) ([]types.ReviewRecord, []types.ReliabilityResult) {
	var rv []types.ReviewRecord
	var rs []types.ReliabilityResult
	for i, r := range results {
		if r.IsReliable {
			rv = append(rv, reviews[i])
			rs = append(rs, r)
		}
	}
	return rv, rs
}

// defaultCollectOutput names the output file after the therapy and time,
// e.g. data/sertraline_reviews_20260102_150405.json.
func defaultCollectOutput(therapy string, now time.Time) string {
	name := strings.ToLower(strings.Join(strings.Fields(therapy), "_"))
	return filepath.Join("data", fmt.Sprintf("%s_reviews_%s.json", name, now.Format("20060102_150405")))
}

func init() {
	addCriteriaFlags(collectCmd)
	collectCmd.Flags().IntP("max-reviews", "m", 0, "maximum reviews to collect (default from config: crawler.max_reviews)")
	collectCmd.Flags().StringSlice("platform", nil, "platforms to crawl (default from config: crawler.platforms)")
	collectCmd.Flags().String("subreddit", "", "limit the reddit search to one subreddit")
	collectCmd.Flags().StringP("output", "o", "", "output JSON file (default: data/<therapy>_reviews_<time>.json)")
	collectCmd.Flags().Bool("include-unreliable", false, "include unreliable reviews in the output")
	collectCmd.Flags().Int("workers", 4, "concurrent evaluations")
	collectCmd.Flags().Bool("save", false, "save the run to the results database")

	rootCmd.AddCommand(collectCmd)
}
