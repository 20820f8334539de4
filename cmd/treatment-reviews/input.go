// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/treatment-reviews/internal/detector"
	"github.com/pdiddy/treatment-reviews/internal/reliability"
	"github.com/pdiddy/treatment-reviews/internal/trials"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// Output formats for evaluated reviews.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

// loadReviews reads a review file. JSON and YAML are accepted; each item
// may be a review object or a bare string of review text. Items with no
// text are dropped.
func loadReviews(path string) ([]types.ReviewRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reviews: %w", err)
	}

	var raw []any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var nodes []yaml.Node
		if err := yaml.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return decodeYAMLReviews(nodes)
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	reviews := make([]types.ReviewRecord, 0, len(raw))
	for i, item := range raw {
		var r types.ReviewRecord
		switch v := item.(type) {
		case string:
			r.Text = v
		case map[string]any:
			b, _ := json.Marshal(v)
			if err := json.Unmarshal(b, &r); err != nil {
				return nil, fmt.Errorf("review %d: %w", i+1, err)
			}
		default:
			return nil, fmt.Errorf("review %d: expected an object or a string", i+1)
		}
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

func decodeYAMLReviews(nodes []yaml.Node) ([]types.ReviewRecord, error) {
	reviews := make([]types.ReviewRecord, 0, len(nodes))
	for i := range nodes {
		var r types.ReviewRecord
		switch nodes[i].Kind {
		case yaml.ScalarNode:
			r.Text = nodes[i].Value
		case yaml.MappingNode:
			if err := nodes[i].Decode(&r); err != nil {
				return nil, fmt.Errorf("review %d: %w", i+1, err)
			}
		default:
			return nil, fmt.Errorf("review %d: expected a mapping or a string", i+1)
		}
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// addCriteriaFlags registers the trial criteria flags shared by analyze,
// test-review, and collect.
func addCriteriaFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("criteria", "f", "", "criteria YAML file (see search-trials --save-criteria)")
	cmd.Flags().StringP("therapy-name", "t", "", "name of the therapy or treatment")
	cmd.Flags().StringP("condition", "c", "", "medical condition being treated")
	cmd.Flags().IntP("trial-year", "y", 0, "year of the clinical trial")
	cmd.Flags().IntP("duration-weeks", "d", 0, "treatment duration in weeks")
	cmd.Flags().String("dosage", "", "trial dosage, e.g. 50mg")
	cmd.Flags().String("frequency", "", "dosing frequency, e.g. daily")
	cmd.Flags().StringSlice("alias", nil, "other names for the therapy (repeatable)")
	cmd.Flags().StringSlice("side-effect", nil, "side effects reported in the trial (repeatable)")
	cmd.Flags().Float64("threshold", 0, "reliability threshold in [0, 1] (default from config)")
	cmd.Flags().Bool("ai-detection", false, "blend the external AI-text detector into authenticity")
}

// criteriaFromFlags builds criteria from --criteria, then applies any
// explicitly set flags on top. Validation happens at evaluation time.
func criteriaFromFlags(cmd *cobra.Command) (types.ClinicalTrialCriteria, error) {
	var c types.ClinicalTrialCriteria
	if path, _ := cmd.Flags().GetString("criteria"); path != "" {
		loaded, err := trials.LoadCriteria(path)
		if err != nil {
			return c, err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("therapy-name") {
		c.TherapyName, _ = flags.GetString("therapy-name")
	}
	if flags.Changed("condition") {
		c.ConditionTreated, _ = flags.GetString("condition")
	}
	if flags.Changed("trial-year") {
		c.Year, _ = flags.GetInt("trial-year")
	}
	if flags.Changed("duration-weeks") {
		c.DurationWeeks, _ = flags.GetInt("duration-weeks")
	}
	if flags.Changed("dosage") {
		c.Dosage, _ = flags.GetString("dosage")
	}
	if flags.Changed("frequency") {
		c.Frequency, _ = flags.GetString("frequency")
	}
	if flags.Changed("alias") {
		c.TherapyAliases, _ = flags.GetStringSlice("alias")
	}
	if flags.Changed("side-effect") {
		c.SideEffectsMentioned, _ = flags.GetStringSlice("side-effect")
	}
	return c, nil
}

// scoringConfig returns the configured scoring settings with the command's
// --threshold and --ai-detection overrides applied.
func scoringConfig(cmd *cobra.Command, cfg types.ScoringConfig) types.ScoringConfig {
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("ai-detection") {
		cfg.EnableAdvancedAIDetection, _ = cmd.Flags().GetBool("ai-detection")
	}
	return cfg
}

// newEvaluator builds an Evaluator, attaching the cached, circuit-broken
// detector when advanced AI detection is enabled. The returned function
// releases the detector's cache connections.
func newEvaluator(ctx context.Context, scoring types.ScoringConfig, cfg types.Config) (*reliability.Evaluator, func() error, error) {
	closeFn := func() error { return nil }
	opts := []reliability.Option{reliability.WithLogger(appLog)}

	if scoring.EnableAdvancedAIDetection {
		d, c, err := detector.Build(ctx, cfg.Detector, scoring.AIDetectionModel, appLog)
		if err != nil {
			return nil, nil, err
		}
		if !d.Available(ctx) {
			appLog.Warn("AI detection enabled but no detector API key is configured; using pattern analysis only")
		}
		opts = append(opts, reliability.WithDetector(d))
		closeFn = c
	}

	eval, err := reliability.New(scoring, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return eval, closeFn, nil
}

// writeResults emits evaluated reviews in the requested format.
func writeResults(w io.Writer, format string, reviews []types.ReviewRecord, results []types.ReliabilityResult) error {
	switch format {
	case formatJSON:
		type item struct {
			Review types.ReviewRecord      `json:"review"`
			Result types.ReliabilityResult `json:"result"`
		}
		out := make([]item, len(results))
		for i := range results {
			out[i] = item{Review: reviews[i], Result: results[i]}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(types.FlatHeader); err != nil {
			return err
		}
		for i, r := range results {
			if err := cw.Write(r.Flat(reviewID(reviews[i], i)).Row()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case formatTable, "":
		fmt.Fprintf(w, "%-14s %-8s %-9s %-6s %-8s %-6s %-8s %s\n",
			"ID", "OVERALL", "RELIABLE", "AUTH", "CLINICAL", "CRED", "TEMPORAL", "TEXT")
		fmt.Fprintln(w, strings.Repeat("-", 110))
		for i, r := range results {
			fmt.Fprintf(w, "%-14s %-8.3f %-9t %-6.2f %-8.2f %-6.2f %-8.2f %s\n",
				truncate(reviewID(reviews[i], i), 14),
				r.OverallScore, r.IsReliable,
				r.Component(types.ComponentAuthenticity),
				r.Component(types.ComponentClinicalMatch),
				r.Component(types.ComponentCredibility),
				r.Component(types.ComponentTemporal),
				truncate(oneLine(reviews[i].Text), 40),
			)
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q (use table, json, or csv)", format)
}

// reviewID returns the review's ID, or its 1-based position in the batch.
func reviewID(r types.ReviewRecord, i int) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("review-%d", i+1)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// createOutput opens path for writing, or returns stdout when path is empty.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
