// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/treatment-reviews/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query and export saved evaluation runs",
	Long: `Results works with the SQLite database that analyze --save, collect --save,
and the HTTP API write to. Use subcommands to list runs, query results with
full-text search and filters, export them, or delete a run.`,
}

// --- runs subcommand ---

var resultsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved runs, newest first",
	RunE:  runResultsRuns,
}

func runResultsRuns(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := store.Open(appConfig.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(commandContext(cmd))
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs saved.")
		return nil
	}
	fmt.Printf("%-36s  %-19s  %-20s  %-20s  %8s\n", "RUN", "CREATED", "THERAPY", "SOURCE", "RELIABLE")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %-20s  %-20s  %4d/%-4d\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(r.Criteria.TherapyName, 20),
			truncate(r.Source, 20),
			r.Reliable, r.Total,
		)
	}
	return nil
}

// --- list subcommand ---

var resultsListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "Query saved results with full-text search and filters",
	Long: `List searches saved results. A query argument runs a full-text search over
review text (ranked by relevance); without one, results are ordered by
overall score. Filters narrow by run, platform, verdict, and minimum score.`,
	RunE: runResultsList,
}

func runResultsList(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	opts := queryOptions(cmd, args)

	s, err := store.Open(appConfig.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.Retrieve(commandContext(cmd), opts)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("%-8s  %-14s  %-7s  %-8s  %-14s  %s\n", "RUN", "REVIEW", "SCORE", "RELIABLE", "PLATFORM", "TEXT")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range records {
		fmt.Printf("%-8s  %-14s  %-7.3f  %-8t  %-14s  %s\n",
			truncate(r.RunID, 8),
			truncate(r.ID, 14),
			r.OverallScore,
			r.IsReliable,
			truncate(r.Platform, 14),
			truncate(oneLine(r.Text), 48),
		)
	}
	fmt.Printf("\n%d result(s)\n", len(records))
	return nil
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export saved results as JSON, CSV, or YAML",
	Long: `Export writes saved results to stdout or --output in the chosen format. It
accepts the same query and filters as list; with none, every result is
exported.`,
	RunE: runResultsExport,
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	opts := queryOptions(cmd, args)

	s, err := store.Open(appConfig.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := createOutput(output)
	if err != nil {
		return err
	}
	if err := s.Export(commandContext(cmd), out, format, opts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

// --- delete subcommand ---

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run and its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(appConfig.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteRun(commandContext(cmd), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", args[0])
		return nil
	},
}

// queryOptions reads the shared filter flags.
func queryOptions(cmd *cobra.Command, args []string) store.QueryOptions {
	runID, _ := cmd.Flags().GetString("run")
	platform, _ := cmd.Flags().GetString("platform")
	reliable, _ := cmd.Flags().GetBool("reliable")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	limit, _ := cmd.Flags().GetInt("limit")
	return store.QueryOptions{
		Query:        strings.Join(args, " "),
		RunID:        runID,
		Platform:     platform,
		ReliableOnly: reliable,
		MinScore:     minScore,
		MaxResults:   limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("run", "", "filter by run ID")
	cmd.Flags().String("platform", "", "filter by source platform")
	cmd.Flags().Bool("reliable", false, "only reliable reviews")
	cmd.Flags().Float64("min-score", 0, "minimum overall score")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	resultsRunsCmd.Flags().Bool("json", false, "print runs as JSON")

	addFilterFlags(resultsListCmd)
	resultsListCmd.Flags().Int("limit", 0, "maximum results (default from config: store.max_results)")
	resultsListCmd.Flags().Bool("json", false, "print results as JSON")

	addFilterFlags(resultsExportCmd)
	resultsExportCmd.Flags().Int("limit", 0, "maximum results (default: all)")
	resultsExportCmd.Flags().String("format", store.FormatJSON, "export format: json, csv, or yaml")
	resultsExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	resultsCmd.AddCommand(resultsRunsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	resultsCmd.AddCommand(resultsDeleteCmd)
	rootCmd.AddCommand(resultsCmd)
}
