// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/internal/trials"
)

var searchTrialsCmd = &cobra.Command{
	Use:   "search-trials",
	Short: "Search ClinicalTrials.gov for studies of a therapy",
	Long: `Search-trials queries the ClinicalTrials.gov registry for studies by
intervention and, optionally, condition and overall status.

With --save-criteria, the study chosen by --pick (1-based, default the first)
is turned into a criteria file that analyze and collect accept via --criteria.
Review the file before use: duration, dosage, and side effects are not part of
the registry summary and must be filled in by hand.`,
	RunE: runSearchTrials,
}

func runSearchTrials(cmd *cobra.Command, args []string) error {
	therapy, _ := cmd.Flags().GetString("therapy-name")
	condition, _ := cmd.Flags().GetString("condition")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save-criteria")
	pick, _ := cmd.Flags().GetInt("pick")

	ctx := commandContext(cmd)

	f := httputil.NewFetcher(appConfig.Crawler.HTTPConfig,
		httputil.WithRetries(appConfig.Crawler.MaxRetries),
		httputil.WithLogger(appLog))
	client := trials.NewClient(f)

	q := trials.Query{Therapy: therapy, Condition: condition, Status: status, Limit: limit}
	fmt.Fprintf(os.Stderr, "Searching clinical trials for: %s\n", therapy)
	if condition != "" {
		fmt.Fprintf(os.Stderr, "Condition: %s\n", condition)
	}
	studies, err := client.Search(ctx, q)
	if err != nil {
		return err
	}
	if len(studies) == 0 {
		fmt.Fprintln(os.Stderr, "No trials found.")
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(studies); err != nil {
			return err
		}
	} else {
		fmt.Printf("Found %d clinical trials:\n", len(studies))
		for i, s := range studies {
			fmt.Printf("\n%d. %s\n", i+1, s.Title)
			fmt.Printf("   NCT ID:     %s\n", s.NCTID)
			fmt.Printf("   Status:     %s\n", s.Status)
			if s.StartDate != "" {
				fmt.Printf("   Start:      %s\n", s.StartDate)
			}
			if len(s.Conditions) > 0 {
				fmt.Printf("   Conditions: %s\n", strings.Join(firstN(s.Conditions, 3), ", "))
			}
			if len(s.Phases) > 0 {
				fmt.Printf("   Phases:     %s\n", strings.Join(s.Phases, ", "))
			}
			fmt.Printf("   URL:        %s\n", s.URL)
		}
	}

	if savePath != "" {
		if pick < 1 || pick > len(studies) {
			return fmt.Errorf("--pick %d is out of range (1-%d)", pick, len(studies))
		}
		chosen := studies[pick-1]
		c := trials.SuggestCriteria(chosen, therapy)
		if err := trials.SaveCriteria(savePath, c, &chosen); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved criteria from %s to %s\n", chosen.NCTID, savePath)
	}
	return nil
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func init() {
	searchTrialsCmd.Flags().StringP("therapy-name", "t", "", "name of the therapy or intervention")
	searchTrialsCmd.Flags().StringP("condition", "c", "", "medical condition (optional)")
	searchTrialsCmd.Flags().String("status", "", "overall status filter, e.g. COMPLETED or RECRUITING")
	searchTrialsCmd.Flags().Int("limit", 10, "maximum studies to return")
	searchTrialsCmd.Flags().Bool("json", false, "print studies as JSON")
	searchTrialsCmd.Flags().String("save-criteria", "", "write criteria derived from a study to this YAML file")
	searchTrialsCmd.Flags().Int("pick", 1, "which study (1-based) to derive criteria from")
	searchTrialsCmd.MarkFlagRequired("therapy-name")

	rootCmd.AddCommand(searchTrialsCmd)
}
