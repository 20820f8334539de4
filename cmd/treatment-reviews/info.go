// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/treatment-reviews/internal/clinical"
	"github.com/pdiddy/treatment-reviews/internal/crawler"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

var listKeywordsCmd = &cobra.Command{
	Use:   "list-keywords",
	Short: "List the medical keyword groups used for clinical matching",
	RunE: func(cmd *cobra.Command, args []string) error {
		condition, _ := cmd.Flags().GetString("condition")
		return listKeywords(os.Stdout, condition)
	},
}

func listKeywords(w io.Writer, condition string) error {
	if condition == "" {
		fmt.Fprintln(w, "Available medical condition categories:")
		for _, c := range clinical.Conditions() {
			fmt.Fprintf(w, "  %-14s %s\n", c, displayName(c))
		}
		fmt.Fprintln(w, "\nUse --condition to see keywords for a specific category.")
		return nil
	}

	kw := clinical.KeywordsFor(condition)
	if kw == nil {
		return fmt.Errorf("unknown condition %q (known: %s)", condition, strings.Join(clinical.Conditions(), ", "))
	}
	fmt.Fprintf(w, "Keywords for %s:\n", displayName(condition))
	for _, k := range kw {
		fmt.Fprintf(w, "  - %s\n", k)
	}
	return nil
}

// displayName turns "chronic_pain" into "Chronic Pain".
func displayName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var configInfoCmd = &cobra.Command{
	Use:   "config-info",
	Short: "Show the effective configuration",
	Long: `Config-info prints the configuration after defaults, the config file,
environment variables, and .secrets/ have been applied. API keys and
passwords are reported as configured or not, never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")
		if asYAML {
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(maskSecrets(appConfig))
		}
		printConfig(os.Stdout, appConfig, viper.ConfigFileUsed())
		return nil
	},
}

// maskSecrets replaces credentials with a placeholder.
func maskSecrets(cfg types.Config) types.Config {
	if cfg.Detector.APIKey != "" {
		cfg.Detector.APIKey = "********"
	}
	cfg.Detector.RedisPassword = ""
	return cfg
}

func printConfig(w io.Writer, cfg types.Config, file string) {
	if file == "" {
		file = "(none, using defaults)"
	}
	fmt.Fprintf(w, "Config file: %s\n\n", file)

	sc := cfg.Scoring
	fmt.Fprintln(w, "Scoring:")
	fmt.Fprintf(w, "  Reliability threshold:  %.2f\n", sc.Threshold)
	fmt.Fprintf(w, "  Weights:                authenticity %.2f, clinical %.2f, credibility %.2f, temporal %.2f\n",
		sc.Weights.Authenticity, sc.Weights.ClinicalMatch, sc.Weights.Credibility, sc.Weights.Temporal)
	fmt.Fprintf(w, "  Hard gates:             authenticity < %.2f, clinical match < %.2f\n", sc.AuthenticityFloor, sc.ClinicalFloor)
	fmt.Fprintf(w, "  Advanced AI detection:  %t (model %s, blend %.2f)\n", sc.EnableAdvancedAIDetection, sc.AIDetectionModel, sc.DetectorBlend)

	fmt.Fprintln(w, "\nCrawler:")
	fmt.Fprintf(w, "  Delay between requests: %s\n", cfg.Crawler.Delay)
	fmt.Fprintf(w, "  Max retries:            %d\n", cfg.Crawler.MaxRetries)
	fmt.Fprintf(w, "  Timeout:                %s\n", cfg.Crawler.Timeout)
	fmt.Fprintf(w, "  Platforms:              %s\n", strings.Join(cfg.Crawler.Platforms, ", "))
	fmt.Fprintf(w, "  Known platforms:        %s\n", strings.Join(crawler.Platforms(), ", "))

	fmt.Fprintln(w, "\nDetector cache:")
	fmt.Fprintf(w, "  In-process entries:     %d\n", cfg.Detector.CacheSize)
	fmt.Fprintf(w, "  Redis cache enabled:    %t (%s:%d)\n", cfg.Detector.UseRedisCache, cfg.Detector.RedisHost, cfg.Detector.RedisPort)

	fmt.Fprintln(w, "\nStorage:")
	fmt.Fprintf(w, "  Results database:       %s\n", cfg.Store.DBPath)
	fmt.Fprintf(w, "  API listen address:     %s\n", cfg.Server.Addr)

	fmt.Fprintln(w, "\nAPI keys configured:")
	fmt.Fprintf(w, "  Hugging Face:           %s\n", configured(cfg.Detector.APIKey))
	fmt.Fprintf(w, "  Redis password:         %s\n", configured(cfg.Detector.RedisPassword))
}

func configured(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}

func init() {
	listKeywordsCmd.Flags().StringP("condition", "c", "", "show keywords for one condition category")
	configInfoCmd.Flags().Bool("yaml", false, "print the effective configuration as YAML")

	rootCmd.AddCommand(listKeywordsCmd)
	rootCmd.AddCommand(configInfoCmd)
}
