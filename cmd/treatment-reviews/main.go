// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the treatment-reviews CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/treatment-reviews/internal/logging"
	"github.com/pdiddy/treatment-reviews/internal/secrets"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// appConfig and appLog are populated by the root command before any
// subcommand runs.
var (
	appConfig types.Config
	appLog    *logrus.Logger
)

// configErr records a config file that was named but could not be read.
var configErr error

// rootCmd is the base command for the treatment-reviews CLI.
var rootCmd = &cobra.Command{
	Use:   "treatment-reviews",
	Short: "Score patient treatment reviews for reliability against a clinical trial",
	Long: `treatment-reviews scores patient-written treatment reviews for how far they
can be trusted as evidence about a specific clinical trial. Each review gets
authenticity, clinical match, source credibility, and temporal relevance
scores, a weighted overall score, and a reliable or unreliable verdict.

Reviews can be read from a file (analyze), collected from review sites
(collect), or posted to the HTTP API (serve). Results can be saved to a local
SQLite store and queried or exported later (results).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		if err != nil {
			return err
		}

		s, err := secrets.Load(".secrets/", log)
		if err != nil {
			return err
		}
		secrets.Apply(&cfg, s)
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		appConfig = cfg
		appLog = log
		return nil
	},
}

// legacyEnv maps config keys to the environment names the tool has always
// honoured, in addition to the TREATMENT_REVIEWS_ prefixed form.
var legacyEnv = map[string]string{
	"scoring.threshold":                    "RELIABILITY_THRESHOLD",
	"scoring.enable_advanced_ai_detection": "ENABLE_ADVANCED_AI_DETECTION",
	"crawler.delay":                        "CRAWLER_DELAY",
	"crawler.max_retries":                  "CRAWLER_MAX_RETRIES",
	"crawler.timeout":                      "CRAWLER_TIMEOUT",
	"detector.redis_host":                  "REDIS_HOST",
	"detector.redis_port":                  "REDIS_PORT",
	"detector.use_redis_cache":             "USE_REDIS_CACHE",
	"detector.api_key":                     "HUGGINGFACE_API_KEY",
}

const envPrefix = "TREATMENT_REVIEWS"

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./treatment-reviews.yaml or ~/.config/treatment-reviews/treatment-reviews.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "results database path (default from config: store.db_path)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("store.db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	setDefaults(viper.GetViper(), types.DefaultConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("treatment-reviews")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "treatment-reviews"))
		}
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config file: %w", err)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
}

// bindEnv enables TREATMENT_REVIEWS_<SECTION>_<KEY> variables and the
// legacy names in legacyEnv.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		v.BindEnv(key, prefixed, name)
	}
}

// setDefaults registers every config key so that AutomaticEnv can find it.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("scoring.weights.authenticity", d.Scoring.Weights.Authenticity)
	v.SetDefault("scoring.weights.clinical_match", d.Scoring.Weights.ClinicalMatch)
	v.SetDefault("scoring.weights.credibility", d.Scoring.Weights.Credibility)
	v.SetDefault("scoring.weights.temporal", d.Scoring.Weights.Temporal)
	v.SetDefault("scoring.threshold", d.Scoring.Threshold)
	v.SetDefault("scoring.authenticity_floor", d.Scoring.AuthenticityFloor)
	v.SetDefault("scoring.clinical_floor", d.Scoring.ClinicalFloor)
	v.SetDefault("scoring.renormalize_weights", d.Scoring.RenormalizeWeights)
	v.SetDefault("scoring.enable_advanced_ai_detection", d.Scoring.EnableAdvancedAIDetection)
	v.SetDefault("scoring.ai_detection_model", d.Scoring.AIDetectionModel)
	v.SetDefault("scoring.detector_blend", d.Scoring.DetectorBlend)
	v.SetDefault("scoring.detector_timeout", d.Scoring.DetectorTimeout)

	v.SetDefault("crawler.timeout", d.Crawler.Timeout)
	v.SetDefault("crawler.user_agent", d.Crawler.UserAgent)
	v.SetDefault("crawler.delay", d.Crawler.Delay)
	v.SetDefault("crawler.max_retries", d.Crawler.MaxRetries)
	v.SetDefault("crawler.max_pages", d.Crawler.MaxPages)
	v.SetDefault("crawler.max_reviews", d.Crawler.MaxReviews)
	v.SetDefault("crawler.platforms", d.Crawler.Platforms)

	v.SetDefault("detector.timeout", d.Detector.Timeout)
	v.SetDefault("detector.user_agent", d.Detector.UserAgent)
	v.SetDefault("detector.endpoint", d.Detector.Endpoint)
	v.SetDefault("detector.api_key", d.Detector.APIKey)
	v.SetDefault("detector.requests_per_second", d.Detector.RequestsPerSecond)
	v.SetDefault("detector.cache_size", d.Detector.CacheSize)
	v.SetDefault("detector.breaker_failures", d.Detector.BreakerFailures)
	v.SetDefault("detector.breaker_timeout", d.Detector.BreakerTimeout)
	v.SetDefault("detector.use_redis_cache", d.Detector.UseRedisCache)
	v.SetDefault("detector.redis_host", d.Detector.RedisHost)
	v.SetDefault("detector.redis_port", d.Detector.RedisPort)
	v.SetDefault("detector.redis_db", d.Detector.RedisDB)
	v.SetDefault("detector.redis_password", d.Detector.RedisPassword)
	v.SetDefault("detector.cache_ttl", d.Detector.CacheTTL)

	v.SetDefault("store.db_path", d.Store.DBPath)
	v.SetDefault("store.max_results", d.Store.MaxResults)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.workers", d.Server.Workers)
	v.SetDefault("server.max_batch_size", d.Server.MaxBatchSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// loadConfig decodes the global viper state into a Config.
func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

// decodeConfig starts from a zero Config; setDefaults supplies every key, and
// decoding over pre-filled slices would merge them element by element.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
