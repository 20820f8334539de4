// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/treatment-reviews/internal/trials"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadReviewsJSON(t *testing.T) {
	path := writeFile(t, "reviews.json", `[
		{"id": "a", "text": "Took sertraline for 8 weeks.", "rating": 7,
		 "metadata": {"source_platform": "reddit", "post_date": "2024-01-02", "upvotes": 12}},
		"Just a bare review string",
		{"text": "   "}
	]`)

	reviews, err := loadReviews(path)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, "a", reviews[0].ID)
	assert.Equal(t, "reddit", reviews[0].Metadata.SourcePlatform)
	assert.Equal(t, 12, reviews[0].Metadata.Upvotes)
	require.NotNil(t, reviews[0].Metadata.PostTime())
	assert.Equal(t, 2024, reviews[0].Metadata.PostTime().Year())

	assert.Equal(t, "Just a bare review string", reviews[1].Text)
	assert.Empty(t, reviews[1].ID)
}

func TestLoadReviewsYAML(t *testing.T) {
	path := writeFile(t, "reviews.yaml", `
- id: y1
  text: Metformin helped my blood sugar after three months.
  metadata:
    source_platform: drugs.com
    post_date: 2023
    helpful_count: 4
- A plain string review
`)

	reviews, err := loadReviews(path)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "drugs.com", reviews[0].Metadata.SourcePlatform)
	assert.Equal(t, 4, reviews[0].Metadata.HelpfulCount)
	assert.Equal(t, 2023, reviews[0].Metadata.PostTime().Year())
	assert.Equal(t, "A plain string review", reviews[1].Text)
}

func TestLoadReviewsErrors(t *testing.T) {
	_, err := loadReviews(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loadReviews(writeFile(t, "bad.json", `{"not": "a list"}`))
	assert.Error(t, err)

	_, err = loadReviews(writeFile(t, "nums.json", `[1, 2]`))
	assert.ErrorContains(t, err, "review 1")
}

func TestCriteriaFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addCriteriaFlags(cmd)
	require.NoError(t, cmd.Flags().Set("therapy-name", "Sertraline"))
	require.NoError(t, cmd.Flags().Set("condition", "depression"))
	require.NoError(t, cmd.Flags().Set("trial-year", "2019"))
	require.NoError(t, cmd.Flags().Set("alias", "Zoloft"))
	require.NoError(t, cmd.Flags().Set("side-effect", "nausea,insomnia"))

	c, err := criteriaFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Sertraline", c.TherapyName)
	assert.Equal(t, "depression", c.ConditionTreated)
	assert.Equal(t, 2019, c.Year)
	assert.Equal(t, []string{"Zoloft"}, c.TherapyAliases)
	assert.Equal(t, []string{"nausea", "insomnia"}, c.SideEffectsMentioned)
	assert.Zero(t, c.DurationWeeks)
}

func TestCriteriaFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	require.NoError(t, trials.SaveCriteria(path, types.ClinicalTrialCriteria{
		TherapyName:      "Metformin",
		ConditionTreated: "type 2 diabetes",
		Year:             2015,
		DurationWeeks:    12,
	}, nil))

	cmd := &cobra.Command{Use: "x"}
	addCriteriaFlags(cmd)
	require.NoError(t, cmd.Flags().Set("criteria", path))
	require.NoError(t, cmd.Flags().Set("trial-year", "2018"))

	c, err := criteriaFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Metformin", c.TherapyName)
	assert.Equal(t, 12, c.DurationWeeks)
	assert.Equal(t, 2018, c.Year)
}

func TestScoringConfigOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addCriteriaFlags(cmd)
	base := types.DefaultScoringConfig()

	got := scoringConfig(cmd, base)
	assert.Equal(t, base.Threshold, got.Threshold)

	require.NoError(t, cmd.Flags().Set("threshold", "0.75"))
	require.NoError(t, cmd.Flags().Set("ai-detection", "true"))
	got = scoringConfig(cmd, base)
	assert.Equal(t, 0.75, got.Threshold)
	assert.True(t, got.EnableAdvancedAIDetection)
}

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	bindEnv(v)
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestDecodeConfigEnv(t *testing.T) {
	t.Setenv("RELIABILITY_THRESHOLD", "0.7")
	t.Setenv("CRAWLER_DELAY", "2s")
	t.Setenv("USE_REDIS_CACHE", "true")
	t.Setenv("HUGGINGFACE_API_KEY", "hf-test")
	t.Setenv("TREATMENT_REVIEWS_CRAWLER_MAX_PAGES", "9")
	t.Setenv("TREATMENT_REVIEWS_LOGGING_FORMAT", "json")

	cfg, err := decodeConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Scoring.Threshold)
	assert.Equal(t, 2*time.Second, cfg.Crawler.Delay)
	assert.True(t, cfg.Detector.UseRedisCache)
	assert.Equal(t, "hf-test", cfg.Detector.APIKey)
	assert.Equal(t, 9, cfg.Crawler.MaxPages)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestDecodeConfigPrefixedEnvWins(t *testing.T) {
	t.Setenv("RELIABILITY_THRESHOLD", "0.7")
	t.Setenv("TREATMENT_REVIEWS_SCORING_THRESHOLD", "0.8")

	cfg, err := decodeConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Scoring.Threshold)
}

func TestDecodeConfigFile(t *testing.T) {
	path := writeFile(t, "treatment-reviews.yaml", `
scoring:
  threshold: 0.5
  weights:
    authenticity: 0.4
crawler:
  platforms: [reddit]
  user_agent: test-agent/1.0
store:
  db_path: /tmp/reviews.db
`)
	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Scoring.Threshold)
	assert.Equal(t, 0.4, cfg.Scoring.Weights.Authenticity)
	assert.Equal(t, 0.30, cfg.Scoring.Weights.ClinicalMatch)
	assert.Equal(t, []string{"reddit"}, cfg.Crawler.Platforms)
	assert.Equal(t, "test-agent/1.0", cfg.Crawler.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Crawler.Timeout)
	assert.Equal(t, "/tmp/reviews.db", cfg.Store.DBPath)
}

func sampleResults() ([]types.ReviewRecord, []types.ReliabilityResult) {
	reviews := []types.ReviewRecord{
		{ID: "r1", Text: "First review\nwith a newline"},
		{Text: "Second review"},
	}
	results := []types.ReliabilityResult{
		{OverallScore: 0.82, IsReliable: true, Breakdown: map[string]types.ComponentScore{
			types.ComponentAuthenticity: {Score: 0.9},
		}},
		{OverallScore: 0.31},
	}
	return reviews, results
}

func TestWriteResultsCSV(t *testing.T) {
	reviews, results := sampleResults()
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, formatCSV, reviews, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, types.FlatHeader, rows[0])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "0.8200", rows[1][1])
	assert.Equal(t, "review-2", rows[2][0])
}

func TestWriteResultsTableAndJSON(t *testing.T) {
	reviews, results := sampleResults()

	var table bytes.Buffer
	require.NoError(t, writeResults(&table, formatTable, reviews, results))
	out := table.String()
	assert.Contains(t, out, "OVERALL")
	assert.Contains(t, out, "First review with a newline")
	assert.Contains(t, out, "review-2")

	var js bytes.Buffer
	require.NoError(t, writeResults(&js, formatJSON, reviews, results))
	assert.Contains(t, js.String(), `"overall_score": 0.82`)

	assert.Error(t, writeResults(&js, "xml", reviews, results))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "héll...", truncate("héllo wörld", 7))
}

func TestDefaultCollectOutput(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t,
		filepath.Join("data", "vitamin_d_reviews_20260102_150405.json"),
		defaultCollectOutput("Vitamin  D", now))
}

func TestReliableOnly(t *testing.T) {
	reviews, results := sampleResults()
	rv, rs := reliableOnly(reviews, results)
	require.Len(t, rs, 1)
	assert.Equal(t, "r1", rv[0].ID)
}

func TestListKeywords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listKeywords(&buf, ""))
	assert.Contains(t, buf.String(), "Chronic Pain")

	buf.Reset()
	require.NoError(t, listKeywords(&buf, "diabetes"))
	assert.Contains(t, buf.String(), "insulin")

	assert.Error(t, listKeywords(&buf, "gout"))
}

func TestMaskSecrets(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Detector.APIKey = "hf-secret"
	cfg.Detector.RedisPassword = "pw"

	masked := maskSecrets(cfg)
	assert.Equal(t, "********", masked.Detector.APIKey)
	assert.Empty(t, masked.Detector.RedisPassword)
	assert.Equal(t, "hf-secret", cfg.Detector.APIKey)

	var buf bytes.Buffer
	printConfig(&buf, cfg, "")
	assert.NotContains(t, buf.String(), "hf-secret")
	assert.True(t, strings.Contains(buf.String(), "Hugging Face:           set"))
}
