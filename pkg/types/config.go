package types

import (
	"fmt"
	"math"
	"time"
)

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Weights are the per-component contributions to the overall score.
type Weights struct {
	Authenticity  float64 `json:"authenticity" yaml:"authenticity" mapstructure:"authenticity"`
	ClinicalMatch float64 `json:"clinical_match" yaml:"clinical_match" mapstructure:"clinical_match"`
	Credibility   float64 `json:"credibility" yaml:"credibility" mapstructure:"credibility"`
	Temporal      float64 `json:"temporal" yaml:"temporal" mapstructure:"temporal"`
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Authenticity + w.ClinicalMatch + w.Credibility + w.Temporal
}

// Get returns the weight for a breakdown key.
func (w Weights) Get(component string) float64 {
	switch component {
	case ComponentAuthenticity:
		return w.Authenticity
	case ComponentClinicalMatch:
		return w.ClinicalMatch
	case ComponentCredibility:
		return w.Credibility
	case ComponentTemporal:
		return w.Temporal
	}
	return 0
}

func (w Weights) scale(f float64) Weights {
	return Weights{
		Authenticity:  w.Authenticity * f,
		ClinicalMatch: w.ClinicalMatch * f,
		Credibility:   w.Credibility * f,
		Temporal:      w.Temporal * f,
	}
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{Authenticity: 0.35, ClinicalMatch: 0.30, Credibility: 0.20, Temporal: 0.15}
}

const weightTolerance = 1e-9

// ScoringConfig controls the reliability aggregator.
type ScoringConfig struct {
	Weights Weights `json:"weights" yaml:"weights" mapstructure:"weights"`

	// Threshold is the minimum overall score for a reliable verdict (default 0.6).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// AuthenticityFloor rejects reviews whose authenticity falls below it
	// regardless of overall score (default 0.3).
	AuthenticityFloor float64 `json:"authenticity_floor" yaml:"authenticity_floor" mapstructure:"authenticity_floor"`

	// ClinicalFloor rejects reviews whose clinical match falls below it
	// regardless of overall score (default 0.1).
	ClinicalFloor float64 `json:"clinical_floor" yaml:"clinical_floor" mapstructure:"clinical_floor"`

	// RenormalizeWeights rescales weights that do not sum to 1. When false
	// such weights are a ConfigurationError.
	RenormalizeWeights bool `json:"renormalize_weights" yaml:"renormalize_weights" mapstructure:"renormalize_weights"`

	// EnableAdvancedAIDetection blends an external detector into the
	// authenticity score when one is available.
	EnableAdvancedAIDetection bool `json:"enable_advanced_ai_detection" yaml:"enable_advanced_ai_detection" mapstructure:"enable_advanced_ai_detection"`

	// AIDetectionModel names the detector model.
	AIDetectionModel string `json:"ai_detection_model" yaml:"ai_detection_model" mapstructure:"ai_detection_model"`

	// DetectorBlend is the detector's share of the blended authenticity
	// score (default 0.5).
	DetectorBlend float64 `json:"detector_blend" yaml:"detector_blend" mapstructure:"detector_blend"`

	// DetectorTimeout bounds a single detector call.
	DetectorTimeout time.Duration `json:"detector_timeout" yaml:"detector_timeout" mapstructure:"detector_timeout"`
}

// DefaultScoringConfig returns the documented defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:            DefaultWeights(),
		Threshold:          0.6,
		AuthenticityFloor:  0.3,
		ClinicalFloor:      0.1,
		RenormalizeWeights: true,
		AIDetectionModel:   "roberta-base-openai-detector",
		DetectorBlend:      0.5,
		DetectorTimeout:    5 * time.Second,
	}
}

// Normalize validates c and returns a copy whose weights sum to 1.
// Errors are *ConfigurationError.
func (c ScoringConfig) Normalize() (ScoringConfig, error) {
	for _, k := range Components {
		w := c.Weights.Get(k)
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return c, &ConfigurationError{Field: "weights." + k, Reason: fmt.Sprintf("must be a non-negative number, got %v", w)}
		}
	}
	sum := c.Weights.Sum()
	if sum == 0 {
		return c, &ConfigurationError{Field: "weights", Reason: "must not all be zero"}
	}
	if math.Abs(sum-1) > weightTolerance {
		if !c.RenormalizeWeights {
			return c, &ConfigurationError{Field: "weights", Reason: fmt.Sprintf("sum to %.4f, expected 1", sum)}
		}
		c.Weights = c.Weights.scale(1 / sum)
	}

	for name, v := range map[string]float64{
		"threshold":          c.Threshold,
		"authenticity_floor": c.AuthenticityFloor,
		"clinical_floor":     c.ClinicalFloor,
		"detector_blend":     c.DetectorBlend,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return c, &ConfigurationError{Field: name, Reason: fmt.Sprintf("must be in [0, 1], got %v", v)}
		}
	}
	if c.DetectorTimeout < 0 {
		return c, &ConfigurationError{Field: "detector_timeout", Reason: "must not be negative"}
	}
	return c, nil
}

// CrawlerConfig holds settings for review collection.
type CrawlerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Delay is the minimum spacing between requests to one host (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// MaxRetries is the retry budget for rate-limited responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxPages caps pagination per source (default 5).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// MaxReviews caps the number of collected reviews (default 100).
	MaxReviews int `json:"max_reviews" yaml:"max_reviews" mapstructure:"max_reviews"`

	// Platforms lists the enabled sources (default all).
	Platforms []string `json:"platforms" yaml:"platforms" mapstructure:"platforms"`
}

// DetectorConfig holds settings for the external AI-text detector.
type DetectorConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the inference API base URL; the model name is appended.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestsPerSecond limits calls to the inference API (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// CacheSize is the in-process result cache capacity (default 1024).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`

	// BreakerFailures opens the circuit after this many consecutive failures (default 5).
	BreakerFailures uint32 `json:"breaker_failures" yaml:"breaker_failures" mapstructure:"breaker_failures"`

	// BreakerTimeout is how long the circuit stays open (default 30s).
	BreakerTimeout time.Duration `json:"breaker_timeout" yaml:"breaker_timeout" mapstructure:"breaker_timeout"`

	UseRedisCache bool          `json:"use_redis_cache" yaml:"use_redis_cache" mapstructure:"use_redis_cache"`
	RedisHost     string        `json:"redis_host" yaml:"redis_host" mapstructure:"redis_host"`
	RedisPort     int           `json:"redis_port" yaml:"redis_port" mapstructure:"redis_port"`
	RedisDB       int           `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`
	RedisPassword string        `json:"-" yaml:"-" mapstructure:"redis_password"`
	CacheTTL      time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// StoreConfig holds settings for result persistence.
type StoreConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults is the default query limit (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Workers bounds concurrent evaluations in a batch request.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// MaxBatchSize rejects batch requests with more reviews.
	MaxBatchSize int `json:"max_batch_size" yaml:"max_batch_size" mapstructure:"max_batch_size"`
}

// LoggingConfig selects the log level and format (text or json).
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config is the full application configuration.
type Config struct {
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Crawler  CrawlerConfig  `json:"crawler" yaml:"crawler" mapstructure:"crawler"`
	Detector DetectorConfig `json:"detector" yaml:"detector" mapstructure:"detector"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		Scoring: DefaultScoringConfig(),
		Crawler: CrawlerConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "treatment-reviews/0.1"},
			Delay:      time.Second,
			MaxRetries: 3,
			MaxPages:   5,
			MaxReviews: 100,
			Platforms:  []string{"drugs.com", "webmd", "patientslikeme", "reddit"},
		},
		Detector: DetectorConfig{
			HTTPConfig:        HTTPConfig{Timeout: 10 * time.Second, UserAgent: "treatment-reviews/0.1"},
			Endpoint:          "https://api-inference.huggingface.co/models",
			RequestsPerSecond: 2,
			CacheSize:         1024,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
			RedisHost:         "localhost",
			RedisPort:         6379,
			CacheTTL:          24 * time.Hour,
		},
		Store: StoreConfig{
			DBPath:     "data/reviews.db",
			MaxResults: 50,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Workers:      4,
			MaxBatchSize: 500,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
