// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detector calls a hosted text-classification model to estimate
// whether a review was written by a person, and wraps that call with a
// circuit breaker and result caches.
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// hostedEndpoint needs an API key; any other endpoint is assumed to be a
// self-hosted inference server that does not.
const hostedEndpoint = "https://api-inference.huggingface.co/models"

// maxInputChars keeps requests under the model's token window.
const maxInputChars = 2000

// ErrUnavailable is returned when the model cannot serve a request, for
// example while it is loading or when credentials are rejected.
var ErrUnavailable = errors.New("detector unavailable")

var (
	humanLabels = []string{"real", "human", "label_0"}
	aiLabels    = []string{"fake", "ai", "machine", "generated", "chatgpt", "label_1"}
)

type inferenceRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Client classifies text through an inference API that follows the
// Hugging Face text-classification response shape.
type Client struct {
	fetcher *httputil.Fetcher
	url     string
	apiKey  string
	hosted  bool
	log     logrus.FieldLogger
}

// NewClient returns a Client for model served under cfg.Endpoint.
func NewClient(cfg types.DetectorConfig, model string, log logrus.FieldLogger) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = hostedEndpoint
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		fetcher: httputil.NewFetcher(cfg.HTTPConfig,
			httputil.WithRate(cfg.RequestsPerSecond),
			httputil.WithRetries(1),
			httputil.WithLogger(log)),
		url:    endpoint + "/" + model,
		apiKey: cfg.APIKey,
		hosted: endpoint == hostedEndpoint,
		log:    log,
	}
}

// Available reports whether the client is configured well enough to call.
func (c *Client) Available(context.Context) bool {
	return !c.hosted || c.apiKey != ""
}

// Classify returns the probability that text is human-written.
func (c *Client) Classify(ctx context.Context, text string) (float64, error) {
	if !c.Available(ctx) {
		return 0, fmt.Errorf("%w: no API key", ErrUnavailable)
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	var raw json.RawMessage
	err := c.fetcher.PostJSON(ctx, c.url, header, inferenceRequest{Inputs: truncate(text, maxInputChars)}, &raw)
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			switch se.Code {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusServiceUnavailable:
				return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return 0, fmt.Errorf("classifying text: %w", err)
	}
	return HumanProbability(raw)
}

// HumanProbability reads a text-classification response, either a flat
// list of label scores or a list nested one level, and returns the score
// of the human label. When only a machine label is present its complement
// is used.
func HumanProbability(raw []byte) (float64, error) {
	var scores []labelScore
	if err := json.Unmarshal(raw, &scores); err != nil {
		var nested [][]labelScore
		if err2 := json.Unmarshal(raw, &nested); err2 != nil {
			return 0, fmt.Errorf("decoding classification: %w", err)
		}
		if len(nested) > 0 {
			scores = nested[0]
		}
	}

	for _, s := range scores {
		if hasLabel(humanLabels, s.Label) {
			return clamp(s.Score), nil
		}
	}
	for _, s := range scores {
		if hasLabel(aiLabels, s.Label) {
			return clamp(1 - s.Score), nil
		}
	}
	return 0, fmt.Errorf("classification has no recognised label in %d scores", len(scores))
}

func hasLabel(labels []string, label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
