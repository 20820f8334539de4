// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package authenticity estimates how likely a review is a genuine human
// account rather than generated text. The pattern path is deterministic;
// an optional external Detector can be blended in.
package authenticity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/textmatch"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const (
	aiWeight         = 1.0
	disclaimerWeight = 1.5
	humanWeight      = 1.0

	// steepness of the logistic squash applied to the raw signal balance.
	steepness = 0.6

	structuralPenalty   = 0.15
	minListLines        = 2
	minUniformSentences = 4
	uniformStdDev       = 1.5
	minDisclaimers      = 2

	shortTextWords = 10
	shortTextCap   = 0.5
)

// Detector classifies text with an external model.
type Detector interface {
	// Classify returns the probability in [0, 1] that text is human-written.
	Classify(ctx context.Context, text string) (float64, error)

	// Available reports whether Classify can currently be called.
	Available(ctx context.Context) bool
}

// Signals are the lexical and structural features extracted from a review.
type Signals struct {
	AIPhrases      []string
	Disclaimers    []string
	HumanMarkers   []string
	NumberedLines  int
	Sentences      int
	SentenceStdDev float64
	Words          int
}

// Inspect extracts Signals from text.
func Inspect(text string) Signals {
	norm := textmatch.Normalize(text)
	lower := strings.ToLower(text)

	s := Signals{
		AIPhrases:     aiSet.Matches(norm),
		Disclaimers:   disclaimerSet.Longest(norm),
		HumanMarkers:  humanSet.Matches(norm),
		NumberedLines: len(numberedLine.FindAllStringIndex(text, -1)),
		Words:         len(strings.Fields(text)),
	}
	for _, re := range humanPatterns {
		if m := re.FindString(lower); m != "" {
			s.HumanMarkers = append(s.HumanMarkers, m)
		}
	}

	var counts []float64
	for _, sent := range sentenceBoundary.Split(text, -1) {
		if n := len(strings.Fields(sent)); n > 0 {
			counts = append(counts, float64(n))
		}
	}
	s.Sentences = len(counts)
	s.SentenceStdDev = stddev(counts)
	return s
}

// PatternScore scores text from its Signals alone.
func PatternScore(text string) types.ComponentScore {
	if strings.TrimSpace(text) == "" {
		return types.ComponentScore{Score: 0, Rationale: []string{"empty review text"}}
	}
	sig := Inspect(text)
	score, rationale := scoreSignals(sig)
	return capShort(types.ComponentScore{Score: score, Rationale: rationale}, sig.Words)
}

func scoreSignals(sig Signals) (float64, []string) {
	var rationale []string

	human := humanWeight * float64(len(sig.HumanMarkers))
	ai := aiWeight*float64(len(sig.AIPhrases)) + disclaimerWeight*float64(len(sig.Disclaimers))
	score := 1 / (1 + math.Exp(-steepness*(human-ai)))

	if len(sig.HumanMarkers) > 0 {
		rationale = append(rationale, fmt.Sprintf("%d personal experience markers: %s",
			len(sig.HumanMarkers), strings.Join(sig.HumanMarkers, ", ")))
	}
	if len(sig.AIPhrases) > 0 {
		rationale = append(rationale, fmt.Sprintf("%d formulaic phrases: %s",
			len(sig.AIPhrases), strings.Join(sig.AIPhrases, ", ")))
	}
	if len(sig.Disclaimers) > 0 {
		rationale = append(rationale, fmt.Sprintf("%d disclaimer phrases: %s",
			len(sig.Disclaimers), strings.Join(sig.Disclaimers, ", ")))
	}

	if sig.NumberedLines >= minListLines {
		score -= structuralPenalty
		rationale = append(rationale, fmt.Sprintf("numbered list structure (%d items)", sig.NumberedLines))
	}
	if sig.Sentences >= minUniformSentences && sig.SentenceStdDev < uniformStdDev {
		score -= structuralPenalty
		rationale = append(rationale, fmt.Sprintf("uniform sentence lengths (stddev %.2f)", sig.SentenceStdDev))
	}
	if len(sig.Disclaimers) >= minDisclaimers {
		score -= structuralPenalty
		rationale = append(rationale, "stacked disclaimers")
	}
	if len(rationale) == 0 {
		rationale = append(rationale, "no distinguishing signals")
	}
	return clamp(score), rationale
}

func capShort(cs types.ComponentScore, words int) types.ComponentScore {
	if words < shortTextWords && cs.Score > shortTextCap {
		cs.Score = shortTextCap
		cs.Rationale = append(cs.Rationale, fmt.Sprintf("short text (%d words), capped at %.1f", words, shortTextCap))
	}
	return cs
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDetector blends d into the score. blend is the detector's share in
// [0, 1]; timeout bounds each call (zero means no extra bound).
func WithDetector(d Detector, blend float64, timeout time.Duration) Option {
	return func(a *Analyzer) {
		a.detector = d
		a.blend = blend
		a.timeout = timeout
	}
}

// WithLogger sets the logger used for detector fallbacks.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) { a.log = l }
}

// Analyzer scores authenticity. The zero configuration is the pure
// pattern path.
type Analyzer struct {
	detector Detector
	blend    float64
	timeout  time.Duration
	log      logrus.FieldLogger
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores text and reports whether the detector contributed.
// Detector failures fall back to the pattern score and are never returned.
func (a *Analyzer) Analyze(ctx context.Context, text string) (types.ComponentScore, bool) {
	if strings.TrimSpace(text) == "" {
		return types.ComponentScore{Score: 0, Rationale: []string{"empty review text"}}, false
	}

	sig := Inspect(text)
	score, rationale := scoreSignals(sig)
	cs := types.ComponentScore{Score: score, Rationale: rationale}

	used := false
	if a.detector != nil && a.blend > 0 {
		if p, ok := a.classify(ctx, text); ok {
			cs.Score = clamp((1-a.blend)*score + a.blend*p)
			cs.Rationale = append(cs.Rationale, fmt.Sprintf("detector human probability %.2f blended at %.0f%%", p, a.blend*100))
			used = true
		}
	}
	return capShort(cs, sig.Words), used
}

func (a *Analyzer) classify(ctx context.Context, text string) (float64, bool) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if !a.detector.Available(ctx) {
		a.log.Debug("AI-text detector unavailable, using pattern score")
		return 0, false
	}
	p, err := a.detector.Classify(ctx, text)
	if err != nil {
		a.log.WithError(err).Warn("AI-text detector failed, using pattern score")
		return 0, false
	}
	if math.IsNaN(p) {
		a.log.Warn("AI-text detector returned NaN, using pattern score")
		return 0, false
	}
	return clamp(p), true
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
