// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reliability combines authenticity, clinical match, credibility,
// and temporal relevance into one reliability verdict per review.
package reliability

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/authenticity"
	"github.com/pdiddy/treatment-reviews/internal/clinical"
	"github.com/pdiddy/treatment-reviews/internal/credibility"
	"github.com/pdiddy/treatment-reviews/internal/temporal"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// Hard-gate flags set on ReliabilityResult.Flags.
const (
	FlagLowAuthenticity = "low_authenticity"
	FlagLowClinical     = "low_clinical_match"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithDetector supplies the external AI-text detector. It is consulted
// only when the config enables advanced AI detection.
func WithDetector(d authenticity.Detector) Option {
	return func(e *Evaluator) { e.detector = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithPlatforms replaces the credibility platform table.
func WithPlatforms(p ...credibility.Platform) Option {
	return func(e *Evaluator) { e.platforms = p }
}

// WithClock sets the clock used to validate criteria years.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// Evaluator scores reviews. It holds no per-call state and is safe for
// concurrent use.
type Evaluator struct {
	cfg       types.ScoringConfig
	detector  authenticity.Detector
	platforms []credibility.Platform
	log       logrus.FieldLogger
	now       func() time.Time

	auth *authenticity.Analyzer
	cred *credibility.Estimator
}

// New validates cfg and returns an Evaluator. Invalid configuration is a
// *types.ConfigurationError.
func New(cfg types.ScoringConfig, opts ...Option) (*Evaluator, error) {
	norm, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	e := &Evaluator{
		cfg: norm,
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	authOpts := []authenticity.Option{authenticity.WithLogger(e.log)}
	if norm.EnableAdvancedAIDetection && e.detector != nil {
		authOpts = append(authOpts, authenticity.WithDetector(e.detector, norm.DetectorBlend, norm.DetectorTimeout))
	}
	e.auth = authenticity.New(authOpts...)
	e.cred = credibility.New(e.platforms...)
	return e, nil
}

// Config returns the normalized configuration in use.
func (e *Evaluator) Config() types.ScoringConfig { return e.cfg }

// Evaluate scores one review against criteria. Malformed criteria return a
// *types.ValidationError before any scoring runs.
func (e *Evaluator) Evaluate(ctx context.Context, review types.ReviewRecord, criteria types.ClinicalTrialCriteria) (types.ReliabilityResult, error) {
	if err := criteria.Validate(e.now()); err != nil {
		return types.ReliabilityResult{}, err
	}
	return e.evaluate(ctx, review, criteria)
}

func (e *Evaluator) evaluate(ctx context.Context, review types.ReviewRecord, criteria types.ClinicalTrialCriteria) (types.ReliabilityResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ReliabilityResult{}, err
	}

	var (
		wg                      sync.WaitGroup
		auth, clin, cred, tempo types.ComponentScore
		detectorUsed            bool
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		auth, detectorUsed = e.auth.Analyze(ctx, review.Text)
	}()
	go func() {
		defer wg.Done()
		clin = clinical.Score(review.Text, criteria)
	}()
	go func() {
		defer wg.Done()
		cred = e.cred.Score(review.Metadata)
	}()
	go func() {
		defer wg.Done()
		tempo = temporal.Score(review.Metadata.PostTime(), criteria.Year)
	}()
	wg.Wait()

	res := types.ReliabilityResult{
		Breakdown: map[string]types.ComponentScore{
			types.ComponentAuthenticity:  auth,
			types.ComponentClinicalMatch: clin,
			types.ComponentCredibility:   cred,
			types.ComponentTemporal:      tempo,
		},
		Weights:      e.cfg.Weights,
		DetectorUsed: detectorUsed,
	}

	var overall float64
	for _, k := range types.Components {
		overall += e.cfg.Weights.Get(k) * res.Breakdown[k].Score
	}
	res.OverallScore = math.Max(0, math.Min(1, overall))
	res.IsReliable = res.OverallScore >= e.cfg.Threshold

	if auth.Score < e.cfg.AuthenticityFloor {
		res.Flags = append(res.Flags, FlagLowAuthenticity)
	}
	if clin.Score < e.cfg.ClinicalFloor {
		res.Flags = append(res.Flags, FlagLowClinical)
	}
	if len(res.Flags) > 0 {
		res.IsReliable = false
	}

	e.log.WithFields(logrus.Fields{
		"review":   review.ID,
		"overall":  fmt.Sprintf("%.3f", res.OverallScore),
		"reliable": res.IsReliable,
	}).Debug("review evaluated")

	return res, nil
}

// Evaluate scores one review with a pattern-only Evaluator built from cfg.
func Evaluate(ctx context.Context, review types.ReviewRecord, criteria types.ClinicalTrialCriteria, cfg types.ScoringConfig) (types.ReliabilityResult, error) {
	e, err := New(cfg)
	if err != nil {
		return types.ReliabilityResult{}, err
	}
	return e.Evaluate(ctx, review, criteria)
}
