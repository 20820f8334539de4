// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detector

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pdiddy/treatment-reviews/internal/authenticity"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// Resilient fronts a Detector with caches and a circuit breaker. Cached
// results are served even while the breaker is open.
type Resilient struct {
	inner   authenticity.Detector
	model   string
	caches  []Cache
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

// NewResilient wraps inner. Caches are consulted in order; a hit in a later
// cache is copied into the earlier ones.
func NewResilient(inner authenticity.Detector, model string, cfg types.DetectorConfig, log logrus.FieldLogger, caches ...Cache) *Resilient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	r := &Resilient{inner: inner, model: model, caches: caches, log: log}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "detector:" + model,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("detector circuit breaker changed state")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return r
}

// State reports the breaker state: closed, half-open, or open.
func (r *Resilient) State() string {
	return r.breaker.State().String()
}

// Available is false while the breaker is open.
func (r *Resilient) Available(ctx context.Context) bool {
	return r.breaker.State() != gobreaker.StateOpen && r.inner.Available(ctx)
}

// Classify returns a cached result when one exists and otherwise calls the
// wrapped detector through the breaker.
func (r *Resilient) Classify(ctx context.Context, text string) (float64, error) {
	key := CacheKey(r.model, text)
	for i, c := range r.caches {
		v, ok, err := c.Get(ctx, key)
		if err != nil {
			r.log.WithError(err).Debug("detector cache read failed")
			continue
		}
		if ok {
			r.fill(ctx, r.caches[:i], key, v)
			return v, nil
		}
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Classify(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return 0, err
	}
	score := out.(float64)
	r.fill(ctx, r.caches, key, score)
	return score, nil
}

func (r *Resilient) fill(ctx context.Context, caches []Cache, key string, score float64) {
	for _, c := range caches {
		if err := c.Set(ctx, key, score); err != nil {
			r.log.WithError(err).Debug("detector cache write failed")
		}
	}
}

// Build assembles the full detector stack from cfg: the inference client,
// an in-process cache, and Redis when enabled. An unreachable Redis is
// logged and skipped. The returned close function releases Redis.
func Build(ctx context.Context, cfg types.DetectorConfig, model string, log logrus.FieldLogger) (*Resilient, func() error, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	closeFn := func() error { return nil }

	var caches []Cache
	if cfg.CacheSize > 0 {
		mem, err := NewMemoryCache(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		caches = append(caches, mem)
	}
	if cfg.UseRedisCache {
		rc, err := NewRedisCache(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Redis cache disabled")
		} else {
			caches = append(caches, rc)
			closeFn = rc.Close
		}
	}

	client := NewClient(cfg, model, log)
	return NewResilient(client, model, cfg, log, caches...), closeFn, nil
}
