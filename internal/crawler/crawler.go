// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawler collects patient reviews of a therapy from review sites
// and forums. Each site is a Source; Collect fans a query out to all of
// them and merges the results.
package crawler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// Source fetches reviews from one platform.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]types.ReviewRecord, error)
}

// Query describes what to collect.
type Query struct {
	// Therapy is the treatment name, e.g. "sertraline".
	Therapy string

	// Subreddit scopes forum searches. Empty searches all of Reddit.
	Subreddit string

	// MaxPages bounds pagination per source.
	MaxPages int

	// Limit caps results per source. Zero is unlimited.
	Limit int
}

// Validate reports whether the query can be run.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Therapy) == "" {
		return fmt.Errorf("therapy name is required")
	}
	return nil
}

// Summary reports the outcome of a Collect call.
type Summary struct {
	// PerSource counts reviews fetched from each source before truncation.
	PerSource map[string]int

	// Failures maps source name to error message.
	Failures map[string]string

	Duplicates int
	Truncated  int
}

// Total returns the number of reviews fetched across sources.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.PerSource {
		n += c
	}
	return n
}

// HasFailures reports whether any source failed.
func (s Summary) HasFailures() bool {
	return len(s.Failures) > 0
}

// Collect queries every source concurrently. A failing source is recorded
// in the summary and does not stop the others. Results keep source order,
// duplicates by ID are dropped, and at most maxReviews are returned when
// maxReviews > 0.
func Collect(ctx context.Context, sources []Source, q Query, maxReviews int, log logrus.FieldLogger) ([]types.ReviewRecord, Summary, error) {
	if err := q.Validate(); err != nil {
		return nil, Summary{}, err
	}
	if len(sources) == 0 {
		return nil, Summary{}, fmt.Errorf("no review sources configured")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	type sourceResult struct {
		idx     int
		reviews []types.ReviewRecord
		err     error
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reviews, err := s.Fetch(ctx, q)
			ch <- sourceResult{idx: i, reviews: reviews, err: err}
		}()
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	sum := Summary{PerSource: map[string]int{}, Failures: map[string]string{}}
	bySource := make([][]types.ReviewRecord, len(sources))
	for r := range ch {
		name := sources[r.idx].Name()
		if r.err != nil {
			sum.Failures[name] = r.err.Error()
			log.WithError(r.err).WithField("source", name).Warn("source failed")
		}
		// A source may return partial results alongside its error.
		sum.PerSource[name] = len(r.reviews)
		bySource[r.idx] = r.reviews
	}
	if err := ctx.Err(); err != nil {
		return nil, sum, err
	}

	seen := map[string]bool{}
	var all []types.ReviewRecord
	for _, reviews := range bySource {
		for _, r := range reviews {
			if r.ID != "" && seen[r.ID] {
				sum.Duplicates++
				continue
			}
			seen[r.ID] = true
			all = append(all, r)
		}
	}
	if maxReviews > 0 && len(all) > maxReviews {
		sum.Truncated = len(all) - maxReviews
		all = all[:maxReviews]
	}
	return all, sum, nil
}

// Platforms returns the names accepted by NewSources.
func Platforms() []string {
	names := make([]string, 0, len(Sites)+1)
	for name := range Sites {
		names = append(names, name)
	}
	names = append(names, RedditPlatform)
	sort.Strings(names)
	return names
}

// NewSources builds the enabled sources from cfg. They share one rate
// limiter so the crawl delay applies across sites.
func NewSources(cfg types.CrawlerConfig, log logrus.FieldLogger) ([]Source, error) {
	var perSecond float64
	if cfg.Delay > 0 {
		perSecond = float64(time.Second) / float64(cfg.Delay)
	}
	f := httputil.NewFetcher(cfg.HTTPConfig,
		httputil.WithRate(perSecond),
		httputil.WithRetries(cfg.MaxRetries),
		httputil.WithLogger(log))

	var sources []Source
	for _, name := range cfg.Platforms {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == RedditPlatform {
			sources = append(sources, NewRedditSource(f, log))
			continue
		}
		site, ok := Sites[name]
		if !ok {
			return nil, fmt.Errorf("unknown platform %q (known: %s)", name, strings.Join(Platforms(), ", "))
		}
		sources = append(sources, NewHTMLSource(site, f, log))
	}
	return sources, nil
}
