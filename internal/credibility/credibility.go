// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credibility rates the trustworthiness of a review's source from
// its metadata alone.
package credibility

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const (
	unknownBase             = 0.30
	verifiedBonus           = 0.15
	maxHelpfulBonus         = 0.15
	defaultHelpfulThreshold = 5
	missingAuthorPenalty    = 0.05
	establishedBonus        = 0.10
	moderateBonus           = 0.05
	longQueryPenalty        = 0.10
	longQueryLen            = 50
)

// helpfulSaturation is the excess helpful count at which the bonus maxes out.
var helpfulSaturation = math.Log(101)

// Platform is a known review source.
type Platform struct {
	// Key is matched against whole labels of the normalized platform name
	// or host: "webmd" matches webmd.com, "nih.gov" matches pubmed.nih.gov,
	// and neither matches a host that merely contains the text.
	Key  string
	Base float64

	// HelpfulThreshold is the helpful/upvote count above which the bonus
	// applies. Zero uses the default of 5.
	HelpfulThreshold int
}

// DefaultPlatforms is checked in order; the first matching key wins.
var DefaultPlatforms = []Platform{
	{Key: "clinicaltrials", Base: 0.85},
	{Key: "nih.gov", Base: 0.85},
	{Key: "fda.gov", Base: 0.85},
	{Key: "who.int", Base: 0.85},
	{Key: "mayoclinic", Base: 0.80},
	{Key: "patientslikeme", Base: 0.75},
	{Key: "medscape", Base: 0.75},
	{Key: "drugs.com", Base: 0.70, HelpfulThreshold: 3},
	{Key: "webmd", Base: 0.70},
	{Key: "healthgrades", Base: 0.65},
	{Key: "inspire", Base: 0.65},
	{Key: "reddit", Base: 0.50, HelpfulThreshold: 10},
}

// Estimator scores metadata against a platform table.
type Estimator struct {
	platforms []Platform
}

// New returns an Estimator over platforms, or DefaultPlatforms when none
// are given.
func New(platforms ...Platform) *Estimator {
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	return &Estimator{platforms: platforms}
}

// Lookup finds the platform for a name or URL. When name is empty the
// source URL's host is used.
func (e *Estimator) Lookup(name, sourceURL string) (Platform, bool) {
	key := normalizePlatform(name)
	if key == "" {
		key = normalizePlatform(sourceURL)
	}
	if key == "" {
		return Platform{}, false
	}
	host, _, _ := strings.Cut(key, "/")
	for _, p := range e.platforms {
		if matchesLabels(host, p.Key) {
			return p, true
		}
	}
	return Platform{}, false
}

func matchesLabels(host, key string) bool {
	return host == key ||
		strings.HasPrefix(host, key+".") ||
		strings.HasSuffix(host, "."+key) ||
		strings.Contains(host, "."+key+".")
}

// Score returns the credibility of md in [0, 1].
func (e *Estimator) Score(md types.Metadata) types.ComponentScore {
	var rationale []string

	platform, known := e.Lookup(md.SourcePlatform, md.SourceURL)
	score := unknownBase
	if known {
		score = platform.Base
		rationale = append(rationale, fmt.Sprintf("platform %s (base %.2f)", platform.Key, platform.Base))
	} else {
		rationale = append(rationale, fmt.Sprintf("unknown platform (base %.2f)", unknownBase))
	}

	if md.Verified != nil && *md.Verified {
		score += verifiedBonus
		rationale = append(rationale, "verified reviewer")
	}

	threshold := platform.HelpfulThreshold
	if threshold <= 0 {
		threshold = defaultHelpfulThreshold
	}
	if excess := md.Helpful() - threshold; excess > 0 {
		bonus := maxHelpfulBonus * math.Min(1, math.Log1p(float64(excess))/helpfulSaturation)
		score += bonus
		rationale = append(rationale, fmt.Sprintf("%d helpful votes (+%.3f)", md.Helpful(), bonus))
	}

	switch {
	case md.AccountAgeMonths > 12:
		score += establishedBonus
		rationale = append(rationale, "established account")
	case md.AccountAgeMonths > 3:
		score += moderateBonus
		rationale = append(rationale, "moderate account history")
	}

	if u, err := url.Parse(md.SourceURL); err == nil && len(u.RawQuery) > longQueryLen {
		score -= longQueryPenalty
		rationale = append(rationale, "complex source URL parameters")
	}

	if strings.TrimSpace(md.AuthorHandle) == "" {
		score -= missingAuthorPenalty
		rationale = append(rationale, "no author handle")
	}

	return types.ComponentScore{Score: math.Max(0, math.Min(1, score)), Rationale: rationale}
}

func normalizePlatform(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host + u.Path
		}
	}
	return strings.TrimPrefix(s, "www.")
}
