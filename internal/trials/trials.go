// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials searches the ClinicalTrials.gov registry and turns a
// registered study into review-matching criteria.
package trials

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// studiesURL is the v2 study search endpoint. Tests replace it.
var studiesURL = "https://clinicaltrials.gov/api/v2/studies"

const (
	studyPageURL   = "https://clinicaltrials.gov/study/"
	defaultLimit   = 20
	maxPageSize    = 1000
	requestedField = "NCTId,BriefTitle,OverallStatus,Phase,Condition,InterventionName,StartDate,EnrollmentCount,EligibilityCriteria"
)

// Query selects studies by intervention and condition.
type Query struct {
	Therapy   string
	Condition string

	// Status filters by overall status, e.g. "COMPLETED". Empty matches all.
	Status string

	Limit int
}

// IsEmpty reports whether the query has no search terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Therapy) == "" && strings.TrimSpace(q.Condition) == ""
}

type studiesResponse struct {
	Studies []struct {
		ProtocolSection protocolSection `json:"protocolSection"`
	} `json:"studies"`
	NextPageToken string `json:"nextPageToken"`
}

type protocolSection struct {
	Identification struct {
		NCTID      string `json:"nctId"`
		BriefTitle string `json:"briefTitle"`
	} `json:"identificationModule"`
	Status struct {
		OverallStatus string `json:"overallStatus"`
		StartDate     struct {
			Date string `json:"date"`
		} `json:"startDateStruct"`
	} `json:"statusModule"`
	Design struct {
		Phases         []string `json:"phases"`
		EnrollmentInfo struct {
			Count int `json:"count"`
		} `json:"enrollmentInfo"`
	} `json:"designModule"`
	Conditions struct {
		Conditions []string `json:"conditions"`
	} `json:"conditionsModule"`
	ArmsInterventions struct {
		Interventions []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"interventions"`
	} `json:"armsInterventionsModule"`
	Eligibility struct {
		Criteria string `json:"eligibilityCriteria"`
	} `json:"eligibilityModule"`
}

// Client searches the registry.
type Client struct {
	fetcher *httputil.Fetcher
}

// NewClient returns a Client using f.
func NewClient(f *httputil.Fetcher) *Client {
	return &Client{fetcher: f}
}

// Search returns up to q.Limit studies, following page tokens as needed.
func (c *Client) Search(ctx context.Context, q Query) ([]types.TrialSummary, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("query is empty: provide a therapy or a condition")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var out []types.TrialSummary
	token := ""
	for len(out) < limit {
		var resp studiesResponse
		if err := c.fetcher.GetJSON(ctx, searchURL(q, min(limit-len(out), maxPageSize), token), &resp); err != nil {
			return out, fmt.Errorf("searching ClinicalTrials.gov: %w", err)
		}
		for _, s := range resp.Studies {
			out = append(out, summarize(s.ProtocolSection))
		}
		if resp.NextPageToken == "" || len(resp.Studies) == 0 {
			break
		}
		token = resp.NextPageToken
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func searchURL(q Query, pageSize int, token string) string {
	v := url.Values{}
	if q.Therapy != "" {
		v.Set("query.intr", q.Therapy)
	}
	if q.Condition != "" {
		v.Set("query.cond", q.Condition)
	}
	if q.Status != "" {
		v.Set("filter.overallStatus", strings.ToUpper(q.Status))
	}
	v.Set("fields", requestedField)
	v.Set("pageSize", strconv.Itoa(pageSize))
	v.Set("format", "json")
	if token != "" {
		v.Set("pageToken", token)
	}
	return studiesURL + "?" + v.Encode()
}

func summarize(p protocolSection) types.TrialSummary {
	s := types.TrialSummary{
		NCTID:      p.Identification.NCTID,
		Title:      p.Identification.BriefTitle,
		Status:     p.Status.OverallStatus,
		Phases:     p.Design.Phases,
		Conditions: p.Conditions.Conditions,
		StartDate:  p.Status.StartDate.Date,
		Enrollment: p.Design.EnrollmentInfo.Count,
		URL:        studyPageURL + p.Identification.NCTID,
	}
	for _, iv := range p.ArmsInterventions.Interventions {
		s.Interventions = append(s.Interventions, iv.Name)
	}
	if len(s.StartDate) >= 4 {
		s.StartYear, _ = strconv.Atoi(s.StartDate[:4])
	}
	s.Inclusion, s.Exclusion = SplitEligibility(p.Eligibility.Criteria)
	return s
}

var (
	inclusionHeading = regexp.MustCompile(`(?i)^\s*inclusion criteria\s*:?\s*$`)
	exclusionHeading = regexp.MustCompile(`(?i)^\s*exclusion criteria\s*:?\s*$`)
	bulletPrefix     = regexp.MustCompile(`^\s*(?:[*\-•]|\d+[.)])\s*`)
)

// SplitEligibility parses registry eligibility text into inclusion and
// exclusion items. Text before any heading counts as inclusion.
func SplitEligibility(text string) (inclusion, exclusion []string) {
	target := &inclusion
	for _, line := range strings.Split(text, "\n") {
		switch {
		case inclusionHeading.MatchString(line):
			target = &inclusion
			continue
		case exclusionHeading.MatchString(line):
			target = &exclusion
			continue
		}
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if item != "" {
			*target = append(*target, item)
		}
	}
	return inclusion, exclusion
}

// SuggestCriteria derives criteria from a study. therapy overrides the
// study's first intervention name. Duration, dosage and side effects are
// not in the registry summary and are left for the user to fill in.
func SuggestCriteria(s types.TrialSummary, therapy string) types.ClinicalTrialCriteria {
	c := types.ClinicalTrialCriteria{
		TrialID:           s.NCTID,
		TherapyName:       therapy,
		Year:              s.StartYear,
		InclusionCriteria: s.Inclusion,
		ExclusionCriteria: s.Exclusion,
	}
	if c.TherapyName == "" && len(s.Interventions) > 0 {
		c.TherapyName = s.Interventions[0]
	}
	for _, iv := range s.Interventions {
		if !strings.EqualFold(iv, c.TherapyName) {
			c.TherapyAliases = append(c.TherapyAliases, iv)
		}
	}
	if len(s.Conditions) > 0 {
		c.ConditionTreated = s.Conditions[0]
	}
	return c
}
