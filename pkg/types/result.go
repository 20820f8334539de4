// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strconv"

// Breakdown keys.
const (
	ComponentAuthenticity  = "authenticity"
	ComponentClinicalMatch = "clinical_match"
	ComponentCredibility   = "credibility"
	ComponentTemporal      = "temporal"
)

// Components lists the breakdown keys in aggregation order.
var Components = []string{
	ComponentAuthenticity,
	ComponentClinicalMatch,
	ComponentCredibility,
	ComponentTemporal,
}

// ComponentScore is one factor's score in [0, 1] with the reasons behind it.
type ComponentScore struct {
	Score     float64  `json:"score" yaml:"score"`
	Rationale []string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// ReliabilityResult is the outcome of evaluating one review.
type ReliabilityResult struct {
	OverallScore float64                   `json:"overall_score" yaml:"overall_score"`
	IsReliable   bool                      `json:"is_reliable" yaml:"is_reliable"`
	Breakdown    map[string]ComponentScore `json:"breakdown" yaml:"breakdown"`

	// Flags lists the hard gates that forced a rejection.
	Flags []string `json:"flags,omitempty" yaml:"flags,omitempty"`

	// Weights are the normalized weights used for OverallScore.
	Weights Weights `json:"weights" yaml:"weights"`

	// DetectorUsed reports whether the external AI-text detector
	// contributed to the authenticity score.
	DetectorUsed bool `json:"detector_used" yaml:"detector_used"`
}

// Component returns the score for key, or zero when missing.
func (r ReliabilityResult) Component(key string) float64 {
	return r.Breakdown[key].Score
}

// Flat returns the tabular form of r.
func (r ReliabilityResult) Flat(id string) FlatRecord {
	return FlatRecord{
		ID:            id,
		OverallScore:  r.OverallScore,
		IsReliable:    r.IsReliable,
		Authenticity:  r.Component(ComponentAuthenticity),
		ClinicalMatch: r.Component(ComponentClinicalMatch),
		Credibility:   r.Component(ComponentCredibility),
		Temporal:      r.Component(ComponentTemporal),
	}
}

// FlatRecord is a ReliabilityResult reduced to one row for CSV and JSON
// emission.
type FlatRecord struct {
	ID            string  `json:"id" yaml:"id"`
	OverallScore  float64 `json:"overall_score" yaml:"overall_score"`
	IsReliable    bool    `json:"is_reliable" yaml:"is_reliable"`
	Authenticity  float64 `json:"authenticity" yaml:"authenticity"`
	ClinicalMatch float64 `json:"clinical_match" yaml:"clinical_match"`
	Credibility   float64 `json:"credibility" yaml:"credibility"`
	Temporal      float64 `json:"temporal" yaml:"temporal"`
}

// FlatHeader is the CSV header matching FlatRecord.Row.
var FlatHeader = []string{
	"id", "overall_score", "is_reliable",
	ComponentAuthenticity, ComponentClinicalMatch, ComponentCredibility, ComponentTemporal,
}

// Row returns the record's fields as strings in FlatHeader order.
func (f FlatRecord) Row() []string {
	return []string{
		f.ID,
		formatScore(f.OverallScore),
		strconv.FormatBool(f.IsReliable),
		formatScore(f.Authenticity),
		formatScore(f.ClinicalMatch),
		formatScore(f.Credibility),
		formatScore(f.Temporal),
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
