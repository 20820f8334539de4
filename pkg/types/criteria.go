// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// MinTrialYear is the earliest trial year accepted by Validate.
const MinTrialYear = 1990

// ClinicalTrialCriteria describes the therapy a review should be about.
// Scoring components only read it.
type ClinicalTrialCriteria struct {
	// TrialID is the registry identifier (e.g. an NCT number), when known.
	TrialID string `json:"trial_id,omitempty" yaml:"trial_id,omitempty"`

	TherapyName string `json:"therapy_name" yaml:"therapy_name"`

	// TherapyAliases are extra names the therapy goes by in patient writing.
	TherapyAliases []string `json:"therapy_aliases,omitempty" yaml:"therapy_aliases,omitempty"`

	Year int `json:"year" yaml:"year"`

	// DurationWeeks is the treatment length. Zero means not specified.
	DurationWeeks int `json:"duration_weeks,omitempty" yaml:"duration_weeks,omitempty"`

	Dosage    string `json:"dosage,omitempty" yaml:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty" yaml:"frequency,omitempty"`

	ConditionTreated string `json:"condition_treated" yaml:"condition_treated"`

	InclusionCriteria    []string `json:"inclusion_criteria,omitempty" yaml:"inclusion_criteria,omitempty"`
	ExclusionCriteria    []string `json:"exclusion_criteria,omitempty" yaml:"exclusion_criteria,omitempty"`
	SideEffectsMentioned []string `json:"side_effects_mentioned,omitempty" yaml:"side_effects_mentioned,omitempty"`
}

// Validate checks required fields and ranges. now bounds the trial year
// from above. The returned error is a *ValidationError.
func (c ClinicalTrialCriteria) Validate(now time.Time) error {
	if strings.TrimSpace(c.TherapyName) == "" {
		return &ValidationError{Field: "therapy_name", Reason: "is required"}
	}
	if strings.TrimSpace(c.ConditionTreated) == "" {
		return &ValidationError{Field: "condition_treated", Reason: "is required"}
	}
	if c.Year < MinTrialYear || c.Year > now.Year() {
		return &ValidationError{
			Field:  "year",
			Reason: "must be a four-digit year between 1990 and the current year",
		}
	}
	if c.DurationWeeks < 0 {
		return &ValidationError{Field: "duration_weeks", Reason: "must be positive when set"}
	}
	return nil
}
