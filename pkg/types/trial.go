// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TrialSummary is a registered clinical study as returned by a trial
// registry search.
type TrialSummary struct {
	NCTID         string   `json:"nct_id" yaml:"nct_id"`
	Title         string   `json:"title" yaml:"title"`
	Status        string   `json:"status" yaml:"status"`
	Phases        []string `json:"phases,omitempty" yaml:"phases,omitempty"`
	Conditions    []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Interventions []string `json:"interventions,omitempty" yaml:"interventions,omitempty"`
	StartDate     string   `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	StartYear     int      `json:"start_year,omitempty" yaml:"start_year,omitempty"`
	Enrollment    int      `json:"enrollment,omitempty" yaml:"enrollment,omitempty"`
	URL           string   `json:"url" yaml:"url"`

	// Inclusion and Exclusion are the bullet items of the eligibility text.
	Inclusion []string `json:"inclusion,omitempty" yaml:"inclusion,omitempty"`
	Exclusion []string `json:"exclusion,omitempty" yaml:"exclusion,omitempty"`
}
