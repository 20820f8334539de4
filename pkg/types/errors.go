// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ValidationError reports a malformed ClinicalTrialCriteria. It is raised
// before any scoring runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid criteria: %s %s", e.Field, e.Reason)
}

// ConfigurationError reports an invalid ScoringConfig such as negative or
// all-zero weights, or a threshold outside [0, 1].
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid scoring configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid scoring configuration: %s %s", e.Field, e.Reason)
}
