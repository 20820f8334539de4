// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// CriteriaFile is the on-disk form of trial criteria. Source records the
// registry study the criteria were suggested from, if any.
type CriteriaFile struct {
	Criteria types.ClinicalTrialCriteria `yaml:"criteria"`
	Source   *types.TrialSummary         `yaml:"source,omitempty"`
	Saved    time.Time                   `yaml:"saved"`
}

// SaveCriteria writes criteria, and optionally the study it came from, to
// a YAML file.
func SaveCriteria(path string, c types.ClinicalTrialCriteria, source *types.TrialSummary) error {
	data, err := yaml.Marshal(&CriteriaFile{Criteria: c, Source: source, Saved: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling criteria file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCriteria reads criteria from path. Both the CriteriaFile layout and a
// bare criteria document are accepted.
func LoadCriteria(path string) (types.ClinicalTrialCriteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ClinicalTrialCriteria{}, fmt.Errorf("reading criteria file: %w", err)
	}

	var cf CriteriaFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return types.ClinicalTrialCriteria{}, fmt.Errorf("parsing criteria file: %w", err)
	}
	if cf.Criteria.TherapyName != "" {
		return cf.Criteria, nil
	}

	var bare types.ClinicalTrialCriteria
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return types.ClinicalTrialCriteria{}, fmt.Errorf("parsing criteria file: %w", err)
	}
	return bare, nil
}
