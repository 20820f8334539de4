// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const personalReview = "I started CBT for my chronic pain in 2016... The 12-week program... by week 8 I noticed real improvements. Some fatigue in the beginning."

func cbtCriteria() types.ClinicalTrialCriteria {
	return types.ClinicalTrialCriteria{
		TherapyName:          "CBT",
		Year:                 2015,
		DurationWeeks:        12,
		ConditionTreated:     "chronic pain",
		SideEffectsMentioned: []string{"fatigue"},
	}
}

func TestScoreFullMatch(t *testing.T) {
	got := Score(personalReview, cbtCriteria())
	assert.Equal(t, 1.0, got.Score)
	assert.Contains(t, got.Rationale, "therapy mentioned: cbt")
}

func TestScoreTherapyOnly(t *testing.T) {
	text := "I hope this helps with your decision about CBT therapy. It's important to note that everyone's experience may vary..."
	c := types.ClinicalTrialCriteria{TherapyName: "CBT", ConditionTreated: "chronic pain", Year: 2015}
	got := Score(text, c)
	assert.InDelta(t, 0.35/0.55, got.Score, 1e-9)
}

func TestScoreRenormalizesMissingFactors(t *testing.T) {
	// No duration or dosage: only therapy, condition and side effects count.
	c := cbtCriteria()
	c.DurationWeeks = 0
	text := "Tried cognitive behavioral therapy, no fatigue at all."
	got := Score(text, c)
	assert.InDelta(t, (0.35+0.15)/(0.35+0.20+0.15), got.Score, 1e-9)
	assert.GreaterOrEqual(t, got.Score, 0.0)
	assert.LessOrEqual(t, got.Score, 1.0)
}

func TestScoreUnrelatedReview(t *testing.T) {
	got := Score("Great phone, battery lasts all day.", cbtCriteria())
	assert.Equal(t, 0.0, got.Score)
}

func TestScoreEmptyText(t *testing.T) {
	got := Score("", cbtCriteria())
	assert.Equal(t, 0.0, got.Score)
	assert.NotEmpty(t, got.Rationale)
}

func TestTherapySynonyms(t *testing.T) {
	tests := []struct {
		name    string
		therapy string
		aliases []string
		text    string
		want    bool
	}{
		{"abbreviation to full name", "CBT", nil, "My cognitive behavioural therapy sessions helped.", true},
		{"full name to abbreviation", "Cognitive Behavioral Therapy", nil, "CBT was hard at first.", true},
		{"parenthesized abbreviation", "Dialectical Behavior Therapy (DBT)", nil, "dbt skills group saved me", true},
		{"brand name", "sertraline", nil, "Zoloft made me sleepy.", true},
		{"explicit alias", "NX-101", []string{"the blue pill"}, "I took the blue pill daily.", true},
		{"no partial words", "TENS", nil, "Tension headaches persisted.", false},
		{"different therapy", "CBT", nil, "Acupuncture did nothing for me.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := types.ClinicalTrialCriteria{TherapyName: tt.therapy, TherapyAliases: tt.aliases, ConditionTreated: "x", Year: 2015}
			got := Score(tt.text, c)
			if tt.want {
				assert.InDelta(t, 0.35/0.55, got.Score, 1e-9)
			} else {
				assert.Equal(t, 0.0, got.Score)
			}
		})
	}
}

func TestConditionSynonyms(t *testing.T) {
	c := types.ClinicalTrialCriteria{TherapyName: "x", ConditionTreated: "hypertension", Year: 2015}
	assert.InDelta(t, 0.20/0.55, Score("My high blood pressure came down.", c).Score, 1e-9)
}

func TestDurations(t *testing.T) {
	tests := []struct {
		text string
		want []float64
	}{
		{"The 12-week program", []float64{12}},
		{"after 3 months", []float64{3 * weeksPerMonth}},
		{"twelve weeks later", []float64{12}},
		{"for 14 days then 2 wks", []float64{2, 2}},
		{"by week 8 I noticed", nil},
		{"twice a day", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Durations(tt.text)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestDurationCredit(t *testing.T) {
	c := types.ClinicalTrialCriteria{TherapyName: "x", ConditionTreated: "y", Year: 2015, DurationWeeks: 12}
	only := func(text string) float64 {
		// Therapy and condition miss, so the score is the duration credit
		// scaled by its share of the applicable weight.
		return Score(text, c).Score * (0.35 + 0.20 + 0.20) / 0.20
	}
	assert.InDelta(t, 1.0, only("It ran 3 months."), 1e-9)
	assert.InDelta(t, 1.0, only("about 10 weeks"), 1e-9)
	assert.InDelta(t, 0.5, only("only 2 weeks"), 1e-9)
	assert.InDelta(t, 0.0, only("no timing at all"), 1e-9)
}

func TestDosageAndFrequency(t *testing.T) {
	c := types.ClinicalTrialCriteria{TherapyName: "x", ConditionTreated: "y", Year: 2015, Dosage: "20 mg", Frequency: "twice daily"}
	scale := (0.35 + 0.20 + 0.10) / 0.10

	assert.InDelta(t, 1.0, Score("I took 20mg twice a day.", c).Score*scale, 1e-9)
	assert.InDelta(t, 0.5, Score("I took 20 mg each morning.", c).Score*scale, 1e-9)
	assert.InDelta(t, 0.5, Score("Two times a day, no idea of the dose.", c).Score*scale, 1e-9)
	assert.InDelta(t, 0.0, Score("Took 200 mg.", c).Score*scale, 1e-9)
}

func TestSideEffectInflections(t *testing.T) {
	c := types.ClinicalTrialCriteria{
		TherapyName: "x", ConditionTreated: "y", Year: 2015,
		SideEffectsMentioned: []string{"nausea", "headache", "dizziness", "weight gain"},
	}
	scale := (0.35 + 0.20 + 0.15) / 0.15
	got := Score("Felt nauseous and had headaches. I gained weight.", c).Score * scale
	assert.InDelta(t, 0.75, got, 1e-9)
}

func TestExclusionNoted(t *testing.T) {
	c := cbtCriteria()
	c.ExclusionCriteria = []string{"pregnancy"}
	got := Score("CBT during my pregnancy helped my chronic pain.", c)
	assert.Contains(t, got.Rationale, "mentions exclusion criteria: pregnancy")
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"chronic_pain", "depression", "diabetes", "hypertension"}, Conditions())
	assert.Contains(t, KeywordsFor("Chronic Pain"), "fibromyalgia")
	assert.Nil(t, KeywordsFor("gout"))
}

func TestAmbiguousAbbreviations(t *testing.T) {
	c := types.ClinicalTrialCriteria{TherapyName: "Transcutaneous Electrical Nerve Stimulation", ConditionTreated: "x", Year: 2015}
	assert.Equal(t, 0.0, Score("I tried tens of remedies before this.", c).Score)
	assert.InDelta(t, 0.35/0.55, Score("The TENS unit eased the cramps.", c).Score, 1e-9)

	// Named directly, the abbreviation still matches and expands.
	c.TherapyName = "TENS"
	assert.InDelta(t, 0.35/0.55, Score("Transcutaneous electrical nerve stimulation helped.", c).Score, 1e-9)
}
