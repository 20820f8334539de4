// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clinical scores how closely a review describes the therapy
// defined by a ClinicalTrialCriteria.
package clinical

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/treatment-reviews/internal/textmatch"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// Sub-factor weights. Only factors the criteria provide enter the
// denominator.
const (
	therapyWeight    = 0.35
	conditionWeight  = 0.20
	durationWeight   = 0.20
	dosageWeight     = 0.10
	sideEffectWeight = 0.15

	// durationTolerance is the relative distance from the trial duration
	// still counted as a match.
	durationTolerance = 0.2
	otherDuration     = 0.5

	weeksPerMonth = 4.345
	daysPerWeek   = 7.0
)

var numberWords = map[string]float64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"fourteen": 14, "sixteen": 16, "eighteen": 18, "twenty": 20,
	"a couple of": 2, "a few": 3, "several": 3,
}

var durationExpr = regexp.MustCompile(
	`\b(\d+(?:\.\d+)?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fourteen|sixteen|eighteen|twenty|a couple of|a few|several)\s*-?\s*(weeks?|wks?|months?|mos?|days?)\b`)

// Durations returns every treatment length mentioned in text, in weeks.
func Durations(text string) []float64 {
	var out []float64
	for _, m := range durationExpr.FindAllStringSubmatch(strings.ToLower(text), -1) {
		n, ok := numberWords[m[1]]
		if !ok {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			n = v
		}
		switch unit := m[2]; {
		case strings.HasPrefix(unit, "mo"):
			n *= weeksPerMonth
		case strings.HasPrefix(unit, "d"):
			n /= daysPerWeek
		}
		out = append(out, n)
	}
	return out
}

// TherapyNames returns the names under which a review may mention the
// criteria's therapy: the name itself, any parenthesized abbreviation,
// explicit aliases, and known synonyms.
func TherapyNames(c types.ClinicalTrialCriteria) []string {
	base := []string{c.TherapyName}
	if open := strings.Index(c.TherapyName, "("); open >= 0 {
		if end := strings.Index(c.TherapyName[open:], ")"); end > 0 {
			base = append(base,
				strings.TrimSpace(c.TherapyName[:open]),
				strings.TrimSpace(c.TherapyName[open+1:open+end]))
		}
	}
	base = append(base, c.TherapyAliases...)

	var out []string
	for _, name := range base {
		out = append(out, expand(name, therapyGroups)...)
	}
	return out
}

// ConditionNames returns the condition term plus its known synonyms.
func ConditionNames(condition string) []string {
	return expand(condition, conditionGroups)
}

// Score returns the clinical match of text against c. c must be valid.
// The result is always in [0, 1].
func Score(text string, c types.ClinicalTrialCriteria) types.ComponentScore {
	norm := textmatch.Normalize(text)
	var (
		num, den  float64
		rationale []string
	)
	add := func(weight, credit float64, note string) {
		num += weight * credit
		den += weight
		rationale = append(rationale, note)
	}

	if hit := textmatch.NewPhraseSet(TherapyNames(c)...).Matches(norm); len(hit) > 0 {
		add(therapyWeight, 1, "therapy mentioned: "+hit[0])
	} else {
		add(therapyWeight, 0, "therapy not mentioned")
	}

	if hit := textmatch.NewPhraseSet(ConditionNames(c.ConditionTreated)...).Matches(norm); len(hit) > 0 {
		add(conditionWeight, 1, "condition mentioned: "+hit[0])
	} else {
		add(conditionWeight, 0, "condition not mentioned")
	}

	if c.DurationWeeks > 0 {
		credit, note := durationCredit(text, float64(c.DurationWeeks))
		add(durationWeight, credit, note)
	}

	if c.Dosage != "" || c.Frequency != "" {
		credit, note := dosageCredit(norm, c.Dosage, c.Frequency)
		add(dosageWeight, credit, note)
	}

	if len(c.SideEffectsMentioned) > 0 {
		var found []string
		for _, se := range c.SideEffectsMentioned {
			if mentionsSideEffect(norm, se) {
				found = append(found, se)
			}
		}
		credit := float64(len(found)) / float64(len(c.SideEffectsMentioned))
		note := fmt.Sprintf("side effects matched %d/%d", len(found), len(c.SideEffectsMentioned))
		if len(found) > 0 {
			note += ": " + strings.Join(found, ", ")
		}
		add(sideEffectWeight, credit, note)
	}

	if excl := textmatch.NewPhraseSet(c.ExclusionCriteria...).Matches(norm); len(excl) > 0 {
		rationale = append(rationale, "mentions exclusion criteria: "+strings.Join(excl, ", "))
	}

	score := 0.0
	if den > 0 {
		score = math.Max(0, math.Min(1, num/den))
	}
	return types.ComponentScore{Score: score, Rationale: rationale}
}

func durationCredit(text string, target float64) (float64, string) {
	mentions := Durations(text)
	if len(mentions) == 0 {
		return 0, "no treatment duration mentioned"
	}
	for _, w := range mentions {
		if math.Abs(w-target) <= durationTolerance*target {
			return 1, fmt.Sprintf("duration matches %.0f weeks", target)
		}
	}
	return otherDuration, fmt.Sprintf("duration mentioned (%.1f weeks) differs from %.0f weeks", mentions[0], target)
}

func dosageCredit(norm, dosage, frequency string) (float64, string) {
	var provided, matched int
	var notes []string
	if dosage != "" {
		provided++
		if mentionsCompact(norm, dosage) {
			matched++
			notes = append(notes, "dosage "+dosage)
		}
	}
	if frequency != "" {
		provided++
		if textmatch.NewPhraseSet(expand(frequency, frequencyGroups)...).Any(norm) {
			matched++
			notes = append(notes, "frequency "+frequency)
		}
	}
	if matched == 0 {
		return 0, "dosage/frequency not mentioned"
	}
	return float64(matched) / float64(provided), "mentions " + strings.Join(notes, ", ")
}

var unitBoundary = regexp.MustCompile(`(\d)([a-z])`)

// mentionsCompact matches phrase as whole words in either its spaced or
// spaceless form, so "20 mg" and "20mg" match each other.
func mentionsCompact(norm, phrase string) bool {
	p := strings.TrimSpace(textmatch.Normalize(phrase))
	if p == "" {
		return false
	}
	spacedText := unitBoundary.ReplaceAllString(norm, "$1 $2")
	spaced := " " + unitBoundary.ReplaceAllString(p, "$1 $2") + " "
	compact := " " + strings.ReplaceAll(p, " ", "") + " "
	return strings.Contains(spacedText, spaced) || strings.Contains(norm, compact)
}

func mentionsSideEffect(norm, term string) bool {
	t := strings.TrimSpace(textmatch.Normalize(term))
	if t == "" {
		return false
	}
	candidates := []string{t, t + "s", t + "ed", t + "d"}
	candidates = append(candidates, sideEffectVariants[t]...)
	return textmatch.NewPhraseSet(candidates...).Any(norm)
}
