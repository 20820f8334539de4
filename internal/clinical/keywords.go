// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinical

import (
	"sort"
	"strings"

	"github.com/pdiddy/treatment-reviews/internal/textmatch"
)

// Keywords groups medical vocabulary by condition. It seeds crawler
// queries and the list-keywords command.
var Keywords = map[string][]string{
	"chronic_pain": {
		"chronic pain", "pain management", "fibromyalgia", "arthritis",
		"back pain", "joint pain", "neuropathic pain", "migraine",
	},
	"depression": {
		"depression", "major depressive disorder", "MDD", "antidepressant",
		"mood disorder", "mental health", "anxiety", "bipolar",
	},
	"diabetes": {
		"diabetes", "type 1 diabetes", "type 2 diabetes", "blood sugar",
		"glucose", "insulin", "diabetic", "A1C", "hemoglobin",
	},
	"hypertension": {
		"high blood pressure", "hypertension", "blood pressure",
		"systolic", "diastolic", "ACE inhibitor", "beta blocker",
	},
}

// Conditions returns the Keywords group names in sorted order.
func Conditions() []string {
	out := make([]string, 0, len(Keywords))
	for k := range Keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// KeywordsFor returns the keyword group for a condition given either as a
// group name ("chronic_pain") or as its lead term ("chronic pain").
func KeywordsFor(condition string) []string {
	key := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(condition)), " ", "_")
	if kw, ok := Keywords[key]; ok {
		return kw
	}
	return nil
}

// Each group lists names that refer to the same therapy.
var therapyGroups = [][]string{
	{"cbt", "cognitive behavioral therapy", "cognitive behavioural therapy", "cognitive therapy"},
	{"dbt", "dialectical behavior therapy", "dialectical behaviour therapy"},
	{"emdr", "eye movement desensitization and reprocessing"},
	{"mbsr", "mindfulness-based stress reduction", "mindfulness based stress reduction"},
	{"tens", "transcutaneous electrical nerve stimulation", "tens unit", "tens machine"},
	{"tms", "transcranial magnetic stimulation", "rtms"},
	{"ect", "electroconvulsive therapy", "shock therapy"},
	{"physical therapy", "physiotherapy", "pt"},
	{"ssri", "selective serotonin reuptake inhibitor", "ssris"},
	{"metformin", "glucophage"},
	{"sertraline", "zoloft"},
	{"fluoxetine", "prozac"},
	{"escitalopram", "lexapro"},
	{"duloxetine", "cymbalta"},
	{"pregabalin", "lyrica"},
	{"gabapentin", "neurontin"},
	{"lisinopril", "zestril", "prinivil"},
	{"amlodipine", "norvasc"},
	{"insulin glargine", "lantus"},
}

// Narrower than Keywords: only terms that name the condition itself.
var conditionGroups = [][]string{
	{"chronic pain", "persistent pain", "long-term pain", "chronic back pain", "fibromyalgia", "neuropathic pain"},
	{"depression", "depressed", "major depressive disorder", "mdd", "depressive episode"},
	{"anxiety", "anxious", "generalized anxiety disorder", "gad", "panic attacks"},
	{"diabetes", "diabetic", "type 2 diabetes", "type 1 diabetes", "t2d", "high blood sugar"},
	{"hypertension", "high blood pressure", "hbp", "elevated blood pressure"},
	{"insomnia", "can't sleep", "couldn't sleep", "trouble sleeping", "sleeplessness"},
	{"migraine", "migraines", "chronic headaches"},
	{"arthritis", "osteoarthritis", "rheumatoid arthritis", "joint pain"},
}

var frequencyGroups = [][]string{
	{"once daily", "once a day", "every day", "daily", "qd"},
	{"twice daily", "twice a day", "two times a day", "bid", "morning and evening"},
	{"three times daily", "three times a day", "tid"},
	{"weekly", "once a week", "every week", "per week", "each week"},
	{"nightly", "every night", "at night", "before bed", "at bedtime"},
	{"as needed", "when needed", "prn"},
}

var sideEffectVariants = map[string][]string{
	"fatigue":      {"fatigued", "tired", "exhausted", "exhaustion"},
	"nausea":       {"nauseous", "nauseated", "queasy"},
	"dizziness":    {"dizzy", "lightheaded", "light-headed"},
	"headache":     {"headaches", "head ache"},
	"insomnia":     {"couldn't sleep", "trouble sleeping", "can't sleep"},
	"drowsiness":   {"drowsy", "sleepy"},
	"anxiety":      {"anxious"},
	"weight gain":  {"gained weight", "put on weight"},
	"weight loss":  {"lost weight"},
	"rash":         {"rashes", "hives"},
	"dry mouth":    {"mouth was dry"},
	"constipation": {"constipated"},
}

// expand returns term plus every name in a group containing it.
func expand(term string, groups [][]string) []string {
	norm := strings.TrimSpace(textmatch.Normalize(term))
	out := []string{term}
	for _, g := range groups {
		for _, name := range g {
			if strings.TrimSpace(textmatch.Normalize(name)) == norm {
				for _, syn := range g {
					if !ambiguous[syn] {
						out = append(out, syn)
					}
				}
				break
			}
		}
	}
	return out
}

// Abbreviations that are also ordinary words. They match only when named
// directly, never as a synonym of the long form.
var ambiguous = map[string]bool{
	"tens": true,
	"pt":   true,
}
