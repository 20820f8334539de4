// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package authenticity

import (
	"regexp"

	"github.com/pdiddy/treatment-reviews/internal/textmatch"
)

// Hedging openers and formulaic transitions typical of generated text.
var aiPhrases = []string{
	"i hope this helps",
	"it's important to note",
	"it is important to note",
	"everyone's experience may vary",
	"results may differ",
	"from my perspective",
	"it's worth mentioning",
	"it is worth mentioning",
	"on the other hand",
	"that being said",
	"in conclusion",
	"to summarize",
	"overall, it",
	"several advantages",
	"evidence-based",
	"firstly",
	"secondly",
	"thirdly",
	"additionally,",
	"furthermore",
	"moreover",
	"as an ai",
	"comprehensive",
}

// Promotional superlatives. Counted with the AI phrases.
var promotionalPhrases = []string{
	"miracle cure",
	"best treatment ever",
	"highly recommend to everyone",
	"life-changing",
	"amazing results",
	"incredible improvement",
}

// Medical disclaimer boilerplate. Overlapping entries count once, as the
// longest one found.
var disclaimerPhrases = []string{
	"this is not medical advice",
	"not medical advice",
	"consult your doctor",
	"consult with your doctor",
	"consult your healthcare provider",
	"consult with your healthcare provider",
	"speak with your healthcare provider",
	"talk to your healthcare provider",
	"always follow your doctor's instructions",
	"individual results may vary",
}

// First-person experience and informal markers.
var humanPhrases = []string{
	"i started",
	"i noticed",
	"i felt",
	"i was",
	"i had",
	"i've been",
	"i tried",
	"i took",
	"i stopped",
	"i quit",
	"my doctor",
	"my pain",
	"my chronic",
	"my therapist",
	"went away",
	"at first",
	"in the beginning",
	"honestly",
	"tbh",
	"lol",
	"ugh",
	"kinda",
	"pretty much",
	"couldn't",
	"didn't",
	"wasn't",
	"wish i",
	"for me",
}

// Personal timeline references. Matched against the lowercased text.
var humanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bin (19|20)\d{2}\b`),
	regexp.MustCompile(`\b(by|after|around|until) (week|month|day) \d+\b`),
	regexp.MustCompile(`\b\d+[- ](week|month|day)s?\b`),
	regexp.MustCompile(`\b(last|this) (week|month|year)\b`),
}

var (
	numberedLine     = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
	aiSet            = textmatch.NewPhraseSet(append(append([]string{}, aiPhrases...), promotionalPhrases...)...)
	disclaimerSet    = textmatch.NewPhraseSet(disclaimerPhrases...)
	humanSet         = textmatch.NewPhraseSet(humanPhrases...)
)
