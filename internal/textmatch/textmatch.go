// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textmatch provides whole-word phrase matching over normalized
// review text. Phrase lists compile into an Aho-Corasick automaton so a
// review is scanned once regardless of how many phrases are tracked.
package textmatch

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
)

// Normalize lowercases s, folds curly apostrophes, turns every rune that
// is not a letter, digit, or apostrophe into a space, collapses runs of
// spaces, and pads the result with one space on each side. Matching a
// normalized phrase against normalized text therefore only hits whole
// words. Blank input yields "".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '’' || r == '‘' || r == '\'':
			b.WriteByte('\'')
			space = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	out := b.String()
	if out == " " {
		return ""
	}
	if !space {
		out += " "
	}
	return out
}

// Contains reports whether phrase occurs as whole words in text. text
// must already be normalized; phrase is normalized here.
func Contains(text, phrase string) bool {
	p := Normalize(phrase)
	return p != "" && strings.Contains(text, p)
}

// WordCount returns the number of words in a normalized text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// PhraseSet is an immutable set of phrases compiled for matching. It is
// safe for concurrent use.
type PhraseSet struct {
	phrases []string
	matcher *ahocorasick.Matcher
}

// NewPhraseSet compiles phrases. Duplicates and phrases that normalize to
// nothing are dropped.
func NewPhraseSet(phrases ...string) *PhraseSet {
	seen := make(map[string]bool, len(phrases))
	ps := &PhraseSet{}
	var keys []string
	for _, p := range phrases {
		n := Normalize(p)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		ps.phrases = append(ps.phrases, strings.TrimSpace(n))
		keys = append(keys, n)
	}
	if len(keys) > 0 {
		ps.matcher = ahocorasick.NewStringMatcher(keys)
	}
	return ps
}

// Len returns the number of distinct phrases in the set.
func (ps *PhraseSet) Len() int { return len(ps.phrases) }

// Matches returns the distinct phrases found in a normalized text, in set
// order.
func (ps *PhraseSet) Matches(text string) []string {
	if ps.matcher == nil || text == "" {
		return nil
	}
	idx := ps.matcher.MatchThreadSafe([]byte(text))
	if len(idx) == 0 {
		return nil
	}
	found := make([]bool, len(ps.phrases))
	for _, i := range idx {
		found[i] = true
	}
	var out []string
	for i, ok := range found {
		if ok {
			out = append(out, ps.phrases[i])
		}
	}
	return out
}

// Longest is like Matches but lets each stretch of text count once: where
// matched phrases overlap, only the longest is kept. "this is not medical
// advice" therefore hides "not medical advice" inside it.
func (ps *PhraseSet) Longest(text string) []string {
	found := ps.Matches(text)
	if len(found) < 2 {
		return found
	}

	type span struct {
		phrase     int
		start, end int
	}
	var spans []span
	for i, p := range found {
		padded := " " + p + " "
		for off := 0; ; {
			j := strings.Index(text[off:], padded)
			if j < 0 {
				break
			}
			start := off + j + 1
			spans = append(spans, span{phrase: i, start: start, end: start + len(p)})
			off = start
		}
	}
	sort.SliceStable(spans, func(a, b int) bool {
		la, lb := spans[a].end-spans[a].start, spans[b].end-spans[b].start
		if la != lb {
			return la > lb
		}
		return spans[a].start < spans[b].start
	})

	var kept []span
	keep := make([]bool, len(found))
	for _, sp := range spans {
		overlaps := false
		for _, k := range kept {
			if sp.start < k.end && k.start < sp.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, sp)
			keep[sp.phrase] = true
		}
	}

	var out []string
	for i, p := range found {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// Any reports whether any phrase in the set occurs in the normalized text.
func (ps *PhraseSet) Any(text string) bool {
	return len(ps.Matches(text)) > 0
}
