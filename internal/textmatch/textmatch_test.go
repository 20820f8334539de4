// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textmatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   \n\t", ""},
		{"Hello, World!", " hello world "},
		{"It’s life-changing", " it's life changing "},
		{"12-week   program", " 12 week program "},
		{"...", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestContainsWholeWords(t *testing.T) {
	text := Normalize("Though it was rough, I was fine.")
	assert.False(t, Contains(text, "ugh"))
	assert.True(t, Contains(text, "I was"))
	assert.False(t, Contains(text, "  "))
}

func TestPhraseSet(t *testing.T) {
	ps := NewPhraseSet("i was", "I WAS", "went away", "lol", "")
	assert.Equal(t, 3, ps.Len())

	got := ps.Matches(Normalize("I was tired, then it went away. I was happy."))
	assert.Equal(t, []string{"i was", "went away"}, got)

	assert.Nil(t, ps.Matches(Normalize("lollipop")))
	assert.False(t, NewPhraseSet().Any(" anything "))
}

func TestPhraseSetOverlapping(t *testing.T) {
	ps := NewPhraseSet("i felt", "felt better", "i was")
	got := ps.Matches(Normalize("I felt better. I was glad."))
	assert.ElementsMatch(t, []string{"i felt", "felt better", "i was"}, got)
}

func TestPhraseSetConcurrent(t *testing.T) {
	ps := NewPhraseSet("my doctor", "at first")
	text := Normalize("At first my doctor said no.")
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, ps.Matches(text), 2)
		}()
	}
	wg.Wait()
}

func TestPhraseSetLongest(t *testing.T) {
	ps := NewPhraseSet("not medical advice", "this is not medical advice", "consult your doctor")

	got := ps.Longest(Normalize("This is not medical advice."))
	assert.Equal(t, []string{"this is not medical advice"}, got)

	got = ps.Longest(Normalize("Not medical advice. Consult your doctor. This is not medical advice."))
	assert.Equal(t, []string{"not medical advice", "this is not medical advice", "consult your doctor"}, got)

	assert.Nil(t, ps.Longest(Normalize("nothing here")))

	// Phrases that share no text are all kept.
	overlap := NewPhraseSet("i felt", "felt better", "i was")
	assert.ElementsMatch(t, []string{"felt better", "i was"}, overlap.Longest(Normalize("I felt better. I was glad.")))
}
