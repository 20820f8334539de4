// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package authenticity

import (
	"context"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	formulaicReview = "I hope this helps with your decision about CBT therapy. It's important to note that everyone's experience may vary..."
	personalReview  = "I started CBT for my chronic pain in 2016... The 12-week program... by week 8 I noticed real improvements. Some fatigue in the beginning."

	generatedEssay = `
    I hope this helps with your decision about CBT therapy. It's important to note
    that everyone's experience may vary with this treatment. From my perspective,
    the cognitive behavioral therapy approach offers several advantages:
    1. Evidence-based treatment methods
    2. Structured approach to pain management
    3. Long-term coping strategies
    However, it's worth mentioning that results may differ for each individual.
    Please consult with your healthcare provider before starting any new treatment.
    This is not medical advice.
    `

	patientStory = `
    I started CBT for my chronic pain in 2016 after reading about the study.
    The 12-week program was challenging at first - I felt more anxious initially,
    but by week 8 I noticed real improvements. The techniques for pain management
    really helped me cope better. Some fatigue in the beginning but that went away.
    Overall, it made a significant difference in my daily life.
    `
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPatternScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		min, max float64
	}{
		{"formulaic hedging", formulaicReview, 0, 0.3},
		{"personal timeline", personalReview, 0.9, 1},
		{"generated essay", generatedEssay, 0, 0.05},
		{"patient story", patientStory, 0.95, 1},
		{"empty", "", 0, 0},
		{"whitespace only", "  \n\t ", 0, 0},
		{"short neutral", "great stuff", 0.5, 0.5},
		{"short personal is capped", "I started it. I was fine.", 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PatternScore(tt.text)
			assert.GreaterOrEqual(t, got.Score, tt.min)
			assert.LessOrEqual(t, got.Score, tt.max)
			assert.NotEmpty(t, got.Rationale)
		})
	}
}

func TestPatternScoreExactValues(t *testing.T) {
	// Three formulaic phrases and no personal markers.
	assert.InDelta(t, 1/(1+math.Exp(1.8)), PatternScore(formulaicReview).Score, 1e-9)
	// Four personal phrases and three timeline references.
	assert.InDelta(t, 1/(1+math.Exp(-4.2)), PatternScore(personalReview).Score, 1e-9)
}

func TestInspect(t *testing.T) {
	sig := Inspect(generatedEssay)
	assert.Contains(t, sig.AIPhrases, "i hope this helps")
	assert.Contains(t, sig.AIPhrases, "evidence based")
	assert.Contains(t, sig.Disclaimers, "this is not medical advice")
	assert.Equal(t, 3, sig.NumberedLines)
	assert.Empty(t, sig.HumanMarkers)

	sig = Inspect(personalReview)
	assert.ElementsMatch(t, []string{
		"i started", "my chronic", "i noticed", "in the beginning",
		"in 2016", "by week 8", "12-week",
	}, sig.HumanMarkers)
	assert.Equal(t, 4, sig.Sentences)
}

func TestSubstringsDoNotMatch(t *testing.T) {
	sig := Inspect("Though the program was thorough, it was tough enough for everyone involved here.")
	assert.Empty(t, sig.HumanMarkers, "ugh inside longer words must not count")
}

func TestMoreFormulaicPhrasesLowerScore(t *testing.T) {
	base := "The medication worked well over the period and side effects were mild overall for the whole group."
	prev := PatternScore(base).Score
	for _, phrase := range []string{" Furthermore, it helped.", " Moreover, it helped.", " In conclusion, it helped."} {
		base += phrase
		got := PatternScore(base).Score
		assert.Less(t, got, prev, "after adding %q", phrase)
		prev = got
	}
}

func TestUniformSentencesPenalized(t *testing.T) {
	uniform := "The pills were taken daily. The pain was much lower. The sleep was much better. The mood was more stable."
	varied := "The pills were taken daily. Pain lower. The sleep was much better than it had been for a very long time. Mood stable."
	assert.Less(t, PatternScore(uniform).Score, PatternScore(varied).Score)
}

type fakeDetector struct {
	p         float64
	err       error
	available bool
	calls     atomic.Int32
	delay     time.Duration
}

func (f *fakeDetector) Classify(ctx context.Context, _ string) (float64, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.p, f.err
}

func (f *fakeDetector) Available(context.Context) bool { return f.available }

func TestAnalyzeWithoutDetector(t *testing.T) {
	a := New(WithLogger(quietLogger()))
	got, used := a.Analyze(context.Background(), personalReview)
	assert.False(t, used)
	assert.Equal(t, PatternScore(personalReview), got)
}

func TestAnalyzeBlendsDetector(t *testing.T) {
	d := &fakeDetector{p: 0, available: true}
	a := New(WithDetector(d, 0.5, time.Second), WithLogger(quietLogger()))

	got, used := a.Analyze(context.Background(), personalReview)
	require.True(t, used)
	assert.InDelta(t, PatternScore(personalReview).Score/2, got.Score, 1e-9)
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestAnalyzeFallsBack(t *testing.T) {
	pattern := PatternScore(personalReview)

	tests := []struct {
		name string
		det  *fakeDetector
	}{
		{"unavailable", &fakeDetector{available: false}},
		{"error", &fakeDetector{available: true, err: errors.New("boom")}},
		{"nan", &fakeDetector{available: true, p: math.NaN()}},
		{"timeout", &fakeDetector{available: true, p: 1, delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(WithDetector(tt.det, 0.5, 20*time.Millisecond), WithLogger(quietLogger()))
			got, used := a.Analyze(context.Background(), personalReview)
			assert.False(t, used)
			assert.Equal(t, pattern.Score, got.Score)
		})
	}
}

func TestAnalyzeShortTextCappedAfterBlend(t *testing.T) {
	d := &fakeDetector{p: 1, available: true}
	a := New(WithDetector(d, 0.5, 0), WithLogger(quietLogger()))
	got, used := a.Analyze(context.Background(), "I tried it, honestly great.")
	assert.True(t, used)
	assert.Equal(t, 0.5, got.Score)
}

func TestAnalyzeEmptySkipsDetector(t *testing.T) {
	d := &fakeDetector{p: 1, available: true}
	a := New(WithDetector(d, 0.5, 0))
	got, used := a.Analyze(context.Background(), "")
	assert.False(t, used)
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, int32(0), d.calls.Load())
}

func TestSingleDisclaimerCountsOnce(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"This is not medical advice.", "this is not medical advice"},
		{"Please consult with your healthcare provider before starting anything new.", "consult with your healthcare provider"},
	}
	for _, tt := range tests {
		sig := Inspect(tt.text)
		assert.Equal(t, []string{tt.want}, sig.Disclaimers, tt.text)
		assert.NotContains(t, PatternScore(tt.text).Rationale, "stacked disclaimers", tt.text)
	}

	two := "This is not medical advice. Always follow your doctor's instructions."
	assert.Len(t, Inspect(two).Disclaimers, 2)
	assert.Contains(t, PatternScore(two).Rationale, "stacked disclaimers")
}

func TestPersonalExperienceIsNotFormulaic(t *testing.T) {
	sig := Inspect("In my experience the side effects faded after a month.")
	assert.Empty(t, sig.AIPhrases)
}
