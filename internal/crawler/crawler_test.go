// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testFetcher(ts *httptest.Server) *httputil.Fetcher {
	return httputil.NewFetcher(types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test"},
		httputil.WithClient(ts.Client()), httputil.WithLogger(quietLogger()))
}

const drugsPage = `<html><body>
<div class="review">
  <div class="review-content">Took it for 12 weeks for my depression, mild nausea at first.</div>
  <span class="review-date">March 3, 2019</span>
  <span class="review-author">jane_d</span>
  <div class="rating-score">8/10</div>
  <span class="helpful-count">14 people found this helpful</span>
</div>
<div class="review">
  <div class="review-content">Too short.</div>
</div>
<div class="review">
  <div class="review-content">
     Did nothing for me after two months,
     stopped taking it.
  </div>
  <time class="review-date" datetime="2020-07-15">last summer</time>
</div>
</body></html>`

func TestParsePage(t *testing.T) {
	site := Sites["drugs.com"]
	reviews, err := ParsePage(strings.NewReader(drugsPage), site, "https://www.drugs.com/comments/sertraline/")
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	first := reviews[0]
	assert.Equal(t, "Took it for 12 weeks for my depression, mild nausea at first.", first.Text)
	assert.Equal(t, 8.0, first.Rating)
	assert.Equal(t, "jane_d", first.Metadata.AuthorHandle)
	assert.Equal(t, 14, first.Metadata.HelpfulCount)
	assert.Equal(t, "drugs.com", first.Metadata.SourcePlatform)
	require.NotNil(t, first.Metadata.PostDate)
	assert.Equal(t, "2019-03-03", first.Metadata.PostDate.Format("2006-01-02"))
	assert.NotEmpty(t, first.ID)

	second := reviews[1]
	assert.Equal(t, "Did nothing for me after two months, stopped taking it.", second.Text)
	assert.Empty(t, second.Metadata.AuthorHandle)
	require.NotNil(t, second.Metadata.PostDate)
	assert.Equal(t, 2020, second.Metadata.PostDate.Year())
}

func TestReviewIDStable(t *testing.T) {
	a := ReviewID("drugs.com", "x", "text")
	assert.Equal(t, a, ReviewID("drugs.com", "x", "text"))
	assert.NotEqual(t, a, ReviewID("webmd", "x", "text"))
}

func TestPageURL(t *testing.T) {
	site := Sites["drugs.com"]
	assert.Equal(t, "https://www.drugs.com/comments/cognitive-behavioral-therapy/", site.PageURL("Cognitive  Behavioral Therapy", 1))
	assert.Equal(t, "https://www.drugs.com/comments/sertraline/?page=3", site.PageURL("sertraline", 3))
	assert.Equal(t, "https://www.patientslikeme.com/treatments/sertraline/reviews", Sites["patientslikeme"].PageURL("sertraline", 2))
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2021-04-09", "2021-04-09", true},
		{"Reviewed 03/14/2020", "2020-03-14", true},
		{"posted 2018-7-4 by admin", "2018-07-04", true},
		{"on 25-12-2017", "2017-12-25", true},
		{"Posted March 3, 2019", "2019-03-03", true},
		{"Sept 9 2016", "2016-09-09", true},
		{"sometime in 2015", "2015-01-01", true},
		{"02/30/2020 or so in 2020", "2020-01-01", true},
		{"yesterday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ExtractDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestHTMLSource_Paginates(t *testing.T) {
	var pages []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "3" {
			fmt.Fprint(w, "<html><body>nothing here</body></html>")
			return
		}
		fmt.Fprintf(w, `<div class="review"><div class="review-content">Review on page %q with enough text.</div></div>`, page)
	}))
	defer ts.Close()

	site := Sites["drugs.com"]
	site.BaseURL = ts.URL
	src := NewHTMLSource(site, testFetcher(ts), quietLogger())

	reviews, err := src.Fetch(context.Background(), Query{Therapy: "sertraline", MaxPages: 5})
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, []string{"", "2", "3"}, pages)
}

func TestHTMLSource_Limit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := range 3 {
			fmt.Fprintf(w, `<div class="review"><div class="review-content">Review %d on %s with enough text.</div></div>`, i, r.URL.RawQuery)
		}
	}))
	defer ts.Close()

	site := Sites["drugs.com"]
	site.BaseURL = ts.URL
	reviews, err := NewHTMLSource(site, testFetcher(ts), quietLogger()).
		Fetch(context.Background(), Query{Therapy: "x", MaxPages: 5, Limit: 4})
	require.NoError(t, err)
	assert.Len(t, reviews, 4)
}

func TestHTMLSource_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	site := Sites["webmd"]
	site.BaseURL = ts.URL
	reviews, err := NewHTMLSource(site, testFetcher(ts), quietLogger()).Fetch(context.Background(), Query{Therapy: "x"})
	assert.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestHTMLSource_LaterPageFailureKeepsResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<div class="review"><div class="review-content">First page review with enough text.</div></div>`)
	}))
	defer ts.Close()

	site := Sites["drugs.com"]
	site.BaseURL = ts.URL
	reviews, err := NewHTMLSource(site, testFetcher(ts), quietLogger()).Fetch(context.Background(), Query{Therapy: "x", MaxPages: 3})
	assert.ErrorContains(t, err, "page 2")
	assert.Len(t, reviews, 1)
}

const redditJSON = `{"data":{"children":[
 {"data":{"id":"a1","title":"Sertraline after 3 months","selftext":"Anxiety is much better, some insomnia early on.","author":"throwaway","created_utc":1577880000,"ups":42,"permalink":"/r/depression/comments/a1/x/"}},
 {"data":{"id":"a2","title":"link post","selftext":"","author":"bot","created_utc":1577880000}},
 {"data":{"id":"a3","title":"gone","selftext":"[removed]","author":"[deleted]","created_utc":1577880000}}
]}}`

func TestRedditSource(t *testing.T) {
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, redditJSON)
	}))
	defer ts.Close()

	old := redditBase
	redditBase = ts.URL
	defer func() { redditBase = old }()

	reviews, err := NewRedditSource(testFetcher(ts), quietLogger()).
		Fetch(context.Background(), Query{Therapy: "sertraline", Subreddit: "depression"})
	require.NoError(t, err)
	assert.Equal(t, "/r/depression/search.json", gotPath)
	assert.Equal(t, "sertraline", gotQuery)

	require.Len(t, reviews, 1)
	r := reviews[0]
	assert.Equal(t, "reddit-a1", r.ID)
	assert.Equal(t, "Sertraline after 3 months. Anxiety is much better, some insomnia early on.", r.Text)
	assert.Equal(t, 42, r.Metadata.Upvotes)
	assert.Equal(t, "throwaway", r.Metadata.AuthorHandle)
	assert.Equal(t, ts.URL+"/r/depression/comments/a1/x/", r.Metadata.SourceURL)
	require.NotNil(t, r.Metadata.PostDate)
	assert.Equal(t, 2020, r.Metadata.PostDate.Year())
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t, redditBase+"/search.json?limit=10&q=st+john%27s+wort&sort=relevance", SearchURL("", "st john's wort", 10))
	assert.Contains(t, SearchURL("ChronicPain", "cbt", 5), "/r/ChronicPain/search.json?")
	assert.Contains(t, SearchURL("ChronicPain", "cbt", 5), "restrict_sr=on")
}

type fakeSource struct {
	name    string
	reviews []types.ReviewRecord
	err     error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Fetch(context.Context, Query) ([]types.ReviewRecord, error) {
	return f.reviews, f.err
}

func recs(ids ...string) []types.ReviewRecord {
	out := make([]types.ReviewRecord, len(ids))
	for i, id := range ids {
		out[i] = types.ReviewRecord{ID: id, Text: "text " + id}
	}
	return out
}

func TestCollect(t *testing.T) {
	sources := []Source{
		fakeSource{name: "a", reviews: recs("1", "2")},
		fakeSource{name: "b", err: errors.New("blocked")},
		fakeSource{name: "c", reviews: recs("2", "3", "4")},
	}
	got, sum, err := Collect(context.Background(), sources, Query{Therapy: "x"}, 3, quietLogger())
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, 5, sum.Total())
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.Truncated)
	assert.True(t, sum.HasFailures())
	assert.Equal(t, "blocked", sum.Failures["b"])
}

func TestCollect_Errors(t *testing.T) {
	_, _, err := Collect(context.Background(), []Source{fakeSource{name: "a"}}, Query{}, 0, quietLogger())
	assert.ErrorContains(t, err, "therapy name is required")

	_, _, err = Collect(context.Background(), nil, Query{Therapy: "x"}, 0, quietLogger())
	assert.ErrorContains(t, err, "no review sources")
}

func TestNewSources(t *testing.T) {
	cfg := types.DefaultConfig().Crawler
	sources, err := NewSources(cfg, quietLogger())
	require.NoError(t, err)
	var names []string
	for _, s := range sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"drugs.com", "webmd", "patientslikeme", "reddit"}, names)

	cfg.Platforms = []string{"myspace"}
	_, err = NewSources(cfg, quietLogger())
	assert.ErrorContains(t, err, `unknown platform "myspace"`)
}
