// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// RedditPlatform is the platform name for Reddit posts.
const RedditPlatform = "reddit"

// redditBase is the Reddit origin. Tests point it at an httptest server.
var redditBase = "https://www.reddit.com"

const redditMaxLimit = 100

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Ups        int     `json:"ups"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
}

// RedditSource searches Reddit posts through the public JSON listing.
type RedditSource struct {
	fetcher *httputil.Fetcher
	log     logrus.FieldLogger
}

// NewRedditSource returns a Reddit search source.
func NewRedditSource(f *httputil.Fetcher, log logrus.FieldLogger) *RedditSource {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedditSource{fetcher: f, log: log}
}

func (r *RedditSource) Name() string { return RedditPlatform }

// Fetch runs one search for the therapy. Link posts without body text and
// removed posts are skipped.
func (r *RedditSource) Fetch(ctx context.Context, q Query) ([]types.ReviewRecord, error) {
	limit := q.Limit
	if limit <= 0 || limit > redditMaxLimit {
		limit = redditMaxLimit
	}

	var listing redditListing
	if err := r.fetcher.GetJSON(ctx, SearchURL(q.Subreddit, q.Therapy, limit), &listing); err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}

	var out []types.ReviewRecord
	for _, c := range listing.Data.Children {
		p := c.Data
		body := strings.TrimSpace(p.Selftext)
		if body == "" || body == "[removed]" || body == "[deleted]" {
			continue
		}
		text := cleanText(strings.TrimSpace(p.Title) + ". " + body)
		if len(text) < minTextChars {
			continue
		}

		md := types.Metadata{
			SourcePlatform: RedditPlatform,
			SourceURL:      redditBase + p.Permalink,
			Upvotes:        p.Ups,
		}
		if p.Author != "[deleted]" {
			md.AuthorHandle = p.Author
		}
		if p.CreatedUTC > 0 {
			md.PostDate = types.NewDate(time.Unix(int64(p.CreatedUTC), 0).UTC())
		}
		out = append(out, types.ReviewRecord{ID: "reddit-" + p.ID, Text: text, Metadata: md})
	}
	r.log.WithFields(logrus.Fields{"posts": len(listing.Data.Children), "kept": len(out)}).Debug("reddit search done")
	return out, nil
}

// SearchURL builds the search.json URL for a query, restricted to
// subreddit when one is given.
func SearchURL(subreddit, query string, limit int) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("sort", "relevance")
	v.Set("limit", strconv.Itoa(limit))
	path := "/search.json"
	if subreddit != "" {
		path = "/r/" + url.PathEscape(subreddit) + "/search.json"
		v.Set("restrict_sr", "on")
	}
	return redditBase + path + "?" + v.Encode()
}
