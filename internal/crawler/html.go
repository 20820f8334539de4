// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/treatment-reviews/internal/httputil"
	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// minTextChars drops fragments too short to be a review.
const minTextChars = 20

// Selectors locate review fields within a page. Empty selectors are
// skipped.
type Selectors struct {
	Container string
	Text      string
	Date      string
	Author    string
	Rating    string
	Helpful   string
}

// Site describes a review site that serves HTML pages.
type Site struct {
	Platform string

	// BaseURL is the site root, e.g. "https://www.drugs.com".
	BaseURL string

	// Path formats the review listing path from a slugged therapy name.
	Path string

	// PageParam is the query parameter carrying the page number. Page 1 is
	// requested without it. Empty means the site is not paginated.
	PageParam string

	Selectors Selectors
}

// Sites are the HTML review sources, keyed by platform name.
var Sites = map[string]Site{
	"drugs.com": {
		Platform:  "drugs.com",
		BaseURL:   "https://www.drugs.com",
		Path:      "/comments/%s/",
		PageParam: "page",
		Selectors: Selectors{
			Container: ".review",
			Text:      ".review-content",
			Date:      ".review-date",
			Author:    ".review-author",
			Rating:    ".rating-score",
			Helpful:   ".helpful-count",
		},
	},
	"webmd": {
		Platform:  "webmd",
		BaseURL:   "https://www.webmd.com",
		Path:      "/drugs/drugreview-%s",
		PageParam: "pageIndex",
		Selectors: Selectors{
			Container: ".review-item",
			Text:      ".review-description",
			Date:      ".review-date",
			Author:    ".review-author",
		},
	},
	"patientslikeme": {
		Platform: "patientslikeme",
		BaseURL:  "https://www.patientslikeme.com",
		Path:     "/treatments/%s/reviews",
		Selectors: Selectors{
			Container: ".experience-item",
			Text:      ".experience-text",
			Date:      ".experience-date",
			Author:    ".experience-author",
		},
	},
}

// PageURL returns the listing URL for therapy on the given 1-based page.
func (s Site) PageURL(therapy string, page int) string {
	u := strings.TrimRight(s.BaseURL, "/") + fmt.Sprintf(s.Path, Slug(therapy))
	if page > 1 && s.PageParam != "" {
		u += "?" + s.PageParam + "=" + strconv.Itoa(page)
	}
	return u
}

// Slug lowercases name and joins its words with hyphens.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// HTMLSource scrapes one Site.
type HTMLSource struct {
	site    Site
	fetcher *httputil.Fetcher
	log     logrus.FieldLogger
}

// NewHTMLSource returns a source for site.
func NewHTMLSource(site Site, f *httputil.Fetcher, log logrus.FieldLogger) *HTMLSource {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTMLSource{site: site, fetcher: f, log: log}
}

func (h *HTMLSource) Name() string { return h.site.Platform }

// Fetch walks listing pages until one has no reviews, MaxPages is reached,
// or Limit reviews are collected. A missing first page (404) yields no
// reviews and no error. A failure on a later page stops pagination and
// returns what was collected so far along with the error.
func (h *HTMLSource) Fetch(ctx context.Context, q Query) ([]types.ReviewRecord, error) {
	maxPages := max(q.MaxPages, 1)
	if h.site.PageParam == "" {
		maxPages = 1
	}

	var out []types.ReviewRecord
	for page := 1; page <= maxPages; page++ {
		pageURL := h.site.PageURL(q.Therapy, page)
		body, err := h.fetcher.Get(ctx, pageURL, http.Header{"Accept": {"text/html"}})
		if err != nil {
			var se *httputil.StatusError
			if page == 1 && errors.As(err, &se) && se.Code == http.StatusNotFound {
				h.log.WithField("url", pageURL).Info("no review page for therapy")
				return nil, nil
			}
			return out, fmt.Errorf("%s page %d: %w", h.site.Platform, page, err)
		}

		reviews, err := ParsePage(bytes.NewReader(body), h.site, pageURL)
		if err != nil {
			return out, fmt.Errorf("%s page %d: %w", h.site.Platform, page, err)
		}
		if len(reviews) == 0 {
			h.log.WithFields(logrus.Fields{"source": h.site.Platform, "page": page}).Debug("no more reviews")
			break
		}
		out = append(out, reviews...)
		if q.Limit > 0 && len(out) >= q.Limit {
			return out[:q.Limit], nil
		}
	}
	return out, nil
}

var ratingExpr = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePage extracts reviews from one HTML listing page.
func ParsePage(r io.Reader, site Site, pageURL string) ([]types.ReviewRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	sel := site.Selectors
	var reviews []types.ReviewRecord
	doc.Find(sel.Container).Each(func(_ int, item *goquery.Selection) {
		text := cleanText(item.Find(sel.Text).First().Text())
		if len(text) < minTextChars {
			return
		}

		md := types.Metadata{
			SourcePlatform: site.Platform,
			SourceURL:      pageURL,
			AuthorHandle:   field(item, sel.Author),
		}
		if t, ok := dateOf(item, sel.Date); ok {
			md.PostDate = types.NewDate(t)
		}
		if m := ratingExpr.FindString(field(item, sel.Helpful)); m != "" {
			md.HelpfulCount, _ = strconv.Atoi(m)
		}

		rec := types.ReviewRecord{
			ID:       ReviewID(site.Platform, md.AuthorHandle, text),
			Text:     text,
			Metadata: md,
		}
		if m := ratingExpr.FindString(field(item, sel.Rating)); m != "" {
			rec.Rating, _ = strconv.ParseFloat(m, 64)
		}
		reviews = append(reviews, rec)
	})
	return reviews, nil
}

func field(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return cleanText(item.Find(selector).First().Text())
}

// dateOf prefers a machine-readable datetime attribute over visible text.
func dateOf(item *goquery.Selection, selector string) (time.Time, bool) {
	if selector == "" {
		return time.Time{}, false
	}
	el := item.Find(selector).First()
	if attr, exists := el.Attr("datetime"); exists {
		if t, ok := ExtractDate(attr); ok {
			return t, true
		}
	}
	return ExtractDate(el.Text())
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// reviewNamespace scopes review IDs.
var reviewNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("treatment-reviews/review"))

// ReviewID derives a stable ID so the same review fetched twice
// deduplicates.
func ReviewID(platform, author, text string) string {
	return uuid.NewSHA1(reviewNamespace, []byte(platform+"\x00"+author+"\x00"+text)).String()
}
