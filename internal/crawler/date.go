// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawler

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

var (
	slashDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	isoDate   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dashDate  = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`)
	wordDate  = regexp.MustCompile(`\b([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})\b`)
	bareYear  = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

// ExtractDate finds a date inside free text such as "Posted March 3, 2019"
// or "Reviewed 03/14/2020". It tries, in order: a full layout via
// types.ParseDate, MM/DD/YYYY, YYYY-MM-DD, DD-MM-YYYY, "Month D, YYYY", and
// finally a bare year, which maps to January 1.
func ExtractDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := types.ParseDate(s); err == nil {
		return t, true
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		if t, ok := ymd(m[3], m[1], m[2]); ok {
			return t, true
		}
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		if t, ok := ymd(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := dashDate.FindStringSubmatch(s); m != nil {
		if t, ok := ymd(m[3], m[2], m[1]); ok {
			return t, true
		}
	}
	if m := wordDate.FindStringSubmatch(s); m != nil {
		if month, ok := monthNumber(m[1]); ok {
			if t, ok := ymd(m[3], strconv.Itoa(month), m[2]); ok {
				return t, true
			}
		}
	}
	if m := bareYear.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ymd builds a date, rejecting values time.Date would normalize.
func ymd(year, month, day string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func monthNumber(name string) (int, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), name) {
			return int(m), true
		}
	}
	return 0, false
}
