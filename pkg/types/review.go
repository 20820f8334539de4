// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Metadata carries optional provenance for a review. Every field may be
// absent; unknown keys in decoded input are ignored.
type Metadata struct {
	SourcePlatform string `json:"source_platform,omitempty" yaml:"source_platform,omitempty"`
	PostDate       *Date  `json:"post_date,omitempty" yaml:"post_date,omitempty"`
	AuthorHandle   string `json:"author_handle,omitempty" yaml:"author_handle,omitempty"`
	HelpfulCount   int    `json:"helpful_count,omitempty" yaml:"helpful_count,omitempty"`
	Upvotes        int    `json:"upvotes,omitempty" yaml:"upvotes,omitempty"`
	Verified       *bool  `json:"verified_flag,omitempty" yaml:"verified_flag,omitempty"`

	// SourceURL is the page the review was collected from.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// AccountAgeMonths is how long the author's account has existed.
	AccountAgeMonths int `json:"account_age_months,omitempty" yaml:"account_age_months,omitempty"`
}

// Helpful returns the larger of HelpfulCount and Upvotes, never negative.
func (m Metadata) Helpful() int {
	return max(m.HelpfulCount, m.Upvotes, 0)
}

// PostTime returns the post date as a time, or nil when absent.
func (m Metadata) PostTime() *time.Time {
	if m.PostDate == nil || m.PostDate.IsZero() {
		return nil
	}
	t := m.PostDate.Time
	return &t
}

// ReviewRecord is a single patient-written review.
type ReviewRecord struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Text     string   `json:"text" yaml:"text"`
	Rating   float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
