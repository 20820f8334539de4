// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// QueryOptions filters stored results.
type QueryOptions struct {
	// Query is a full-text search over review text.
	Query string

	RunID    string
	Platform string

	// ReliableOnly keeps only reviews that passed.
	ReliableOnly bool

	// MinScore keeps results with overall score at or above it.
	MinScore float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether no filter is set.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.RunID == "" && q.Platform == "" && !q.ReliableOnly && q.MinScore == 0
}

// Record is a stored result with its review text and provenance.
type Record struct {
	types.FlatRecord `yaml:",inline"`

	RunID     string   `json:"run_id" yaml:"run_id"`
	Platform  string   `json:"platform,omitempty" yaml:"platform,omitempty"`
	SourceURL string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	PostDate  string   `json:"post_date,omitempty" yaml:"post_date,omitempty"`
	Flags     []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Text      string   `json:"text" yaml:"text"`
}

// Retrieve returns results matching opts. Full-text queries are ranked by
// relevance; otherwise results are ordered by score, highest first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Record, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	qb := sq.Select(
		"r.run_id", "r.review_id", "r.text", "r.platform", "r.source_url", "r.post_date",
		"r.overall", "r.reliable", "r.authenticity", "r.clinical_match", "r.credibility", "r.temporal", "r.flags",
	)

	switch {
	case opts.Query != "" && s.fts:
		qb = qb.From("results_fts").
			Join("results r ON r.rowid = results_fts.rowid").
			Where("results_fts MATCH ?", opts.Query).
			OrderBy("results_fts.rank")
	case opts.Query != "":
		qb = qb.From("results r").
			Where(sq.Like{"r.text": "%" + opts.Query + "%"}).
			OrderBy("r.overall DESC", "r.rowid")
	default:
		qb = qb.From("results r").OrderBy("r.overall DESC", "r.rowid")
	}

	if opts.RunID != "" {
		qb = qb.Where(sq.Eq{"r.run_id": opts.RunID})
	}
	if opts.Platform != "" {
		qb = qb.Where(sq.Eq{"r.platform": opts.Platform})
	}
	if opts.ReliableOnly {
		qb = qb.Where(sq.Eq{"r.reliable": 1})
	}
	if opts.MinScore > 0 {
		qb = qb.Where(sq.GtOrEq{"r.overall": opts.MinScore})
	}
	qb = qb.Limit(uint64(maxResults))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                           Record
			platform, sourceURL, postDate sql.NullString
			flagsJSON                     sql.NullString
		)
		if err := rows.Scan(
			&rec.RunID, &rec.ID, &rec.Text, &platform, &sourceURL, &postDate,
			&rec.OverallScore, &rec.IsReliable, &rec.Authenticity, &rec.ClinicalMatch,
			&rec.Credibility, &rec.Temporal, &flagsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.Platform = platform.String
		rec.SourceURL = sourceURL.String
		rec.PostDate = postDate.String
		if flagsJSON.Valid {
			json.Unmarshal([]byte(flagsJSON.String), &rec.Flags)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Result returns the full stored evaluation of one review in a run.
func (s *Store) Result(ctx context.Context, runID, reviewID string) (types.ReliabilityResult, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM results WHERE run_id = ? AND review_id = ?`, runID, reviewID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return types.ReliabilityResult{}, fmt.Errorf("result %s/%s not found", runID, reviewID)
	}
	if err != nil {
		return types.ReliabilityResult{}, fmt.Errorf("looking up result: %w", err)
	}

	var res types.ReliabilityResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return types.ReliabilityResult{}, fmt.Errorf("decoding result: %w", err)
	}
	return res, nil
}
