// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists evaluation runs and their per-review results in
// SQLite and serves filtered queries and exports over them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the results database.
type Store struct {
	db         *sql.DB
	maxResults int

	// fts is false when the SQLite build lacks FTS5; text queries then fall
	// back to LIKE matching.
	fts bool
}

// Open opens or creates the database at cfg.DBPath and creates the schema
// if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}
	s := &Store{db: db, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FullText reports whether full-text search is backed by FTS5.
func (s *Store) FullText() bool { return s.fts }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT,
			therapy TEXT NOT NULL,
			condition TEXT NOT NULL,
			criteria TEXT NOT NULL,
			config TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			review_id TEXT NOT NULL,
			text TEXT NOT NULL,
			platform TEXT,
			source_url TEXT,
			post_date TEXT,
			overall REAL NOT NULL,
			reliable INTEGER NOT NULL,
			authenticity REAL,
			clinical_match REAL,
			credibility REAL,
			temporal REAL,
			flags TEXT,
			result TEXT NOT NULL,
			UNIQUE(run_id, review_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_overall ON results(overall)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	if _, err := s.db.Exec(`CREATE VIRTUAL TABLE results_fts USING fts5(text, content=results, content_rowid=rowid)`); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}
	triggers := []string{
		`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
			INSERT INTO results_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
			INSERT INTO results_fts(results_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER results_au AFTER UPDATE ON results BEGIN
			INSERT INTO results_fts(results_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			INSERT INTO results_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS trigger: %w", err)
		}
	}
	s.fts = true
	return nil
}

// Entry pairs a review with its evaluation.
type Entry struct {
	Review types.ReviewRecord
	Result types.ReliabilityResult
}

// Run describes one stored evaluation batch.
type Run struct {
	ID        string                      `json:"id" yaml:"id"`
	CreatedAt time.Time                   `json:"created_at" yaml:"created_at"`
	Source    string                      `json:"source,omitempty" yaml:"source,omitempty"`
	Criteria  types.ClinicalTrialCriteria `json:"criteria" yaml:"criteria"`
	Total     int                         `json:"total" yaml:"total"`
	Reliable  int                         `json:"reliable" yaml:"reliable"`
}

// SaveRun stores entries under a new run and returns it. source records
// where the reviews came from, e.g. an input file or "crawl".
func (s *Store) SaveRun(ctx context.Context, source string, criteria types.ClinicalTrialCriteria, cfg types.ScoringConfig, entries []Entry) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Criteria:  criteria,
		Total:     len(entries),
	}

	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return Run{}, fmt.Errorf("encoding criteria: %w", err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return Run{}, fmt.Errorf("encoding config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, therapy, condition, criteria, config)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(timeLayout), source,
		criteria.TherapyName, criteria.ConditionTreated, string(criteriaJSON), string(cfgJSON),
	); err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, review_id, text, platform, source_url, post_date,
			overall, reliable, authenticity, clinical_match, credibility, temporal, flags, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	used := make(map[string]bool, len(entries))
	for i, e := range entries {
		id := uniqueID(e.Review.ID, i, used)
		var postDate string
		if t := e.Review.Metadata.PostTime(); t != nil {
			postDate = t.Format("2006-01-02")
		}
		flagsJSON, _ := json.Marshal(e.Result.Flags)
		resultJSON, err := json.Marshal(e.Result)
		if err != nil {
			return Run{}, fmt.Errorf("encoding result %s: %w", id, err)
		}
		flat := e.Result.Flat(id)
		if _, err := stmt.ExecContext(ctx,
			run.ID, id, e.Review.Text, e.Review.Metadata.SourcePlatform, e.Review.Metadata.SourceURL, postDate,
			flat.OverallScore, flat.IsReliable, flat.Authenticity, flat.ClinicalMatch, flat.Credibility, flat.Temporal,
			string(flagsJSON), string(resultJSON),
		); err != nil {
			return Run{}, fmt.Errorf("inserting result %s: %w", id, err)
		}
		if e.Result.IsReliable {
			run.Reliable++
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// uniqueID returns the review's ID, or review-N for the i'th entry when it
// has none, suffixed with -2, -3, ... until it is not yet used in the run.
func uniqueID(id string, i int, used map[string]bool) string {
	if id == "" {
		id = fmt.Sprintf("review-%d", i+1)
	}
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	used[candidate] = true
	return candidate
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, r.source, r.criteria,
			(SELECT count(*) FROM results WHERE run_id = r.id),
			(SELECT count(*) FROM results WHERE run_id = r.id AND reliable = 1)
		 FROM runs r ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run          Run
			created      string
			source       sql.NullString
			criteriaJSON string
		)
		if err := rows.Scan(&run.ID, &created, &source, &criteriaJSON, &run.Total, &run.Reliable); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(timeLayout, created)
		run.Source = source.String
		if err := json.Unmarshal([]byte(criteriaJSON), &run.Criteria); err != nil {
			return nil, fmt.Errorf("decoding criteria for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its results. Deleting an unknown run is an
// error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}
