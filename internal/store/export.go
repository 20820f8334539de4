// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const exportLimit = 100000

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Export writes results matching opts to w in format. It supports the same
// filters as Retrieve.
func (s *Store) Export(ctx context.Context, w io.Writer, format string, opts QueryOptions) error {
	switch format {
	case FormatJSON:
		return s.ExportJSON(ctx, w, opts)
	case FormatCSV:
		return s.ExportCSV(ctx, w, opts)
	case FormatYAML, "yml":
		return s.ExportYAML(ctx, w, opts)
	}
	return fmt.Errorf("unknown export format %q (want json, csv, or yaml)", format)
}

// ExportJSON writes matching results as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ExportYAML writes matching results as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}

// CSVHeader is the column order written by ExportCSV.
var CSVHeader = append(append([]string{"run_id"}, types.FlatHeader...), "platform", "post_date", "flags", "text")

// ExportCSV writes matching results with CSVHeader columns.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, opts QueryOptions) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	for _, r := range records {
		row := append([]string{r.RunID}, r.Row()...)
		row = append(row, r.Platform, r.PostDate, strings.Join(r.Flags, ";"), r.Text)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) exportRecords(ctx context.Context, opts QueryOptions) ([]Record, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	records, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
