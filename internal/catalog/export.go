// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/breeze-gpx/pkg/types"
)

const exportLimit = 1000000

// CSVHeader lists the columns written by ExportCSV. The file column holds
// the source GeoJSON name and is what selection lists are keyed on.
var CSVHeader = []string{
	"user_id", "file", "activity", "start_time", "end_time",
	"start_x", "start_y", "end_x", "end_y",
	"utc_offset", "distance", "steps", "elapsed_time", "points",
}

// ExportCSV writes the catalog (or a filtered subset) to catalogDir/traces.csv
// and returns the file path.
func (s *Store) ExportCSV(ctx context.Context, opts QueryOptions) (string, error) {
	traces, err := s.exportTraces(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.CatalogDir, "traces.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, t := range traces {
		if err := w.Write(csvRecord(t)); err != nil {
			return "", fmt.Errorf("writing CSV row for %s: %w", t.File, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return path, f.Close()
}

// ExportYAML writes the catalog to catalogDir/traces.yaml.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	traces, err := s.exportTraces(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.CatalogDir, "traces.yaml")
	data, err := yaml.Marshal(traces)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the catalog to catalogDir/traces.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	traces, err := s.exportTraces(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.CatalogDir, "traces.json")
	data, err := json.MarshalIndent(traces, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportTraces(ctx context.Context, opts QueryOptions) ([]types.TraceSummary, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	traces, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if traces == nil {
		traces = []types.TraceSummary{}
	}
	return traces, nil
}

func csvRecord(t types.TraceSummary) []string {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		t.UserID, t.File, t.Activity, t.StartTime, t.EndTime,
		ff(t.StartLon), ff(t.StartLat), ff(t.EndLon), ff(t.EndLat),
		ff(t.UTCOffset), ff(t.Distance),
		strconv.Itoa(t.Steps), strconv.Itoa(t.ElapsedTime), strconv.Itoa(t.Points),
	}
}
