// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog summarizes GeoJSON trace exports into a SQLite catalog
// for later filtering and export. Input traces are read through an
// afero.Fs; the database and export files live in the catalog directory on
// local disk.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pdiddy/breeze-gpx/internal/coordtime"
	"github.com/pdiddy/breeze-gpx/pkg/types"
)

const (
	dbFile            = "traces.db"
	defaultMaxResults = 20
)

// Store manages the trace catalog database.
type Store struct {
	db         *sql.DB
	fs         afero.Fs
	cfg        types.CatalogConfig
	extractor  *coordtime.Extractor
	log        zerolog.Logger
	maxResults int
}

// NewStore opens or creates catalogDir/traces.db and its schema.
func NewStore(cfg types.CatalogConfig, fs afero.Fs, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CatalogDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if cfg.Suffix == "" {
		cfg.Suffix = types.SuffixGeoJSON
	}

	s := &Store{
		db:         db,
		fs:         fs,
		cfg:        cfg,
		extractor:  coordtime.NewExtractor(cfg.TimesPath),
		log:        logger,
		maxResults: maxResults,
	}

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

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			file TEXT PRIMARY KEY,
			user_id TEXT,
			activity TEXT,
			start_time TEXT,
			end_time TEXT,
			start_lon REAL,
			start_lat REAL,
			end_lon REAL,
			end_lat REAL,
			utc_offset REAL,
			distance REAL,
			steps INTEGER,
			elapsed_time INTEGER,
			points INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_traces_user_id ON traces(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_traces_activity ON traces(activity)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IndexSummary holds counts from a catalog indexing run.
type IndexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int

	// Points counts traces dropped for having fewer than two coordinates.
	Points int

	// Outside counts traces dropped by the centroid distance filter.
	Outside int
}

// Total returns the number of trace files processed.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed + s.Points + s.Outside
}

// Index summarizes every trace in the input directory. Files whose
// modification time matches the last indexed run are skipped; changed
// files replace their previous row.
func (s *Store) Index(ctx context.Context) (IndexSummary, error) {
	entries, err := afero.ReadDir(s.fs, s.cfg.InputDir)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("reading input directory %s: %w", s.cfg.InputDir, err)
	}

	var summary IndexSummary
	for i, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.cfg.Suffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := entry.Name()
		modTime := entry.ModTime().UTC().Format(time.RFC3339Nano)
		log := s.log.With().Int("index", i).Str("file", name).Logger()

		var storedModTime string
		err := s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE file = ?`, name,
		).Scan(&storedModTime)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return summary, fmt.Errorf("reading indexing status: %w", err)
		}
		if err == nil && storedModTime == modTime {
			log.Debug().Msg("skipped (unchanged)")
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := afero.ReadFile(s.fs, filepath.Join(s.cfg.InputDir, name))
		if err != nil {
			log.Error().Err(err).Msg("read failed")
			summary.Failed++
			if err := s.forgetStale(ctx, name, isUpdate); err != nil {
				return summary, err
			}
			continue
		}

		trace, line, err := Summarize(name, data, s.extractor)
		if err != nil {
			log.Error().Err(err).Msg("summary failed")
			summary.Failed++
			if err := s.forgetStale(ctx, name, isUpdate); err != nil {
				return summary, err
			}
			continue
		}

		if trace.Points < 2 {
			log.Info().Msg("dropped (single point)")
			summary.Points++
			if err := s.forget(ctx, name); err != nil {
				return summary, err
			}
			continue
		}
		if s.cfg.MaxDistance > 0 {
			center := orb.Point{s.cfg.Centroid.Lon, s.cfg.Centroid.Lat}
			if !Within(line, center, s.cfg.MaxDistance) {
				log.Info().Msg("dropped (outside filter area)")
				summary.Outside++
				if err := s.forget(ctx, name); err != nil {
					return summary, err
				}
				continue
			}
		}

		if err := s.upsert(ctx, trace, modTime); err != nil {
			log.Error().Err(err).Msg("store failed")
			summary.Failed++
			continue
		}

		if isUpdate {
			log.Info().Msg("updated")
			summary.Updated++
		} else {
			log.Info().Msg("indexed")
			summary.Indexed++
		}
	}

	s.log.Info().
		Int("indexed", summary.Indexed).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("points", summary.Points).
		Int("outside", summary.Outside).
		Msg("catalog indexed")
	return summary, nil
}

func (s *Store) upsert(ctx context.Context, t types.TraceSummary, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO traces (file, user_id, activity, start_time, end_time,
			start_lon, start_lat, end_lon, end_lat, utc_offset, distance, steps, elapsed_time, points)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file) DO UPDATE SET
			user_id=excluded.user_id, activity=excluded.activity,
			start_time=excluded.start_time, end_time=excluded.end_time,
			start_lon=excluded.start_lon, start_lat=excluded.start_lat,
			end_lon=excluded.end_lon, end_lat=excluded.end_lat,
			utc_offset=excluded.utc_offset, distance=excluded.distance,
			steps=excluded.steps, elapsed_time=excluded.elapsed_time, points=excluded.points`,
		t.File, t.UserID, t.Activity, t.StartTime, t.EndTime,
		t.StartLon, t.StartLat, t.EndLon, t.EndLat,
		t.UTCOffset, t.Distance, t.Steps, t.ElapsedTime, t.Points,
	)
	if err != nil {
		return fmt.Errorf("upserting trace: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		t.File, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}
	return tx.Commit()
}

// forget removes a trace that no longer passes the filters.
func (s *Store) forget(ctx context.Context, file string) error {
	for _, stmt := range []string{
		`DELETE FROM traces WHERE file = ?`,
		`DELETE FROM indexing_status WHERE file = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt, file); err != nil {
			return fmt.Errorf("removing %s: %w", file, err)
		}
	}
	return nil
}

// forgetStale drops the previous summary of a catalogued file that changed
// and can no longer be summarized.
func (s *Store) forgetStale(ctx context.Context, file string, catalogued bool) error {
	if !catalogued {
		return nil
	}
	return s.forget(ctx, file)
}

// QueryOptions filters List and export results. Zero values match all.
type QueryOptions struct {
	UserID     string
	Activity   string
	MinElapsed time.Duration
	MaxResults int
}

// List returns catalogued traces ordered by file name.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.TraceSummary, error) {
	var (
		where []string
		args  []interface{}
	)
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.Activity != "" {
		where = append(where, "activity = ?")
		args = append(args, opts.Activity)
	}
	if opts.MinElapsed > 0 {
		where = append(where, "elapsed_time >= ?")
		args = append(args, int(opts.MinElapsed/time.Second))
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	q := `SELECT file, user_id, activity, start_time, end_time, start_lon, start_lat,
		end_lon, end_lat, utc_offset, distance, steps, elapsed_time, points FROM traces`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY file LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying traces: %w", err)
	}
	defer rows.Close()

	var out []types.TraceSummary
	for rows.Next() {
		var t types.TraceSummary
		if err := rows.Scan(&t.File, &t.UserID, &t.Activity, &t.StartTime, &t.EndTime,
			&t.StartLon, &t.StartLat, &t.EndLon, &t.EndLat,
			&t.UTCOffset, &t.Distance, &t.Steps, &t.ElapsedTime, &t.Points); err != nil {
			return nil, fmt.Errorf("scanning trace: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
