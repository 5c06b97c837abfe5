// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection copies converted GPX traces into a working directory,
// either from a CSV list of source traces or as a random sample.
package selection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pdiddy/breeze-gpx/internal/convert"
	"github.com/pdiddy/breeze-gpx/pkg/types"
)

// ErrNoFileColumn is returned when a list has no "file" or "filename" column.
var ErrNoFileColumn = errors.New("list has no file column")

// CopyResult holds the outcome of a copy run.
type CopyResult struct {
	Copied  int
	Skipped int
	Missing int

	// Failed counts files whose source or destination could not be checked.
	Failed int
}

// Total returns the number of requested files.
func (r CopyResult) Total() int {
	return r.Copied + r.Skipped + r.Missing + r.Failed
}

// Copier copies GPX files from a source directory to a destination
// directory, never overwriting existing destination files.
type Copier struct {
	fs  afero.Fs
	cfg types.SelectionConfig
	log zerolog.Logger
}

// NewCopier returns a Copier for cfg.
func NewCopier(cfg types.SelectionConfig, fs afero.Fs, logger zerolog.Logger) *Copier {
	return &Copier{fs: fs, cfg: cfg, log: logger}
}

// ReadList returns the GPX names for every trace listed in a CSV file with
// a header row. The "file" (or "filename") column holds source GeoJSON
// names, which are mapped through convert.OutputName.
func ReadList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading list header: %w", err)
	}
	col := -1
	for i, h := range header {
		if h := strings.ToLower(strings.TrimSpace(h)); h == "file" || h == "filename" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoFileColumn
	}

	var names []string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading list: %w", err)
		}
		if col >= len(rec) {
			return nil, fmt.Errorf("line %d: missing file column", line)
		}
		name, err := convert.OutputName(strings.Trim(strings.TrimSpace(rec[col]), `"`))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// CopyList copies every GPX file named in the CSV list at listPath.
func (c *Copier) CopyList(listPath string) (CopyResult, error) {
	f, err := c.fs.Open(listPath)
	if err != nil {
		return CopyResult{}, fmt.Errorf("opening list %s: %w", listPath, err)
	}
	defer f.Close()

	names, err := ReadList(f)
	if err != nil {
		return CopyResult{}, err
	}
	c.log.Info().Int("files", len(names)).Str("list", listPath).Msg("read list")
	return c.Copy(names)
}

// Sample copies n GPX files chosen at random from the source directory.
// Fewer are copied when the directory holds fewer than n.
func (c *Copier) Sample(n int, rng *rand.Rand) (CopyResult, error) {
	entries, err := afero.ReadDir(c.fs, c.cfg.SourceDir)
	if err != nil {
		return CopyResult{}, fmt.Errorf("listing %s: %w", c.cfg.SourceDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".gpx") {
			names = append(names, e.Name())
		}
	}
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	if n < len(names) {
		names = names[:n]
	}
	return c.Copy(names)
}

// Copy copies the named files. Missing sources, existing destinations and
// files that cannot be checked are logged and counted; only destination
// setup and write errors abort.
func (c *Copier) Copy(names []string) (CopyResult, error) {
	var result CopyResult
	if err := c.fs.MkdirAll(c.cfg.DestDir, 0o755); err != nil {
		return result, fmt.Errorf("creating %s: %w", c.cfg.DestDir, err)
	}

	for _, name := range names {
		src := filepath.Join(c.cfg.SourceDir, name)
		dst := filepath.Join(c.cfg.DestDir, name)

		ok, err := afero.Exists(c.fs, src)
		if err != nil {
			c.log.Error().Err(err).Str("file", src).Msg("checking source failed")
			result.Failed++
			continue
		}
		if !ok {
			c.log.Warn().Str("file", src).Msg("file not found, ignoring")
			result.Missing++
			continue
		}

		ok, err = afero.Exists(c.fs, dst)
		if err != nil {
			c.log.Error().Err(err).Str("file", dst).Msg("checking destination failed")
			result.Failed++
			continue
		}
		if ok {
			c.log.Info().Str("file", dst).Msg("already exists, ignoring")
			result.Skipped++
			continue
		}

		data, err := afero.ReadFile(c.fs, src)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", src, err)
		}
		if err := afero.WriteFile(c.fs, dst, data, 0o644); err != nil {
			return result, fmt.Errorf("writing %s: %w", dst, err)
		}
		result.Copied++
	}

	c.log.Info().
		Int("copied", result.Copied).
		Int("skipped", result.Skipped).
		Int("missing", result.Missing).
		Int("failed", result.Failed).
		Msg("copy finished")
	return result, nil
}
