// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pdiddy/breeze-gpx/pkg/types"
)

// FileConverter converts one named file from the input directory.
// *Converter is the production implementation.
type FileConverter interface {
	ConvertFile(index int, name string) (types.ConversionStatus, error)
}

// BatchResult holds the outcome of a dispatch run.
type BatchResult struct {
	Converted int
	Skipped   int
	Ignored   int
	Failed    int
}

// Total returns the number of directory entries seen.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Ignored + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Dispatcher lists the input directory and converts matching entries one
// at a time.
type Dispatcher struct {
	fs     afero.Fs
	dir    string
	suffix string
	conv   FileConverter
	log    zerolog.Logger
}

// NewDispatcher returns a Dispatcher over cfg.InputDir that selects entries
// ending in cfg.Suffix.
func NewDispatcher(cfg types.ConversionConfig, fs afero.Fs, conv FileConverter, logger zerolog.Logger) *Dispatcher {
	suffix := cfg.Suffix
	if suffix == "" {
		suffix = types.SuffixGeoJSON
	}
	return &Dispatcher{
		fs:     fs,
		dir:    cfg.InputDir,
		suffix: suffix,
		conv:   conv,
		log:    logger,
	}
}

// Run converts every matching entry in listing order. A failure to list the
// directory is returned as an ErrIO error; per-file failures are logged and
// counted but never stop the run. If ctx is cancelled between files, Run
// returns the partial result and ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	entries, err := afero.ReadDir(d.fs, d.dir)
	if err != nil {
		return result, fmt.Errorf("%w: listing %s: %v", ErrIO, d.dir, err)
	}

	for i, entry := range entries {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, d.suffix) {
			d.log.Info().Int("index", i).Str("file", name).Msg("ignoring")
			result.Ignored++
			continue
		}

		status, err := d.conv.ConvertFile(i, name)
		if err != nil {
			d.log.Error().Err(err).Int("index", i).Str("file", name).Msg("conversion failed")
			result.Failed++
			continue
		}
		switch status {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionSkipped:
			result.Skipped++
		}
	}

	d.log.Info().
		Int("converted", result.Converted).
		Int("skipped", result.Skipped).
		Int("ignored", result.Ignored).
		Int("failed", result.Failed).
		Msg("finished")
	return result, nil
}
