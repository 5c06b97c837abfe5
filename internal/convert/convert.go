// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns GeoJSON trace exports into GPX files.
//
// A Converter handles exactly one input file; a Dispatcher walks the input
// directory and hands every matching entry to the Converter in listing
// order. The presence of the output file marks a trace as converted.
package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pdiddy/breeze-gpx/internal/coordtime"
	"github.com/pdiddy/breeze-gpx/internal/gpx"
	"github.com/pdiddy/breeze-gpx/pkg/types"
)

const outputExt = "gpx"

var (
	// ErrIO marks unreadable directories and unreadable or unwritable files.
	ErrIO = errors.New("i/o error")

	// ErrParse marks input that is not valid GeoJSON.
	ErrParse = errors.New("parse error")

	// ErrMalformedInput marks features whose time series is missing,
	// unparsable, or misaligned with the geometry.
	ErrMalformedInput = coordtime.ErrMalformedInput

	// ErrNoExtension is returned by OutputName for names without a suffix.
	ErrNoExtension = errors.New("file name has no extension")
)

// OutputName replaces the final extension of name with "gpx". The split
// happens at the last '.', so "run.2016.geojson" becomes "run.2016.gpx".
func OutputName(name string) (string, error) {
	base := filepath.Base(name)
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return "", fmt.Errorf("%w: %q", ErrNoExtension, name)
	}
	return base[:dot+1] + outputExt, nil
}

// Converter converts single GeoJSON files to GPX under a fixed
// configuration.
type Converter struct {
	cfg        types.ConversionConfig
	fs         afero.Fs
	log        zerolog.Logger
	coordTimes gpx.CoordTimesFunc
}

// New returns a Converter reading from cfg.InputDir and writing to
// cfg.OutputDir on fs.
func New(cfg types.ConversionConfig, fs afero.Fs, logger zerolog.Logger) *Converter {
	return &Converter{
		cfg:        cfg,
		fs:         fs,
		log:        logger,
		coordTimes: coordtime.NewExtractor(cfg.TimesPath).CoordTimes,
	}
}

// ConvertFile converts the input file name (relative to the input
// directory). If the GPX output already exists and overwrite is off, the
// input is never opened and ConversionSkipped is returned. On error no
// output file is created or modified.
func (c *Converter) ConvertFile(index int, name string) (types.ConversionStatus, error) {
	outName, err := OutputName(name)
	if err != nil {
		return types.ConversionFailed, err
	}
	inPath := filepath.Join(c.cfg.InputDir, name)
	outPath := filepath.Join(c.cfg.OutputDir, outName)

	if !c.cfg.Overwrite {
		exists, err := afero.Exists(c.fs, outPath)
		if err != nil {
			return types.ConversionFailed, fmt.Errorf("%w: checking %s: %v", ErrIO, outPath, err)
		}
		if exists {
			c.log.Info().Int("index", index).Str("file", name).Msg("skipped (already exists)")
			return types.ConversionSkipped, nil
		}
	}

	data, err := afero.ReadFile(c.fs, inPath)
	if err != nil {
		return types.ConversionFailed, fmt.Errorf("%w: reading %s: %v", ErrIO, inPath, err)
	}
	c.log.Info().Int("index", index).Str("file", name).Msg("read")

	fc, err := parseCollection(data)
	if err != nil {
		return types.ConversionFailed, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}

	out, err := gpx.Serialize(fc, gpx.Options{
		Creator:    c.cfg.Creator,
		Name:       strings.TrimSuffix(outName, "."+outputExt),
		CoordTimes: c.coordTimes,
	})
	if err != nil {
		if !errors.Is(err, ErrMalformedInput) {
			err = fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		return types.ConversionFailed, fmt.Errorf("converting %s: %w", name, err)
	}

	if err := writeAtomic(c.fs, outPath, out); err != nil {
		return types.ConversionFailed, fmt.Errorf("%w: %v", ErrIO, err)
	}
	c.log.Info().Int("index", index).Str("file", name).Str("output", outPath).Msg("created")
	return types.ConversionDone, nil
}

// parseCollection decodes a FeatureCollection, or wraps a lone Feature.
func parseCollection(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	switch fc.Type {
	case "FeatureCollection":
		return fc, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		return geojson.NewFeatureCollection().AddFeature(f), nil
	default:
		return nil, fmt.Errorf("unexpected GeoJSON type %q", fc.Type)
	}
}

// writeAtomic writes data to a temp file beside path, then renames it into
// place.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".breeze-gpx-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
