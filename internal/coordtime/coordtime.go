// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coordtime derives per-coordinate timestamps from GeoJSON features
// exported by fitness trackers. Each feature carries a nested array of
// seconds since the Unix epoch, one entry per coordinate; coordtime turns
// that array into UTC ISO-8601 strings with millisecond precision.
package coordtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/pdiddy/breeze-gpx/pkg/types"
)

// Layout is the ISO-8601 form written for every coordinate time. The Z is
// literal: instants are always rendered in UTC.
const Layout = "2006-01-02T15:04:05.000Z"

// ErrMalformedInput is returned when a feature lacks a usable time series.
var ErrMalformedInput = errors.New("malformed input")

// EpochMillis converts fractional seconds to whole milliseconds, rounding
// half away from zero.
func EpochMillis(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}

// FormatEpochSeconds renders fractional epoch seconds as a UTC ISO-8601
// string, e.g. 1451606400.5 -> "2016-01-01T00:00:00.500Z".
func FormatEpochSeconds(sec float64) string {
	return time.UnixMilli(EpochMillis(sec)).UTC().Format(Layout)
}

// Extractor reads the time series found at Path inside a feature's
// properties.
type Extractor struct {
	Path []string
}

// NewExtractor builds an Extractor from a dot-separated properties path.
// An empty path selects types.DefaultTimesPath.
func NewExtractor(path string) *Extractor {
	if strings.TrimSpace(path) == "" {
		path = types.DefaultTimesPath
	}
	return &Extractor{Path: strings.Split(path, ".")}
}

// Seconds returns the raw time series of f as fractional epoch seconds.
func (e *Extractor) Seconds(f *geojson.Feature) ([]float64, error) {
	if f == nil || f.Properties == nil {
		return nil, fmt.Errorf("%w: feature has no properties", ErrMalformedInput)
	}

	var node interface{} = f.Properties
	for i, key := range e.Path {
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: properties.%s is not an object",
				ErrMalformedInput, strings.Join(e.Path[:i], "."))
		}
		node, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing properties.%s",
				ErrMalformedInput, strings.Join(e.Path[:i+1], "."))
		}
	}

	values, ok := node.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: properties.%s is not an array",
			ErrMalformedInput, strings.Join(e.Path, "."))
	}

	secs := make([]float64, len(values))
	for i, v := range values {
		sec, err := toSeconds(v)
		if err != nil {
			return nil, fmt.Errorf("%w: time %d: %v", ErrMalformedInput, i, err)
		}
		secs[i] = sec
	}
	return secs, nil
}

// CoordTimes returns one formatted timestamp per entry of the feature's
// time series, in order. It matches gpx.CoordTimesFunc.
func (e *Extractor) CoordTimes(f *geojson.Feature) ([]string, error) {
	secs, err := e.Seconds(f)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(secs))
	for i, sec := range secs {
		out[i] = FormatEpochSeconds(sec)
	}
	return out, nil
}

// toSeconds accepts JSON numbers and numeric strings.
func toSeconds(v interface{}) (float64, error) {
	var sec float64
	switch t := v.(type) {
	case float64:
		sec = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		sec = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, err
		}
		sec = f
	default:
		return 0, fmt.Errorf("unexpected %T value", v)
	}
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return 0, fmt.Errorf("non-finite value %v", sec)
	}
	return sec, nil
}
