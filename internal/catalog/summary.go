// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	geojson "github.com/paulmach/go.geojson"

	"github.com/pdiddy/breeze-gpx/internal/coordtime"
	"github.com/pdiddy/breeze-gpx/pkg/types"
)

// Summarize extracts a TraceSummary from the first feature of a GeoJSON
// trace export. The feature must be a LineString or MultiLineString whose
// time series has one entry per coordinate.
func Summarize(file string, data []byte, ex *coordtime.Extractor) (types.TraceSummary, orb.LineString, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return types.TraceSummary{}, nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	if len(fc.Features) == 0 || fc.Features[0] == nil {
		return types.TraceSummary{}, nil, fmt.Errorf("%w: %s has no features", coordtime.ErrMalformedInput, file)
	}
	f := fc.Features[0]

	line, err := trackLine(f)
	if err != nil {
		return types.TraceSummary{}, nil, fmt.Errorf("%s: %w", file, err)
	}

	secs, err := ex.Seconds(f)
	if err != nil {
		return types.TraceSummary{}, nil, fmt.Errorf("%s: %w", file, err)
	}
	if len(secs) != len(line) {
		return types.TraceSummary{}, nil, fmt.Errorf("%w: %s has %d coordinates and %d times",
			coordtime.ErrMalformedInput, file, len(line), len(secs))
	}

	s := types.TraceSummary{
		File:        file,
		UserID:      propString(f, "userId"),
		Activity:    propString(f, "activityType"),
		StartLon:    line[0].Lon(),
		StartLat:    line[0].Lat(),
		EndLon:      line[len(line)-1].Lon(),
		EndLat:      line[len(line)-1].Lat(),
		UTCOffset:   propNumber(f, "utcOffset", 0) / 3600,
		Distance:    geo.LengthHaversine(line),
		Steps:       int(propNumber(f, "totalSteps", -1)),
		ElapsedTime: int(propNumber(f, "elapsedTime", 0)),
		Points:      len(line),
	}
	if len(secs) > 0 {
		s.StartTime = coordtime.FormatEpochSeconds(secs[0])
		s.EndTime = coordtime.FormatEpochSeconds(secs[len(secs)-1])
	}
	return s, line, nil
}

// Within reports whether every point of line lies within maxDistance
// meters of center.
func Within(line orb.LineString, center orb.Point, maxDistance float64) bool {
	for _, p := range line {
		if geo.DistanceHaversine(center, p) > maxDistance {
			return false
		}
	}
	return true
}

func trackLine(f *geojson.Feature) (orb.LineString, error) {
	if f.Geometry == nil {
		return nil, fmt.Errorf("%w: feature has no geometry", coordtime.ErrMalformedInput)
	}

	var coords [][]float64
	switch f.Geometry.Type {
	case geojson.GeometryLineString:
		coords = f.Geometry.LineString
	case geojson.GeometryMultiLineString:
		for _, l := range f.Geometry.MultiLineString {
			coords = append(coords, l...)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %s", coordtime.ErrMalformedInput, f.Geometry.Type)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: empty geometry", coordtime.ErrMalformedInput)
	}

	line := make(orb.LineString, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("%w: coordinate %d has %d values", coordtime.ErrMalformedInput, i, len(c))
		}
		line[i] = orb.Point{c[0], c[1]}
	}
	return line, nil
}

func propString(f *geojson.Feature, key string) string {
	switch v := f.Properties[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// propNumber reads a numeric property that the export may encode as a
// number or a numeric string.
func propNumber(f *geojson.Feature, key string, fallback float64) float64 {
	switch v := f.Properties[key].(type) {
	case float64:
		return v
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) {
			return fallback
		}
		return n
	default:
		return fallback
	}
}
