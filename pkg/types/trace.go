// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus indicates the outcome of converting one trace file.
// Directory entries that are not traces never reach a converter and carry
// no status.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// TraceSummary holds per-trace facts extracted from a GeoJSON export.
// Times are UTC ISO-8601 strings with millisecond precision.
type TraceSummary struct {
	// File is the source GeoJSON file name (no directory).
	File string `json:"file" yaml:"file"`

	// UserID identifies the tracker account that recorded the trace.
	UserID string `json:"user_id" yaml:"user_id"`

	// Activity is the tracker's activity type (e.g. "Walking").
	Activity string `json:"activity" yaml:"activity"`

	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`

	StartLon float64 `json:"start_lon" yaml:"start_lon"`
	StartLat float64 `json:"start_lat" yaml:"start_lat"`
	EndLon   float64 `json:"end_lon" yaml:"end_lon"`
	EndLat   float64 `json:"end_lat" yaml:"end_lat"`

	// UTCOffset is the recording device's offset from UTC in hours.
	UTCOffset float64 `json:"utc_offset" yaml:"utc_offset"`

	// Distance is the geodesic track length in meters.
	Distance float64 `json:"distance" yaml:"distance"`

	// Steps is the total step count, or -1 when the export has none.
	Steps int `json:"steps" yaml:"steps"`

	// ElapsedTime is the recorded duration in seconds.
	ElapsedTime int `json:"elapsed_time" yaml:"elapsed_time"`

	// Points is the number of coordinates in the trace.
	Points int `json:"points" yaml:"points"`
}
