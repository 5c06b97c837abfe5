// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Recognized source suffixes for input traces.
const (
	SuffixGeoJSON = ".geojson"
	SuffixJSON    = ".json"
)

// DefaultTimesPath is the properties path holding per-coordinate times in
// the fitness tracker export.
const DefaultTimesPath = "coordinateProperties.times"

// ConversionConfig holds settings for the GeoJSON to GPX conversion stage.
// All values are fixed before a run starts.
type ConversionConfig struct {
	// InputDir is the directory scanned for GeoJSON traces.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir" validate:"required"`

	// OutputDir is the directory that receives GPX files.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir" validate:"required"`

	// Suffix selects which directory entries are converted (".geojson" or ".json").
	Suffix string `json:"suffix" yaml:"suffix" mapstructure:"suffix" validate:"required,oneof=.geojson .json"`

	// Overwrite replaces existing GPX output instead of skipping it.
	Overwrite bool `json:"overwrite" yaml:"overwrite" mapstructure:"overwrite"`

	// TimesPath is the dot-separated properties path to the coordinate times
	// (default "coordinateProperties.times").
	TimesPath string `json:"times_path" yaml:"times_path" mapstructure:"times_path"`

	// Creator is written to the GPX creator attribute.
	Creator string `json:"creator" yaml:"creator" mapstructure:"creator"`
}

// Centroid is a geographic point used to filter traces by proximity.
type Centroid struct {
	Lon float64 `json:"lon" yaml:"lon" mapstructure:"lon" validate:"gte=-180,lte=180"`
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat" validate:"gte=-90,lte=90"`
}

// CatalogConfig holds settings for the trace catalog.
type CatalogConfig struct {
	// InputDir is the directory of GeoJSON traces to summarize.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir" validate:"required"`

	// CatalogDir holds traces.db and export files.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir" mapstructure:"catalog_dir" validate:"required"`

	// Suffix selects which directory entries are indexed.
	Suffix string `json:"suffix" yaml:"suffix" mapstructure:"suffix" validate:"required,oneof=.geojson .json"`

	// TimesPath is the dot-separated properties path to the coordinate times.
	TimesPath string `json:"times_path" yaml:"times_path" mapstructure:"times_path"`

	// Centroid is the reference point for the distance filter. Only used
	// when MaxDistance is positive.
	Centroid Centroid `json:"centroid" yaml:"centroid" mapstructure:"centroid"`

	// MaxDistance excludes traces with any point farther than this many
	// meters from Centroid. Zero disables the filter.
	MaxDistance float64 `json:"max_distance" yaml:"max_distance" mapstructure:"max_distance" validate:"gte=0"`

	// MaxResults is the default maximum number of listed traces (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=0"`
}

// SelectionConfig holds settings for copying converted traces.
type SelectionConfig struct {
	// SourceDir holds the converted GPX files.
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir" validate:"required"`

	// DestDir receives the copied files.
	DestDir string `json:"dest_dir" yaml:"dest_dir" mapstructure:"dest_dir" validate:"required"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Selection  SelectionConfig  `json:"selection" yaml:"selection" mapstructure:"selection"`
}
