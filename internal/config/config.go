// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and validates pipeline settings from viper.
// Precedence is flags, then BREEZE_GPX_* environment variables, then the
// config file, then the defaults registered by SetDefaults.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/breeze-gpx/internal/gpx"
	"github.com/pdiddy/breeze-gpx/pkg/types"
)

// EnvPrefix is prepended to environment variable names, e.g.
// BREEZE_GPX_CONVERSION_OVERWRITE.
const EnvPrefix = "BREEZE_GPX"

var validate = validator.New()

// SetDefaults registers default values for every configuration key and
// enables environment lookup.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("conversion.input_dir", "data/geojson")
	v.SetDefault("conversion.output_dir", "data/gpx")
	v.SetDefault("conversion.suffix", types.SuffixGeoJSON)
	v.SetDefault("conversion.overwrite", false)
	v.SetDefault("conversion.times_path", types.DefaultTimesPath)
	v.SetDefault("conversion.creator", gpx.DefaultCreator)

	v.SetDefault("catalog.input_dir", "data/geojson")
	v.SetDefault("catalog.catalog_dir", "data/catalog")
	v.SetDefault("catalog.suffix", types.SuffixGeoJSON)
	v.SetDefault("catalog.times_path", types.DefaultTimesPath)
	v.SetDefault("catalog.centroid.lon", 0.0)
	v.SetDefault("catalog.centroid.lat", 0.0)
	v.SetDefault("catalog.max_distance", 0.0)
	v.SetDefault("catalog.max_results", 20)

	v.SetDefault("selection.source_dir", "data/gpx")
	v.SetDefault("selection.dest_dir", "data/selected")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the full pipeline configuration from v.
func Load(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks a stage configuration struct against its validate tags.
func Validate(stage interface{}) error {
	if err := validate.Struct(stage); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
