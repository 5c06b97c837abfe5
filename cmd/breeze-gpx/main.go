// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the breeze-gpx CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/breeze-gpx/internal/config"
	"github.com/pdiddy/breeze-gpx/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// configErr holds a config file error from initConfig, reported before any
// command runs.
var configErr error

// logger is built from --log-level and --log-format before any command runs.
var logger = zerolog.Nop()

// rootCmd is the base command for the breeze-gpx CLI.
var rootCmd = &cobra.Command{
	Use:   "breeze-gpx",
	Short: "Convert fitness tracker GeoJSON traces to GPX",
	Long: `breeze-gpx converts a directory of GeoJSON trace exports into GPX files,
one per trace, carrying per-point timestamps from the export's coordinate
properties.

The convert command is the batch converter. The catalog command summarizes
traces into a SQLite catalog for filtering, and select copies a filtered
list or a random sample of converted traces into a working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		l, err := logging.New(os.Stderr, viper.GetString("log.level"), viper.GetString("log.format"))
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("config", f).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./breeze-gpx.yaml or ~/.config/breeze-gpx/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", logging.FormatConsole, "log format: console or json")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configErr = readConfig(viper.GetViper(), cfgFile)
}

// readConfig registers defaults and reads the config file into v. An
// explicit cfgFile must exist and parse. Without one, the search path is
// tried and a missing file leaves the defaults in place.
func readConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("breeze-gpx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "breeze-gpx"))
		}
	}

	config.SetDefaults(v)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
