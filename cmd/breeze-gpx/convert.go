// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/breeze-gpx/internal/config"
	"github.com/pdiddy/breeze-gpx/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every GeoJSON trace in a directory to GPX",
	Long: `Convert reads each file in the input directory whose name ends with the
configured suffix, converts it to GPX, and writes <stem>.gpx to the output
directory. Existing outputs are skipped unless --overwrite is set.

A file that fails to convert is logged and the batch continues; only a
failure to list the input directory makes the command fail.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := config.Validate(cfg.Conversion); err != nil {
		return err
	}

	fs := afero.NewOsFs()
	conv := convert.New(cfg.Conversion, fs, logger)
	result, err := convert.NewDispatcher(cfg.Conversion, fs, conv, logger).Run(cmd.Context())
	if err != nil {
		return err
	}

	reportBatch(cmd.OutOrStdout(), result)
	return nil
}

// reportBatch prints the run counts. Failed files do not change the exit
// status.
func reportBatch(w io.Writer, r convert.BatchResult) {
	fmt.Fprintf(w, "%d entries: converted %d, skipped %d, failed %d, ignored %d\n",
		r.Total(), r.Converted, r.Skipped, r.Failed, r.Ignored)
	if r.HasFailures() {
		fmt.Fprintf(w, "%d file(s) failed to convert; see the log for details\n", r.Failed)
	}
}

func init() {
	convertCmd.Flags().String("input-dir", "", "directory of GeoJSON traces (default data/geojson)")
	convertCmd.Flags().String("output-dir", "", "directory for GPX output (default data/gpx)")
	convertCmd.Flags().String("suffix", "", "input suffix: .geojson or .json (default .geojson)")
	convertCmd.Flags().Bool("overwrite", false, "replace existing GPX files")
	convertCmd.Flags().String("times-path", "", "properties path of coordinate times (default coordinateProperties.times)")

	for key, flag := range map[string]string{
		"conversion.input_dir":  "input-dir",
		"conversion.output_dir": "output-dir",
		"conversion.suffix":     "suffix",
		"conversion.overwrite":  "overwrite",
		"conversion.times_path": "times-path",
	} {
		_ = viper.BindPFlag(key, convertCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(convertCmd)
}
