// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/breeze-gpx/internal/config"
	"github.com/pdiddy/breeze-gpx/internal/selection"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Copy listed or randomly sampled GPX traces to a working directory",
	Long: `Select copies converted GPX files from the source directory into the
destination directory. With --list, the files named in a CSV list (such as
a catalog export) are copied; with --random N, N files are chosen at
random. Existing destination files are never replaced.`,
	RunE: runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	listPath, _ := cmd.Flags().GetString("list")
	n, _ := cmd.Flags().GetInt("random")
	seed, _ := cmd.Flags().GetUint64("seed")

	if (listPath == "") == (n <= 0) {
		return fmt.Errorf("exactly one of --list or --random is required")
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := config.Validate(cfg.Selection); err != nil {
		return err
	}

	copier := selection.NewCopier(cfg.Selection, afero.NewOsFs(), logger)

	var result selection.CopyResult
	if listPath != "" {
		result, err = copier.CopyList(listPath)
	} else {
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		result, err = copier.Sample(n, rand.New(rand.NewPCG(seed, seed)))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "copied %d, already present %d, missing %d, failed %d\n",
		result.Copied, result.Skipped, result.Missing, result.Failed)
	return nil
}

func init() {
	selectCmd.Flags().String("source-dir", "", "directory of converted GPX files (default data/gpx)")
	selectCmd.Flags().String("dest-dir", "", "destination directory (default data/selected)")
	selectCmd.Flags().String("list", "", "CSV list with a file or filename column")
	selectCmd.Flags().Int("random", 0, "number of files to sample at random")
	selectCmd.Flags().Uint64("seed", 0, "random seed (0 = time based)")

	_ = viper.BindPFlag("selection.source_dir", selectCmd.Flags().Lookup("source-dir"))
	_ = viper.BindPFlag("selection.dest_dir", selectCmd.Flags().Lookup("dest-dir"))

	rootCmd.AddCommand(selectCmd)
}
