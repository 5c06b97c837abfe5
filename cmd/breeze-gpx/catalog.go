// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/breeze-gpx/internal/catalog"
	"github.com/pdiddy/breeze-gpx/internal/config"
	"github.com/pdiddy/breeze-gpx/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Summarize traces into a SQLite catalog (index, list, export)",
	Long: `Catalog keeps a SQLite summary of the GeoJSON traces: user, activity,
start and end time and position, distance, steps, and elapsed time. Use
subcommands to index traces, list them, or export the catalog.`,
}

// --- index subcommand ---

var catalogIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Summarize new and changed traces into the catalog",
	Long: `Index reads every trace in the input directory and stores its summary.
Unchanged files are skipped on subsequent runs. Single-point traces and
traces outside the configured area are dropped.`,
	RunE: runCatalogIndex,
}

func runCatalogIndex(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Index(cmd.Context())
	if err != nil {
		return err
	}
	reportIndex(cmd.OutOrStdout(), summary)
	return nil
}

func reportIndex(w io.Writer, s catalog.IndexSummary) {
	fmt.Fprintf(w, "%d traces: indexed %d, updated %d, unchanged %d, dropped %d, failed %d\n",
		s.Total(), s.Indexed, s.Updated, s.Skipped, s.Points+s.Outside, s.Failed)
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued traces",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	traces, err := store.List(cmd.Context(), queryOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(cmd.OutOrStdout(), traces, jsonOutput)
}

func formatListOutput(w io.Writer, traces []types.TraceSummary, jsonOutput bool) error {
	if jsonOutput {
		if traces == nil {
			traces = []types.TraceSummary{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(traces)
	}

	if len(traces) == 0 {
		fmt.Fprintln(w, "No traces found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-12s  %-10s  %-24s  %10s  %8s\n",
		"File", "User", "Activity", "Start", "Distance", "Elapsed")
	fmt.Fprintln(w, strings.Repeat("-", 108))

	for _, t := range traces {
		file := t.File
		if len(file) > 36 {
			file = file[:33] + "..."
		}
		user := t.UserID
		if len(user) > 12 {
			user = user[:9] + "..."
		}
		fmt.Fprintf(w, "%-36s  %-12s  %-10s  %-24s  %9.0fm  %7ds\n",
			file, user, t.Activity, t.StartTime, t.Distance, t.ElapsedTime)
	}

	fmt.Fprintf(w, "\n%d traces\n", len(traces))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to CSV, YAML, or JSON",
	Long: `Export writes the catalog (or a filtered subset) to traces.csv,
traces.yaml, or traces.json in the catalog directory. The CSV file can be
passed to select --list.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd)
	ctx := cmd.Context()

	var path string
	switch format {
	case "csv", "":
		path, err = store.ExportCSV(ctx, opts)
	case "yaml":
		path, err = store.ExportYAML(ctx, opts)
	case "json":
		path, err = store.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use csv, yaml, or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openCatalog() (*catalog.Store, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg.Catalog); err != nil {
		return nil, err
	}
	return catalog.NewStore(cfg.Catalog, afero.NewOsFs(), logger)
}

func queryOptsFromFlags(cmd *cobra.Command) catalog.QueryOptions {
	user, _ := cmd.Flags().GetString("user")
	activity, _ := cmd.Flags().GetString("activity")
	minElapsed, _ := cmd.Flags().GetDuration("min-elapsed")
	limit, _ := cmd.Flags().GetInt("limit")

	return catalog.QueryOptions{
		UserID:     user,
		Activity:   activity,
		MinElapsed: minElapsed,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "filter by user ID")
	cmd.Flags().String("activity", "", "filter by activity type, e.g. Walking")
	cmd.Flags().Duration("min-elapsed", 0, "minimum elapsed time, e.g. 30m")
	cmd.Flags().Int("limit", 0, "maximum traces (0 = default for list, all for export)")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("input-dir", "", "directory of GeoJSON traces (default data/geojson)")
	catalogCmd.PersistentFlags().String("catalog-dir", "", "directory for traces.db and exports (default data/catalog)")
	_ = viper.BindPFlag("catalog.input_dir", catalogCmd.PersistentFlags().Lookup("input-dir"))
	_ = viper.BindPFlag("catalog.catalog_dir", catalogCmd.PersistentFlags().Lookup("catalog-dir"))

	addFilterFlags(catalogListCmd)
	catalogListCmd.Flags().Bool("json", false, "output traces as JSON")

	addFilterFlags(catalogExportCmd)
	catalogExportCmd.Flags().String("format", "csv", "export format: csv, yaml, or json")

	catalogCmd.AddCommand(catalogIndexCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
