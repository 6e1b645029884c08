package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/tripprint/pkg/tripprint/ingest"
)

var (
	buildData   string
	buildFormat string
	buildWatch  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Learn profiles from a trip log",
	Long: `Read a trip log, symbolize every trip and grow the profile of the vehicle
that made it. Trips are stored so later commands start from the same
profiles. Trips whose trip_id is already stored are skipped.

Rows without a trip_id get an id derived from their content, so reading
the same log again learns nothing new.

With --watch the log is read again whenever it changes, until interrupted.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildData, "data", "d", "", "Trip log to read (required)")
	buildCmd.Flags().StringVar(&buildFormat, "format", "", "Input format: csv or jsonl (default: from extension)")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Keep learning as the trip log grows")
	_ = buildCmd.MarkFlagRequired("data")
}

func runBuild(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	load := func(ctx context.Context) error {
		records, err := loadRecords(buildData, buildFormat)
		if err != nil {
			return err
		}
		stats, err := eng.Ingest(ctx, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "learned %d trips for %d vehicles (%d duplicate, %d invalid)\n",
			stats.Learned, stats.Entities, stats.Duplicates, stats.Invalid)
		return nil
	}

	if err := load(cmd.Context()); err != nil {
		return err
	}
	if !buildWatch {
		return nil
	}
	return ingest.WatchFile(cmd.Context(), buildData, ingest.DefaultDebounce, load)
}

func loadRecords(path, format string) ([]ingest.Record, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "jsonl", "ndjson":
		return ingest.LoadFromJSONL(path)
	case "csv", "":
		return ingest.LoadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}
