package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/tripprint/pkg/tripprint"
	"github.com/cognicore/tripprint/pkg/tripprint/config"
	"github.com/cognicore/tripprint/pkg/tripprint/store/sqlite"
)

var (
	cfgPath string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tripprint",
	Short: "Behavioral fingerprints of vehicle trips",
	Long: `tripprint learns how each vehicle drives from its trip log and tells
whether a new trip looks like it was made by the same vehicle.

Examples:
  tripprint build --data trips.csv
  tripprint calibrate --report-dir reports
  tripprint score 235268 bccbndbn
  tripprint verify 235268 bccbndbn
  tripprint summary 235268`,
	SilenceUsage: true,
}

func init() {
	pflags := rootCmd.PersistentFlags()
	pflags.StringVarP(&cfgPath, "config", "c", "", "YAML configuration file")
	pflags.StringVar(&dbPath, "db", "", "Database path (overrides the configuration)")
	pflags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command until it completes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openEngine loads the configuration, opens the database and replays every
// stored trip so profiles are ready to use.
func openEngine(cmd *cobra.Command) (*tripprint.Engine, *config.Config, error) {
	ctx := cmd.Context()
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	loader := config.Loader{ConfigPath: cfgPath, DatabasePath: dbPath, Logger: logger}
	comp, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	st, err := sqlite.OpenSQLite(ctx, comp.Config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", comp.Config.Database, err)
	}

	eng := tripprint.New(tripprint.Options{
		Store:      st,
		Profiles:   comp.Profiles,
		Symbolizer: comp.Symbolizer,
		Logger:     logger,
	})
	if _, err := eng.Restore(ctx); err != nil {
		eng.Close()
		return nil, nil, fmt.Errorf("restore profiles: %w", err)
	}
	return eng, comp.Config, nil
}
