package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/tripprint/pkg/tripprint"
	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
)

var (
	calibrateLimit     int
	calibrateReportDir string
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate [vehicle-pattern]...",
	Short: "Pick decision thresholds from the stored trips",
	Long: `Score the first trips of the log against each vehicle's profile, label
them by whether that vehicle made them, and keep the threshold that
maximizes Youden's J on the ROC curve. Arguments are glob patterns over
vehicle ids; without arguments every vehicle is calibrated. A vehicle whose batch lacks either class keeps its threshold.`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().IntVar(&calibrateLimit, "limit", -1, "Trips per labeled batch (default: from configuration, 0 for all)")
	calibrateCmd.Flags().StringVar(&calibrateReportDir, "report-dir", "", "Write a JSON and an HTML report per vehicle into this directory")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, cfg, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	limit := calibrateLimit
	if limit < 0 {
		limit = cfg.Calibration.SampleLimit
	}
	batch, err := eng.LabeledBatch(ctx, limit)
	if err != nil {
		return err
	}

	entities, err := selectEntities(eng.Profiles().Entities(), args)
	if err != nil {
		return err
	}

	if calibrateReportDir != "" {
		if err := os.MkdirAll(calibrateReportDir, 0755); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, id := range entities {
		run, err := eng.Calibrate(ctx, id, batch)
		switch {
		case errors.Is(err, internalerr.ErrDegenerateLabelSet):
			fmt.Fprintf(out, "%s\tskipped: %v\n", id, err)
			continue
		case err != nil:
			return err
		}

		r := run.Result
		fmt.Fprintf(out, "%s\tthreshold %.6g\tJ %.4f\tAUC %.4f\trecall %.4f\tprecision %.4f\tspecificity %.4f\n",
			id, r.Threshold, r.J, r.AUC, r.Recall, r.Precision, r.Specificity)

		if calibrateReportDir != "" {
			if err := writeReports(eng, cfg.Report.Title, id, &run); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReports(eng *tripprint.Engine, title, entityID string, run *tripprint.Calibration) error {
	rep, err := eng.Report(entityID, title, run)
	if err != nil {
		return err
	}

	base := filepath.Join(calibrateReportDir, reportName(entityID))
	if err := writeFile(base+".json", rep.WriteJSON); err != nil {
		return err
	}
	return writeFile(base+".html", rep.WriteHTML)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// reportName keeps vehicle ids from escaping the report directory.
func reportName(entityID string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '_'
		}
		return r
	}, entityID)
}
