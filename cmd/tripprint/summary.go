package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary [vehicle-pattern]...",
	Short: "Describe stored profiles",
	Long:  `Show the shape of each vehicle's profile, its threshold and its latest calibration. Arguments are glob patterns over vehicle ids; without arguments every vehicle is listed.`,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Output as JSON")
}

type summaryView struct {
	Vehicle      string         `json:"vehicle"`
	Trips        int            `json:"trips"`
	CorpusLen    int            `json:"corpus_len"`
	Leaves       int64          `json:"leaves"`
	Nodes        int            `json:"nodes"`
	RootChildren int            `json:"root_children"`
	Descendants  map[string]int `json:"descendants"`
	Alphabet     string         `json:"alphabet"`
	Threshold    float64        `json:"threshold"`
	Calibrated   bool           `json:"calibrated"`
	LastRun      *lastRun       `json:"last_calibration,omitempty"`
}

type lastRun struct {
	ID        string    `json:"id"`
	AUC       float64   `json:"auc"`
	J         float64   `json:"youden_j"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
}

func runSummary(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	entities, err := selectEntities(eng.Profiles().Entities(), args)
	if err != nil {
		return err
	}

	views := make([]summaryView, 0, len(entities))
	for _, id := range entities {
		sum, ok := eng.Profiles().Summary(id)
		if !ok {
			return fmt.Errorf("vehicle %q: %w", id, internalerr.ErrUnknownEntity)
		}
		v := summaryView{
			Vehicle:      id,
			Trips:        sum.Trips,
			CorpusLen:    sum.CorpusLen,
			Leaves:       sum.Leaves,
			Nodes:        sum.Nodes,
			RootChildren: sum.RootChildren,
			Descendants:  sum.Descendants,
			Alphabet:     sum.Alphabet,
			Threshold:    sum.Threshold,
			Calibrated:   sum.Calibrated,
		}

		runs, err := eng.History(cmd.Context(), id, 1)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			r := runs[0]
			v.LastRun = &lastRun{ID: r.ID, AUC: r.AUC, J: r.J, Samples: r.Samples, CreatedAt: r.CreatedAt}
		}
		views = append(views, v)
	}

	if summaryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tTRIPS\tLEAVES\tNODES\tALPHABET\tTHRESHOLD\tAUC")
	for _, v := range views {
		auc := "-"
		if v.LastRun != nil {
			auc = fmt.Sprintf("%.4f", v.LastRun.AUC)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%.6g\t%s\n",
			v.Vehicle, v.Trips, v.Leaves, v.Nodes, v.Alphabet, v.Threshold, auc)
	}
	return tw.Flush()
}
