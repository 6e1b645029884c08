package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
)

var scoreCmd = &cobra.Command{
	Use:   "score <vehicle> <sequence>...",
	Short: "Score symbol sequences against a profile",
	Long:  `Print how typical each sequence is for the vehicle, next to its threshold. Scoring never changes the profile.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runScore,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <vehicle> <sequence>",
	Short: "Accept or reject a trip and learn it when accepted",
	Long: `Decide whether the sequence was driven by the vehicle: it is accepted when
its score is strictly above the vehicle's threshold. Accepted trips are
stored and learned into the profile.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	entityID := args[0]
	threshold, ok := eng.Profiles().Threshold(entityID)
	if !ok {
		return fmt.Errorf("vehicle %q: %w", entityID, internalerr.ErrUnknownEntity)
	}

	out := cmd.OutOrStdout()
	for _, seq := range args[1:] {
		score, _ := eng.Score(entityID, seq)
		verdict := "below"
		if score > threshold {
			verdict = "above"
		}
		fmt.Fprintf(out, "%s\t%.6g\t%s threshold %.6g\n", seq, score, verdict, threshold)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	v, err := eng.Verify(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	decision := "rejected"
	if v.Accepted {
		decision = "accepted"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: score %.6g, threshold %.6g\n", decision, v.Score, v.Threshold)
	return nil
}
