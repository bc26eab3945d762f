package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/ragscore/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate evaluation statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		stats := st.GetStats(cmd.Context())

		fmt.Printf("Evaluations:        %d\n", stats.TotalEvaluations)
		fmt.Printf("Flagged:            %d\n", stats.FlaggedCount)
		fmt.Printf("Average score:      %.2f\n", stats.AverageScore)
		fmt.Printf("  Faithfulness:     %.2f\n", stats.AvgFaithfulness)
		fmt.Printf("  Relevance:        %.2f\n", stats.AvgRelevance)
		fmt.Printf("  Completeness:     %.2f\n", stats.AvgCompleteness)
		fmt.Printf("  Citation accuracy: %.2f\n", stats.AvgCitationAccuracy)
		fmt.Printf("Health:             %s\n", model.HealthFromStats(stats))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
