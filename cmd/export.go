package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

var (
	exportPath        string
	exportFlaggedOnly bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the evaluation log to an .xlsx report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		results := st.GetEvaluations(cmd.Context())
		if exportFlaggedOnly {
			filtered := results[:0]
			for _, r := range results {
				if r.IsFlagged {
					filtered = append(filtered, r)
				}
			}
			results = filtered
		}

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Evaluations")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}

		header := sheet.AddRow()
		for _, h := range []string{
			"ID", "Timestamp", "Query", "Response", "Average",
			"Faithfulness", "Relevance", "Completeness", "Citation Accuracy",
			"Flagged", "Reasoning",
		} {
			header.AddCell().Value = h
		}

		for _, r := range results {
			row := sheet.AddRow()
			row.AddCell().Value = r.ID
			row.AddCell().Value = r.Timestamp.Format("2006-01-02 15:04:05")
			row.AddCell().Value = r.Query
			row.AddCell().Value = r.Response
			row.AddCell().Value = strconv.FormatFloat(r.AverageScore, 'f', 2, 64)
			row.AddCell().Value = strconv.Itoa(r.Scores.Faithfulness)
			row.AddCell().Value = strconv.Itoa(r.Scores.Relevance)
			row.AddCell().Value = strconv.Itoa(r.Scores.Completeness)
			row.AddCell().Value = strconv.Itoa(r.Scores.CitationAccuracy)
			row.AddCell().Value = strconv.FormatBool(r.IsFlagged)
			row.AddCell().Value = r.Reasoning
		}

		if err := f.Save(exportPath); err != nil {
			return eris.Wrapf(err, "export: save %s", exportPath)
		}

		zap.L().Info("export complete",
			zap.String("path", exportPath),
			zap.Int("rows", len(results)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPath, "out", "evaluations.xlsx", "output file path")
	exportCmd.Flags().BoolVar(&exportFlaggedOnly, "flagged", false, "export only flagged evaluations")
	rootCmd.AddCommand(exportCmd)
}
