package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/export"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write the built-in sample dataset as an input CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		output, _ := cmd.Flags().GetString("output")
		rows := model.SampleFeedback()
		if output == "" {
			return export.WriteFeedbackCSV(cmd.OutOrStdout(), rows)
		}

		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "sample: create output")
		}
		if err := export.WriteFeedbackCSV(f, rows); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "sample: close output")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), output)
		return nil
	},
}

func init() {
	sampleCmd.Flags().String("output", "", "output file (default: stdout)")
	rootCmd.AddCommand(sampleCmd)
}
