package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/export"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/ingest"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a feedback file and report corrections without enriching it",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().Bool("json", false, "print the report as JSON")
	addInputFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}

type validateReport struct {
	Source    string           `json:"source"`
	InputRows int              `json:"input_rows"`
	Accepted  int              `json:"accepted"`
	Warnings  []ingest.Warning `json:"warnings"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "validate"))

	input, _ := cmd.Flags().GetString("input")
	sample, _ := cmd.Flags().GetBool("sample")
	loaded, rows, err := loadTable(ctx, cfg, input, sample)
	if err != nil {
		return err
	}

	report := validateReport{
		Source:    input,
		InputRows: loaded.InputRows,
		Accepted:  len(rows),
		Warnings:  loaded.Warnings,
	}
	if sample {
		report.Source = "sample"
	}
	if report.Warnings == nil {
		report.Warnings = []ingest.Warning{}
	}

	log.Info("validation complete",
		zap.Int("input_rows", report.InputRows),
		zap.Int("accepted", report.Accepted),
		zap.Int("warnings", len(report.Warnings)),
	)

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return export.WriteJSON(out, report)
	}

	fmt.Fprintf(out, "source:    %s\n", report.Source)
	fmt.Fprintf(out, "rows read: %d\n", report.InputRows)
	fmt.Fprintf(out, "accepted:  %d\n", report.Accepted)
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning:   %s\n", w.Message)
	}
	return nil
}
