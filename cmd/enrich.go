package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/analytics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/enrich"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/export"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Score, categorise and summarise a feedback file",
	Long:  "Loads feedback, computes opportunity scores, tags each row with a strategic category and an executive summary, applies filters and writes the result.",
	RunE:  runEnrich,
}

func init() {
	f := enrichCmd.Flags()
	f.Bool("offline", false, "never call the text-generation service")
	f.Int("concurrency", 0, "concurrent service calls (default from config)")
	f.String("output", "", "output file (default: CSV on stdout)")
	f.String("format", "csv", "output format when --output is set: csv, xlsx or json")
	addInputFlags(enrichCmd)
	addFilterFlags(enrichCmd)
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := cmd.Flags()
	if offline, _ := f.GetBool("offline"); offline {
		cfg.Pipeline.Offline = true
	}
	if n, _ := f.GetInt("concurrency"); n > 0 {
		cfg.Pipeline.Concurrency = n
	}
	if err := cfg.Validate("enrich"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "enrich"))

	input, _ := f.GetString("input")
	sample, _ := f.GetBool("sample")
	_, rows, err := loadTable(ctx, cfg, input, sample)
	if err != nil {
		return err
	}

	opts := enrichOptions(cfg)
	opts.Progress = func(p enrich.Progress) {
		log.Debug("enrich progress", zap.Int("done", p.Done), zap.Int("total", p.Total))
	}

	res, err := enrich.New(newClassifier(cfg)).Enrich(ctx, rows, opts)
	if err != nil {
		return err
	}

	records := analytics.Filter(res.Records, filtersFromFlags(cmd))

	output, _ := f.GetString("output")
	format, _ := f.GetString("format")
	if output == "" {
		if err := export.WriteCSV(cmd.OutOrStdout(), records); err != nil {
			return err
		}
	} else if err := export.WriteFile(output, format, records); err != nil {
		return err
	}

	log.Info("enrichment complete",
		zap.String("run_id", res.RunID),
		zap.String("mode", string(res.Mode)),
		zap.Int("rows", len(res.Records)),
		zap.Int("written", len(records)),
		zap.Int("recovered", res.Recovered),
		zap.Duration("duration", res.Duration),
	)
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(records), output)
	}
	return nil
}
