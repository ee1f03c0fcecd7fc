package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/config"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/metrics"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Customer feedback aggregation and prioritisation",
	Long:  "Ingests customer feedback, scores each item by opportunity, tags it with a strategic category and an executive summary, and serves a filterable table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		metrics.Register()

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
