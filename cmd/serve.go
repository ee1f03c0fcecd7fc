package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/dashboard"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/enrich"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filterable feedback dashboard API",
	Long:  "Loads the feedback table, enriches it in the background and serves the published snapshot over HTTP. POST /api/reload re-runs enrichment and POST /api/reset withdraws the snapshot.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().Bool("offline", false, "never call the text-generation service")
	addInputFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		cfg.Pipeline.Offline = true
	}
	if err := cfg.Validate("serve"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "serve"))

	input, _ := cmd.Flags().GetString("input")
	sample, _ := cmd.Flags().GetBool("sample")
	if input == "" {
		sample = true
	}
	loaded, rows, err := loadTable(ctx, cfg, input, sample)
	if err != nil {
		return err
	}

	srvState := dashboard.New(enrich.New(newClassifier(cfg)), rows, dashboard.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		Enrich:      enrichOptions(cfg),
		Warnings:    loaded.Warnings,
	})
	defer srvState.Close()
	srvState.Reload()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srvState.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server",
		zap.Int("port", cfg.Server.Port),
		zap.Int("rows", len(rows)),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}
