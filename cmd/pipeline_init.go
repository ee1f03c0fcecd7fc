package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/analytics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/classifier"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/config"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/enrich"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/fetcher"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/ingest"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/scorer"
	anthropicpkg "github.com/anthonyruan/Customer-Feedback-Aggregation-System/pkg/anthropic"
	openaipkg "github.com/anthonyruan/Customer-Feedback-Aggregation-System/pkg/openai"
)

// newClassifier builds the classifier for the configured provider. Without a
// credential it returns an unconfigured classifier, which selects offline mode.
func newClassifier(c *config.Config) *classifier.Classifier {
	key := c.ProviderKey()
	if key == "" {
		zap.L().Warn("no text-generation credential configured, using offline mode",
			zap.String("provider", c.Classifier.Provider),
		)
		return classifier.New(nil)
	}

	var gen classifier.Generator
	switch strings.ToLower(c.Classifier.Provider) {
	case config.ProviderAnthropic:
		gen = classifier.NewAnthropicGenerator(anthropicpkg.NewClient(key, c.Anthropic.BaseURL), c.Anthropic.Model)
	default:
		gen = classifier.NewOpenAIGenerator(openaipkg.NewClient(key, c.OpenAI.BaseURL), c.OpenAI.Model)
	}

	cc := c.Classifier
	breakerCfg := resilience.FromCircuitConfig(cc.CircuitFailureThreshold, cc.CircuitResetSecs)
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("classifier circuit state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return classifier.New(gen,
		classifier.WithRetry(resilience.FromRetryConfig(cc.MaxAttempts, cc.InitialBackoffMs, cc.MaxBackoffMs, cc.BackoffMultiplier)),
		classifier.WithCircuitBreaker(resilience.NewCircuitBreaker(breakerCfg)),
	)
}

// fetchOptions maps the fetch config section onto fetcher options.
func fetchOptions(c *config.Config) fetcher.Options {
	timeout := time.Duration(c.Fetch.TimeoutSecs) * time.Second
	return fetcher.Options{
		HTTP: fetcher.HTTPOptions{
			UserAgent:         c.Fetch.UserAgent,
			Timeout:           timeout,
			MaxRetries:        c.Fetch.MaxRetries,
			RequestsPerSecond: c.Fetch.RequestsPerSecond,
		},
		FTP: fetcher.FTPOptions{Timeout: timeout},
	}
}

// enrichOptions maps the pipeline config section onto enrichment options.
func enrichOptions(c *config.Config) enrich.Options {
	return enrich.Options{
		Offline:           c.Pipeline.Offline,
		Concurrency:       c.Pipeline.Concurrency,
		RequestsPerSecond: c.Pipeline.RequestsPerSecond,
	}
}

// loadTable reads input (or the built-in sample dataset) and returns the
// normalized, scored working table.
func loadTable(ctx context.Context, c *config.Config, input string, sample bool) (*ingest.Result, []model.Scored, error) {
	var res *ingest.Result
	switch {
	case sample:
		rows := model.SampleFeedback()
		res = &ingest.Result{Records: rows, InputRows: len(rows)}
	case input != "":
		var err error
		res, err = ingest.Load(ctx, input, ingest.LoadOptions{
			Normalize: ingest.Options{MaxRows: c.Ingest.MaxRows},
			Fetch:     fetchOptions(c),
		})
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, eris.New("either --input or --sample is required")
	}
	return res, scorer.ScoreTable(res.Records), nil
}

// addInputFlags registers the input selection flags shared by commands.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("input", "", "feedback source: local path, file://, http(s):// or ftp:// URL (.csv or .xlsx)")
	f.Bool("sample", false, "use the built-in 10-row sample dataset")
}

// addFilterFlags registers the repeatable table filter flags.
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArray("category", nil, "keep rows with this AI category (repeatable)")
	f.StringArray("product", nil, "keep rows for this product (repeatable)")
	f.StringArray("severity", nil, "keep rows with this severity (repeatable)")
	f.StringArray("region", nil, "keep rows from this region (repeatable)")
}

func filtersFromFlags(cmd *cobra.Command) analytics.Filters {
	f := cmd.Flags()
	categories, _ := f.GetStringArray("category")
	products, _ := f.GetStringArray("product")
	severities, _ := f.GetStringArray("severity")
	regions, _ := f.GetStringArray("region")
	return analytics.Filters{
		Categories: categories,
		Products:   products,
		Severities: severities,
		Regions:    regions,
	}
}
