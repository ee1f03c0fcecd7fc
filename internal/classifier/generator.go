package classifier

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/metrics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/pkg/anthropic"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/pkg/openai"
)

// Task names a classifier operation.
type Task string

const (
	TaskClassify  Task = "classify"
	TaskSummarize Task = "summarize"
)

// Prompt is a single text-generation request.
type Prompt struct {
	Task        Task
	System      string
	User        string
	MaxTokens   int64
	Temperature *float64
}

// Generator performs exactly one text-generation attempt. Retries and
// fallbacks are layered on top by Classifier.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// usage is the token accounting of one generation call.
type usage struct {
	input, output, cacheRead, cacheWrite int64
	costUSD                              float64
}

func recordUsage(provider, model string, task Task, u usage) {
	tokens := metrics.GenerationTokens
	tokens.WithLabelValues(provider, "input").Add(float64(u.input))
	tokens.WithLabelValues(provider, "output").Add(float64(u.output))
	tokens.WithLabelValues(provider, "cache_read").Add(float64(u.cacheRead))
	tokens.WithLabelValues(provider, "cache_write").Add(float64(u.cacheWrite))
	if u.costUSD > 0 {
		metrics.GenerationCostUSD.WithLabelValues(provider).Add(u.costUSD)
	}

	zap.L().Debug("generation usage",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.String("task", string(task)),
		zap.Int64("input_tokens", u.input),
		zap.Int64("output_tokens", u.output),
		zap.Int64("cache_read_tokens", u.cacheRead),
		zap.Int64("cache_write_tokens", u.cacheWrite),
		zap.Float64("estimated_cost_usd", u.costUSD),
	)
}

// AnthropicGenerator adapts an anthropic.Client to Generator.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator wraps client. An empty model uses anthropic.DefaultModel.
func NewAnthropicGenerator(client anthropic.Client, model string) *AnthropicGenerator {
	if model == "" {
		model = anthropic.DefaultModel
	}
	return &AnthropicGenerator{client: client, model: model}
}

// Name identifies the backing service in logs.
func (g *AnthropicGenerator) Name() string { return "anthropic" }

func (g *AnthropicGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.client.CreateCompletion(ctx, anthropic.CompletionRequest{
		Model:       g.model,
		MaxTokens:   p.MaxTokens,
		System:      p.System,
		CacheSystem: anthropic.Cacheable(g.model, p.System),
		User:        p.User,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", resilience.FromHTTPStatus(eris.Wrapf(err, "classifier: %s", p.Task), anthropic.StatusCode(err))
	}
	u := resp.Usage
	recordUsage(g.Name(), g.model, p.Task, usage{
		input:      u.InputTokens,
		output:     u.OutputTokens,
		cacheRead:  u.CacheReadTokens,
		cacheWrite: u.CacheWriteTokens,
		costUSD:    u.EstimateCost(g.model),
	})
	return resp.Text, nil
}

// OpenAIGenerator adapts an openai.Client to Generator.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator wraps client. An empty model uses openai.DefaultModel.
func NewOpenAIGenerator(client openai.Client, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.DefaultModel
	}
	return &OpenAIGenerator{client: client, model: model}
}

// Name identifies the backing service in logs.
func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatRequest{
		Model:       g.model,
		MaxTokens:   p.MaxTokens,
		System:      p.System,
		User:        p.User,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", resilience.FromHTTPStatus(eris.Wrapf(err, "classifier: %s", p.Task), openai.StatusCode(err))
	}
	recordUsage(g.Name(), g.model, p.Task, usage{
		input:  resp.Usage.PromptTokens,
		output: resp.Usage.CompletionTokens,
	})
	return resp.Content, nil
}
