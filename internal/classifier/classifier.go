// Package classifier assigns a strategic category and an executive summary to
// a feedback text using an external text-generation service.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/metrics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
)

// FallbackSummary is returned when no summary could be generated.
const FallbackSummary = "Unable to generate summary"

// ErrUnconfigured is returned when no text-generation service is available.
var ErrUnconfigured = eris.New("classifier: text-generation service not configured")

// State reports whether the classifier can reach a service.
type State int

const (
	StateUnconfigured State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "unconfigured"
}

// RecoverableError reports that every attempt failed and Fallback was
// returned in place of a generated value. It is not fatal to a batch.
type RecoverableError struct {
	Task     Task
	Fallback string
	Err      error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("classifier: %s fell back to %q: %v", e.Task, e.Fallback, e.Err)
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err carries a RecoverableError.
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRetry overrides the retry schedule. A nil ShouldRetry retries every
// service failure except a permanent rejection such as a 401.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Classifier) { c.retry = cfg }
}

// WithCircuitBreaker guards every attempt with cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Classifier) { c.breaker = cb }
}

// Classifier wraps a single-attempt Generator with retry, an optional
// circuit breaker and fallback values. It is safe for concurrent use.
type Classifier struct {
	gen     Generator
	service string
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// New creates a Classifier. A nil gen yields an unconfigured classifier.
func New(gen Generator, opts ...Option) *Classifier {
	c := &Classifier{
		gen:     gen,
		service: "generator",
		retry:   resilience.DefaultRetryConfig(),
	}
	if n, ok := gen.(interface{ Name() string }); ok {
		c.service = n.Name()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns StateReady when a generator is configured.
func (c *Classifier) State() State {
	if c == nil || c.gen == nil {
		return StateUnconfigured
	}
	return StateReady
}

// Breaker returns the circuit breaker, or nil.
func (c *Classifier) Breaker() *resilience.CircuitBreaker {
	if c == nil {
		return nil
	}
	return c.breaker
}

// Classify returns the strategic category for text. A response that is not
// exactly one of the category names maps to the default category. When all
// attempts fail the default category is returned with a *RecoverableError.
func (c *Classifier) Classify(ctx context.Context, text string) (model.Category, error) {
	if c.State() != StateReady {
		metrics.ClassifierCalls.WithLabelValues(string(TaskClassify), "unconfigured").Inc()
		return model.DefaultCategory, ErrUnconfigured
	}

	raw, err := c.generate(ctx, classifyPrompt(text))
	if err != nil {
		return model.DefaultCategory, c.fail(ctx, TaskClassify, string(model.DefaultCategory), err)
	}

	cat, ok := ParseCategory(raw)
	if !ok {
		zap.L().Debug("unrecognised category response, using default",
			zap.String("response", raw),
			zap.String("category", string(cat)),
		)
	}
	metrics.ClassifierCalls.WithLabelValues(string(TaskClassify), "ok").Inc()
	return cat, nil
}

// Summarize returns a short executive summary of text. When all attempts
// fail FallbackSummary is returned with a *RecoverableError.
func (c *Classifier) Summarize(ctx context.Context, text string) (string, error) {
	if c.State() != StateReady {
		metrics.ClassifierCalls.WithLabelValues(string(TaskSummarize), "unconfigured").Inc()
		return FallbackSummary, ErrUnconfigured
	}

	raw, err := c.generate(ctx, summarizePrompt(text))
	if err != nil {
		return FallbackSummary, c.fail(ctx, TaskSummarize, FallbackSummary, err)
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		summary = FallbackSummary
	}
	metrics.ClassifierCalls.WithLabelValues(string(TaskSummarize), "ok").Inc()
	return summary, nil
}

func (c *Classifier) generate(ctx context.Context, p Prompt) (string, error) {
	cfg := c.retry
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = resilience.IsServiceFailure
	}
	logRetry := resilience.RetryLogger(c.service, string(p.Task))
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error) {
		metrics.ClassifierRetries.WithLabelValues(string(p.Task)).Inc()
		logRetry(attempt, err)
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	attempt := func(ctx context.Context) (string, error) {
		return c.gen.Generate(ctx, p)
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		if c.breaker == nil {
			return attempt(ctx)
		}
		return resilience.ExecuteVal(ctx, c.breaker, attempt)
	})
}

// fail converts an exhausted call into the error returned to callers.
// Cancellation propagates unchanged so batches can stop.
func (c *Classifier) fail(ctx context.Context, task Task, fallback string, err error) error {
	if ctx.Err() != nil {
		metrics.ClassifierCalls.WithLabelValues(string(task), "cancelled").Inc()
		return ctx.Err()
	}

	metrics.ClassifierCalls.WithLabelValues(string(task), "fallback").Inc()
	metrics.ClassifierFallbacks.WithLabelValues(string(task)).Inc()
	zap.L().Warn("text generation failed, using fallback",
		zap.String("service", c.service),
		zap.String("operation", string(task)),
		zap.String("fallback", fallback),
		zap.Error(err),
	)
	return &RecoverableError{Task: task, Fallback: fallback, Err: err}
}
