package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/analytics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/classifier"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/metrics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/scorer"
)

type stubGenerator struct {
	calls atomic.Int64
	fn    func(ctx context.Context, p classifier.Prompt) (string, error)
}

func (g *stubGenerator) Generate(ctx context.Context, p classifier.Prompt) (string, error) {
	g.calls.Add(1)
	return g.fn(ctx, p)
}

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func scoredRows(texts ...string) []model.Scored {
	rows := make([]model.Feedback, len(texts))
	for i, text := range texts {
		rows[i] = model.Feedback{Text: text, Product: "Core", Severity: model.SeverityHigh, Region: model.RegionEU}
	}
	return scorer.ScoreTable(rows)
}

func noPacing() Options {
	return Options{RequestsPerSecond: -1}
}

func TestEnrich_OfflineSampleCycling(t *testing.T) {
	rows := scorer.ScoreTable(model.SampleFeedback())

	var progress []Progress
	res, err := New(nil).Enrich(context.Background(), rows, Options{
		Progress: func(p Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.Equal(t, ModeOffline, res.Mode)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Records, 10)

	want := []model.Category{
		model.CategoryEnterprise, model.CategoryCompliance, model.CategoryUsability,
		model.CategoryEnterprise, model.CategoryCompliance, model.CategoryUsability,
		model.CategoryEnterprise, model.CategoryCompliance, model.CategoryUsability,
		model.CategoryEnterprise,
	}
	for i, rec := range res.Records {
		assert.Equal(t, want[i], rec.Category, "row %d", i)
		assert.Equal(t, model.SampleSummaries[i], rec.Summary, "row %d", i)
		assert.Equal(t, rows[i], rec.Scored, "row %d", i)
	}

	require.Len(t, progress, 10)
	assert.Equal(t, Progress{Done: 1, Total: 10}, progress[0])
	assert.Equal(t, Progress{Done: 10, Total: 10}, progress[9])
}

func TestEnrich_SampleEndToEndAverage(t *testing.T) {
	res, err := New(classifier.New(nil)).Enrich(context.Background(), scorer.ScoreTable(model.SampleFeedback()), Options{})
	require.NoError(t, err)

	stats := analytics.Summarize(res.Records)
	assert.Equal(t, 10, stats.TotalFeedback)
	assert.InDelta(t, 6.2, stats.AvgOpportunityScore, 1e-9)
}

func TestEnrich_OfflineOptionSkipsService(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, classifier.Prompt) (string, error) {
		return string(model.CategoryCompliance), nil
	}}
	p := New(classifier.New(gen))
	require.True(t, p.Live())

	res, err := p.Enrich(context.Background(), scoredRows("a", "b"), Options{Offline: true})
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, res.Mode)
	assert.Zero(t, gen.calls.Load())
}

func TestEnrich_LiveKeepsRowOrder(t *testing.T) {
	texts := make([]string, 8)
	expected := make(map[string]model.Category, len(texts))
	for i := range texts {
		texts[i] = fmt.Sprintf("item-%d", i)
		expected[texts[i]] = model.Categories[(i+2)%len(model.Categories)]
	}

	gen := &stubGenerator{fn: func(_ context.Context, p classifier.Prompt) (string, error) {
		for text, cat := range expected {
			if strings.Contains(p.User, `"`+text+`"`) {
				if p.Task == classifier.TaskClassify {
					return string(cat), nil
				}
				return "summary of " + text, nil
			}
		}
		return "", errors.New("unexpected prompt")
	}}

	var mu sync.Mutex
	var done []int
	opts := noPacing()
	opts.Concurrency = 4
	opts.Progress = func(p Progress) {
		mu.Lock()
		done = append(done, p.Done)
		mu.Unlock()
	}

	res, err := New(classifier.New(gen, classifier.WithRetry(fastRetry(1)))).
		Enrich(context.Background(), scoredRows(texts...), opts)
	require.NoError(t, err)

	assert.Equal(t, ModeLive, res.Mode)
	assert.Zero(t, res.Recovered)
	require.Len(t, res.Records, len(texts))
	for i, rec := range res.Records {
		assert.Equal(t, texts[i], rec.Text)
		assert.Equal(t, expected[texts[i]], rec.Category)
		assert.Equal(t, "summary of "+texts[i], rec.Summary)
	}
	assert.Equal(t, int64(2*len(texts)), gen.calls.Load())

	require.Len(t, done, len(texts))
	for i, d := range done {
		assert.Equal(t, i+1, d)
	}
}

func TestEnrich_LiveRowFailureRecovered(t *testing.T) {
	gen := &stubGenerator{fn: func(_ context.Context, p classifier.Prompt) (string, error) {
		if strings.Contains(p.User, "broken") {
			return "", errors.New("503 service unavailable")
		}
		if p.Task == classifier.TaskClassify {
			return string(model.CategoryEnterprise), nil
		}
		return "fine", nil
	}}

	res, err := New(classifier.New(gen, classifier.WithRetry(fastRetry(2)))).
		Enrich(context.Background(), scoredRows("good", "broken", "also good"), noPacing())
	require.NoError(t, err)

	assert.Equal(t, ModeLive, res.Mode)
	assert.Equal(t, 1, res.Recovered)
	require.Len(t, res.Records, 3)
	assert.Equal(t, model.DefaultCategory, res.Records[1].Category)
	assert.Equal(t, classifier.FallbackSummary, res.Records[1].Summary)
	assert.Equal(t, model.CategoryEnterprise, res.Records[2].Category)
}

func TestEnrich_CircuitOpenFailsOver(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, classifier.Prompt) (string, error) {
		return "", errors.New("500 internal")
	}}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := classifier.New(gen, classifier.WithRetry(fastRetry(3)), classifier.WithCircuitBreaker(cb))

	var last Progress
	opts := noPacing()
	opts.Progress = func(p Progress) {
		assert.Greater(t, p.Done, last.Done)
		last = p
	}

	rows := scoredRows("a", "b", "c", "d")
	before := testutil.ToFloat64(metrics.EnrichedRows.WithLabelValues(string(ModeFailover)))

	res, err := New(c).Enrich(context.Background(), rows, opts)
	require.NoError(t, err)

	assert.Equal(t, ModeFailover, res.Mode)
	assert.Zero(t, res.Recovered)
	require.Len(t, res.Records, 4)
	for i, rec := range res.Records {
		assert.Equal(t, classifier.OfflineCategory(i), rec.Category)
		assert.Equal(t, classifier.OfflineSummary(i), rec.Summary)
	}
	assert.Equal(t, int64(2), gen.calls.Load())
	assert.Equal(t, Progress{Done: 4, Total: 4}, last)
	assert.Equal(t, before+4, testutil.ToFloat64(metrics.EnrichedRows.WithLabelValues(string(ModeFailover))))
}

func TestEnrich_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(nil).Enrich(ctx, scoredRows("a"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestEnrich_CancelledMidBatchReturnsNoTable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &stubGenerator{fn: func(context.Context, classifier.Prompt) (string, error) {
		cancel()
		return string(model.CategoryCompliance), nil
	}}

	res, err := New(classifier.New(gen, classifier.WithRetry(fastRetry(1)))).
		Enrich(ctx, scoredRows("a", "b", "c", "d", "e"), noPacing())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Less(t, gen.calls.Load(), int64(10))
}

func TestEnrich_Pacing(t *testing.T) {
	gen := &stubGenerator{fn: func(_ context.Context, p classifier.Prompt) (string, error) {
		if p.Task == classifier.TaskClassify {
			return string(model.CategoryUsability), nil
		}
		return "ok", nil
	}}

	start := time.Now()
	res, err := New(classifier.New(gen)).Enrich(context.Background(), scoredRows("a", "b", "c"), Options{RequestsPerSecond: 20})
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	// Burst of one: the second and third records each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestEnrich_DeadlineDuringPacing(t *testing.T) {
	gen := &stubGenerator{fn: func(_ context.Context, p classifier.Prompt) (string, error) {
		if p.Task == classifier.TaskClassify {
			return string(model.CategoryUsability), nil
		}
		return "ok", nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := New(classifier.New(gen)).
		Enrich(ctx, scoredRows("a", "b", "c", "d", "e", "f", "g"), Options{RequestsPerSecond: 5})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
	// Seven rows at 5 rps need ~1.2s; the batch stops at the deadline instead.
	assert.Less(t, time.Since(start), time.Second)
	assert.Less(t, gen.calls.Load(), int64(14))
}

func TestPace(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.NoError(t, pace(context.Background(), limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pace(ctx, limiter)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnrich_EmptyTable(t *testing.T) {
	res, err := New(nil).Enrich(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}
