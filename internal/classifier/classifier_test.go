package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func taskIs(task Task) any {
	return mock.MatchedBy(func(p Prompt) bool { return p.Task == task })
}

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestNew_State(t *testing.T) {
	assert.Equal(t, StateUnconfigured, New(nil).State())
	assert.Equal(t, StateReady, New(new(mockGenerator)).State())
	assert.Equal(t, "unconfigured", StateUnconfigured.String())
	assert.Equal(t, "ready", StateReady.String())

	var nilClassifier *Classifier
	assert.Equal(t, StateUnconfigured, nilClassifier.State())
}

func TestNew_ServiceNameFromGenerator(t *testing.T) {
	c := New(NewOpenAIGenerator(nil, ""))
	assert.Equal(t, "openai", c.service)

	c = New(new(mockGenerator))
	assert.Equal(t, "generator", c.service)
}

func TestClassify_Unconfigured(t *testing.T) {
	c := New(nil)

	cat, err := c.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnconfigured)
	assert.Equal(t, model.DefaultCategory, cat)

	summary, err := c.Summarize(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnconfigured)
	assert.Equal(t, FallbackSummary, summary)
}

func TestClassify_ExactMatch(t *testing.T) {
	for _, want := range model.Categories {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, taskIs(TaskClassify)).Return("  "+string(want)+"\n", nil).Once()

		got, err := New(gen).Classify(context.Background(), "feedback")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		gen.AssertExpectations(t)
	}
}

func TestClassify_UnrecognisedResponseMapsToDefault(t *testing.T) {
	cases := []string{
		"",
		"Category: Win Enterprise Deals",
		"win enterprise deals",
		`"Win Enterprise Deals"`,
		"Win Enterprise",
	}
	for _, resp := range cases {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(resp, nil).Once()

		got, err := New(gen).Classify(context.Background(), "feedback")
		require.NoError(t, err, resp)
		assert.Equal(t, model.CategoryUsability, got, resp)
	}
}

func TestClassify_FirstLineOnly(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return("Ensure Regulatory & Data Compliance\nBecause the customer asks for SOC 2.", nil).Once()

	got, err := New(gen).Classify(context.Background(), "feedback")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCompliance, got)
}

func TestClassify_LeadingBlankLine(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return("\nEnsure Regulatory & Data Compliance\n", nil).Once()

	got, err := New(gen).Classify(context.Background(), "feedback")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCompliance, got)
}

func TestClassify_PromptContents(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.Task == TaskClassify &&
			p.System == classifySystem &&
			p.MaxTokens == 50 &&
			p.Temperature != nil && *p.Temperature == 0.1 &&
			strings.Contains(p.User, `"Win Enterprise Deals" - Features, integrations`) &&
			strings.Contains(p.User, `"Ensure Regulatory & Data Compliance" - Security, privacy`) &&
			strings.Contains(p.User, `"Improve Platform Usability & Performance" - User experience`) &&
			strings.Contains(p.User, "Respond with ONLY the category name") &&
			strings.Contains(p.User, `Feedback: "Need SSO for our 5000 seats"`)
	})).Return(string(model.CategoryEnterprise), nil).Once()

	_, err := New(gen).Classify(context.Background(), "Need SSO for our 5000 seats")
	require.NoError(t, err)
	gen.AssertExpectations(t)
}

func TestSummarize_TrimsResponse(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.Task == TaskSummarize &&
			p.System == summarizeSystem &&
			p.MaxTokens == 60 &&
			strings.Contains(p.User, "Maximum 25 words")
	})).Return("  Customer needs SSO to close the deal.  \n", nil).Once()

	got, err := New(gen).Summarize(context.Background(), "feedback")
	require.NoError(t, err)
	assert.Equal(t, "Customer needs SSO to close the deal.", got)
	gen.AssertExpectations(t)
}

func TestSummarize_EmptyResponseUsesFallback(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("   ", nil).Once()

	got, err := New(gen).Summarize(context.Background(), "feedback")
	require.NoError(t, err)
	assert.Equal(t, FallbackSummary, got)
}

func TestClassify_FailsTwiceThenSucceeds(t *testing.T) {
	base := 20 * time.Millisecond
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("503 service unavailable")).Twice()
	gen.On("Generate", mock.Anything, mock.Anything).Return(string(model.CategoryCompliance), nil).Once()

	c := New(gen, WithRetry(resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: base,
		Multiplier:     2.0,
	}))

	start := time.Now()
	got, err := c.Classify(context.Background(), "GDPR export")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, model.CategoryCompliance, got)
	assert.GreaterOrEqual(t, elapsed, base+2*base)
	gen.AssertNumberOfCalls(t, "Generate", 3)
}

func TestClassify_ExhaustedReturnsRecoverable(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	var retries []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, _ error) { retries = append(retries, attempt) }

	got, err := New(gen, WithRetry(cfg)).Classify(context.Background(), "feedback")
	assert.Equal(t, model.DefaultCategory, got)
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))

	var re *RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, TaskClassify, re.Task)
	assert.Equal(t, string(model.DefaultCategory), re.Fallback)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, []int{1, 2}, retries)
	gen.AssertNumberOfCalls(t, "Generate", 3)
}

func TestSummarize_ExhaustedReturnsFallback(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	got, err := New(gen, WithRetry(fastRetry(2))).Summarize(context.Background(), "feedback")
	assert.Equal(t, FallbackSummary, got)
	assert.True(t, IsRecoverable(err))
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestClassify_PermanentRejectionNotRetried(t *testing.T) {
	rejected := resilience.NewPermanentError(errors.New("401 unauthorized"), 401)
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", rejected)

	got, err := New(gen, WithRetry(fastRetry(3))).Classify(context.Background(), "feedback")
	assert.Equal(t, model.DefaultCategory, got)
	assert.True(t, IsRecoverable(err))
	assert.ErrorIs(t, err, rejected)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestClassify_TransientStatusRetried(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return("", resilience.NewTransientError(errors.New("429 too many requests"), 429)).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(string(model.CategoryEnterprise), nil).Once()

	got, err := New(gen, WithRetry(fastRetry(3))).Classify(context.Background(), "feedback")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryEnterprise, got)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestClassify_CancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return("", context.Canceled)

	_, err := New(gen, WithRetry(fastRetry(3))).Classify(ctx, "feedback")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRecoverable(err))
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestClassify_CircuitOpenFailsFast(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("500 internal"))

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := New(gen, WithRetry(fastRetry(3)), WithCircuitBreaker(cb))
	assert.Same(t, cb, c.Breaker())

	// Two failures open the circuit; the third attempt is rejected without a call.
	_, err := c.Classify(context.Background(), "first")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.True(t, IsRecoverable(err))
	gen.AssertNumberOfCalls(t, "Generate", 2)

	_, err = c.Summarize(context.Background(), "second")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestParseCategory(t *testing.T) {
	cat, ok := ParseCategory("Win Enterprise Deals")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryEnterprise, cat)

	cat, ok = ParseCategory("\tImprove Platform Usability & Performance \r\nmore")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryUsability, cat)

	cat, ok = ParseCategory("\nEnsure Regulatory & Data Compliance\n")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryCompliance, cat)

	cat, ok = ParseCategory("\r\n\n   Win Enterprise Deals\r\nReason: SSO")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryEnterprise, cat)

	cat, ok = ParseCategory("Something else")
	assert.False(t, ok)
	assert.Equal(t, model.DefaultCategory, cat)
}

func TestOfflineAssignment(t *testing.T) {
	want := []model.Category{
		model.CategoryEnterprise, model.CategoryCompliance, model.CategoryUsability,
		model.CategoryEnterprise, model.CategoryCompliance, model.CategoryUsability,
		model.CategoryEnterprise, model.CategoryCompliance, model.CategoryUsability,
		model.CategoryEnterprise,
	}
	for i, w := range want {
		assert.Equal(t, w, OfflineCategory(i), "row %d", i)
	}
	assert.Equal(t, model.SampleSummaries[0], OfflineSummary(0))
	assert.Equal(t, model.SampleSummaries[1], OfflineSummary(len(model.SampleSummaries)+1))
	assert.Equal(t, model.CategoryUsability, OfflineCategory(-1))
}
