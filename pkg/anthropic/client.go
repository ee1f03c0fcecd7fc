// Package anthropic is a narrow single-prompt completion client over the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// SystemCacheTTL is the ephemeral cache lifetime requested for cached system
// prompts. Every row of a batch shares the same instructions.
const SystemCacheTTL = "5m"

// Cacheable reports whether system is long enough for model to honour a
// cache marker. Shorter prompts are billed normally and the marker is
// ignored, so it is left off. Length is estimated at four characters per
// token.
func Cacheable(model, system string) bool {
	if system == "" {
		return false
	}
	return int64(len(system))/4 >= minCacheTokens(model)
}

// minCacheTokens is the smallest prompt prefix model will cache.
func minCacheTokens(model string) int64 {
	if strings.Contains(model, "sonnet") {
		return 1024
	}
	return 4096
}

// Client completes one prompt per call.
type Client interface {
	CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a system instruction plus one user turn.
type CompletionRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	CacheSystem bool
	User        string
	Temperature *float64
}

// CompletionResponse carries the concatenated text blocks of a reply.
type CompletionResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption of one call.
type TokenUsage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// per-million-token {input, output} pricing in USD.
var modelPricing = map[string][2]float64{
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-opus-4-6":            {15.00, 75.00},
}

// EstimateCost returns the estimated USD cost of u for model, or 0 for an
// unknown model. Cache writes bill at 1.25x input and cache reads at 0.1x.
func (u TokenUsage) EstimateCost(model string) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	input := float64(u.InputTokens) + 1.25*float64(u.CacheWriteTokens) + 0.1*float64(u.CacheReadTokens)
	return (input*p[0] + float64(u.OutputTokens)*p[1]) / 1e6
}

// StatusCode extracts the HTTP status from an API error, or 0 when err did
// not come from an API response.
func StatusCode(err error) int {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Client backed by the SDK. SDK-level retries are
// disabled; callers own the retry policy. An empty baseURL uses the public
// endpoint.
func NewClient(apiKey, baseURL string) Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &sdkClient{client: sdk.NewClient(opts...)}
}

func (c *sdkClient) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	msg, err := c.client.Messages.New(ctx, buildParams(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create completion")
	}
	return fromSDKMessage(msg), nil
}

func buildParams(req CompletionRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.User))},
	}
	if req.System != "" {
		block := sdk.TextBlockParam{Text: req.System}
		if req.CacheSystem {
			cc := sdk.NewCacheControlEphemeralParam()
			cc.TTL = sdk.CacheControlEphemeralTTL(SystemCacheTTL)
			block.CacheControl = cc
		}
		params.System = []sdk.TextBlockParam{block}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params
}

func fromSDKMessage(msg *sdk.Message) *CompletionResponse {
	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return &CompletionResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       sb.String(),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:      msg.Usage.InputTokens,
			OutputTokens:     msg.Usage.OutputTokens,
			CacheWriteTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadTokens:  msg.Usage.CacheReadInputTokens,
		},
	}
}
