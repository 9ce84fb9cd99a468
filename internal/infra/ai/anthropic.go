// Package ai - anthropic.go
// Anthropic Claude adapter implementing the LLMProvider interface.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AnthropicProvider implements LLMProvider for Anthropic Claude API.
type AnthropicProvider struct {
	opts       Options
	httpClient *http.Client
	usage      usageTracker
	budgetGate *BudgetGate
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider creates a new Claude adapter.
func NewAnthropicProvider(opts Options, budgetGate *BudgetGate) *AnthropicProvider {
	opts = opts.withDefaults("https://api.anthropic.com/v1/messages", "claude-3-haiku-20240307", 120*time.Second)
	return &AnthropicProvider{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		budgetGate: budgetGate,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "Anthropic Claude"
}

// IsAvailable checks if the API key is configured.
func (p *AnthropicProvider) IsAvailable() bool {
	return p.opts.APIKey != ""
}

// Complete sends a completion request to Claude.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
	}

	model := p.opts.Model
	if req.Model != "" {
		model = req.Model
	}

	estimatedCost := p.calculateCost(2000+req.MaxTokens, model)
	if !p.budgetGate.CanSpend(estimatedCost) {
		return nil, fmt.Errorf("%w: %s", ErrBudgetExceeded, p.budgetGate.GetStatus())
	}

	// Claude takes the system prompt out of band.
	var system []string
	var messages []anthropicMessage
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 256
	}

	anthReq := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      strings.Join(system, "\n\n"),
		Messages:    messages,
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(anthReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.opts.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(respBody, &anthResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(anthResp.Content) == 0 {
		return nil, fmt.Errorf("no response content returned")
	}

	totalTokens := anthResp.Usage.InputTokens + anthResp.Usage.OutputTokens
	actualCost := p.calculateCost(totalTokens, model)
	p.budgetGate.RecordSpend(actualCost)
	p.usage.record(totalTokens, actualCost)

	return &CompletionResponse{
		Content:      anthResp.Content[0].Text,
		Model:        anthResp.Model,
		PromptTokens: anthResp.Usage.InputTokens,
		OutputTokens: anthResp.Usage.OutputTokens,
		TotalTokens:  totalTokens,
		Latency:      latency,
		FinishReason: anthResp.StopReason,
		CostUSD:      actualCost,
	}, nil
}

// calculateCost computes actual cost based on tokens.
func (p *AnthropicProvider) calculateCost(tokens int, model string) float64 {
	switch model {
	case "claude-3-5-sonnet-20241022":
		return float64(tokens) * 0.000009
	case "claude-3-haiku-20240307":
		return float64(tokens) * 0.0000005
	default:
		return float64(tokens) * 0.00001
	}
}

// GetUsageStats returns current usage statistics.
func (p *AnthropicProvider) GetUsageStats() UsageStats {
	return p.usage.snapshot(p.budgetGate)
}

// ResetUsage resets all usage counters.
func (p *AnthropicProvider) ResetUsage() {
	p.usage.reset()
}

// Ensure AnthropicProvider implements LLMProvider
var _ LLMProvider = (*AnthropicProvider)(nil)
