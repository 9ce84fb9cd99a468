// Package ai - openai.go
// OpenAI adapter implementing the LLMProvider interface.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Options configures an HTTP-backed provider.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func (o Options) withDefaults(baseURL, model string, timeout time.Duration) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.Model == "" {
		o.Model = model
	}
	if o.Timeout == 0 {
		o.Timeout = timeout
	}
	return o
}

// ErrNotConfigured is returned when a provider has no API key.
var ErrNotConfigured = errors.New("llm provider not configured")

// ErrBudgetExceeded is returned when the budget gate refuses a call.
var ErrBudgetExceeded = errors.New("llm budget limit exceeded")

// OpenAIProvider implements LLMProvider for OpenAI API.
type OpenAIProvider struct {
	opts       Options
	httpClient *http.Client
	usage      usageTracker
	budgetGate *BudgetGate
}

// OpenAI API request/response structures
type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// NewOpenAIProvider creates a new OpenAI adapter.
func NewOpenAIProvider(opts Options, budgetGate *BudgetGate) *OpenAIProvider {
	opts = opts.withDefaults("https://api.openai.com/v1/chat/completions", "gpt-4o-mini", 60*time.Second)
	return &OpenAIProvider{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		budgetGate: budgetGate,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

// IsAvailable checks if the API key is configured.
func (p *OpenAIProvider) IsAvailable() bool {
	return p.opts.APIKey != ""
}

// Complete sends a completion request to OpenAI.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	model := p.opts.Model
	if req.Model != "" {
		model = req.Model
	}

	estimatedCost := p.calculateCost(1000+req.MaxTokens, model)
	if !p.budgetGate.CanSpend(estimatedCost) {
		return nil, fmt.Errorf("%w: %s", ErrBudgetExceeded, p.budgetGate.GetStatus())
	}

	messages := make([]openAIMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openAIMessage{Role: m.Role, Content: m.Content}
	}

	oaiReq := openAIRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.ResponseFormat == "json" {
		oaiReq.ResponseFormat = &openAIFormat{Type: "json_object"}
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

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
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var oaiResp openAIResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	actualCost := p.calculateCost(oaiResp.Usage.TotalTokens, model)
	p.budgetGate.RecordSpend(actualCost)
	p.usage.record(oaiResp.Usage.TotalTokens, actualCost)

	return &CompletionResponse{
		Content:      oaiResp.Choices[0].Message.Content,
		Model:        oaiResp.Model,
		PromptTokens: oaiResp.Usage.PromptTokens,
		OutputTokens: oaiResp.Usage.CompletionTokens,
		TotalTokens:  oaiResp.Usage.TotalTokens,
		Latency:      latency,
		FinishReason: oaiResp.Choices[0].FinishReason,
		CostUSD:      actualCost,
	}, nil
}

// calculateCost computes the cost based on tokens and model.
func (p *OpenAIProvider) calculateCost(tokens int, model string) float64 {
	switch model {
	case "gpt-4o":
		return float64(tokens) * 0.00003
	case "gpt-4o-mini":
		return float64(tokens) * 0.0000005
	default:
		return float64(tokens) * 0.00001
	}
}

// GetUsageStats returns current usage statistics.
func (p *OpenAIProvider) GetUsageStats() UsageStats {
	return p.usage.snapshot(p.budgetGate)
}

// ResetUsage resets all usage counters.
func (p *OpenAIProvider) ResetUsage() {
	p.usage.reset()
}

// Ensure OpenAIProvider implements LLMProvider
var _ LLMProvider = (*OpenAIProvider)(nil)
