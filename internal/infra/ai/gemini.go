// Package ai - gemini.go
// Google Gemini adapter over the generateContent REST endpoint.
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

// GeminiProvider implements LLMProvider for the Gemini API.
type GeminiProvider struct {
	opts       Options
	httpClient *http.Client
	usage      usageTracker
	budgetGate *BudgetGate
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// NewGeminiProvider creates a new Gemini adapter. BaseURL is the models
// collection; the model and method are appended per call.
func NewGeminiProvider(opts Options, budgetGate *BudgetGate) *GeminiProvider {
	opts = opts.withDefaults("https://generativelanguage.googleapis.com/v1beta/models", "gemini-2.5-flash", 60*time.Second)
	return &GeminiProvider{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		budgetGate: budgetGate,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "Gemini"
}

// IsAvailable checks if the API key is configured.
func (p *GeminiProvider) IsAvailable() bool {
	return p.opts.APIKey != ""
}

// Complete sends a generateContent request to Gemini.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	model := p.opts.Model
	if req.Model != "" {
		model = req.Model
	}

	estimatedCost := p.calculateCost(500+req.MaxTokens, model)
	if !p.budgetGate.CanSpend(estimatedCost) {
		return nil, fmt.Errorf("%w: %s", ErrBudgetExceeded, p.budgetGate.GetStatus())
	}

	gReq := geminiRequest{}
	var system []geminiPart
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, geminiPart{Text: m.Content})
		case "assistant":
			gReq.Contents = append(gReq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			gReq.Contents = append(gReq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		gReq.SystemInstruction = &geminiContent{Parts: system}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 || req.ResponseFormat == "json" {
		gReq.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
		if req.ResponseFormat == "json" {
			gReq.GenerationConfig.ResponseMIMEType = "application/json"
		}
	}

	body, err := json.Marshal(gReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.opts.BaseURL, "/") + "/" + model + ":generateContent"

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.opts.APIKey)

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
		return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var gResp geminiResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(gResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	var text strings.Builder
	for _, part := range gResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	usage := gResp.UsageMetadata
	actualCost := p.calculateCost(usage.TotalTokenCount, model)
	p.budgetGate.RecordSpend(actualCost)
	p.usage.record(usage.TotalTokenCount, actualCost)

	modelName := gResp.ModelVersion
	if modelName == "" {
		modelName = model
	}

	return &CompletionResponse{
		Content:      text.String(),
		Model:        modelName,
		PromptTokens: usage.PromptTokenCount,
		OutputTokens: usage.CandidatesTokenCount,
		TotalTokens:  usage.TotalTokenCount,
		Latency:      latency,
		FinishReason: gResp.Candidates[0].FinishReason,
		CostUSD:      actualCost,
	}, nil
}

// calculateCost computes the cost based on tokens and model.
func (p *GeminiProvider) calculateCost(tokens int, model string) float64 {
	switch model {
	case "gemini-2.5-flash":
		return float64(tokens) * 0.0000006
	case "gemini-2.5-pro":
		return float64(tokens) * 0.000005
	default:
		return float64(tokens) * 0.000001
	}
}

// GetUsageStats returns current usage statistics.
func (p *GeminiProvider) GetUsageStats() UsageStats {
	return p.usage.snapshot(p.budgetGate)
}

// ResetUsage resets all usage counters.
func (p *GeminiProvider) ResetUsage() {
	p.usage.reset()
}

// Ensure GeminiProvider implements LLMProvider
var _ LLMProvider = (*GeminiProvider)(nil)
