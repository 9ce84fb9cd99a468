// Package ai provides the LLM integration layer behind the narrator.
// Agnostic LLM Provider interface that allows swapping between
// Gemini, OpenAI, Anthropic Claude, or local models.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Message represents a chat message for the LLM.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// CompletionRequest is the input for LLM inference.
type CompletionRequest struct {
	Messages       []Message `json:"messages"`
	MaxTokens      int       `json:"max_tokens"`
	Temperature    float64   `json:"temperature"`
	Model          string    `json:"model,omitempty"`           // Override default model
	ResponseFormat string    `json:"response_format,omitempty"` // "json" for structured output
}

// CompletionResponse is the output from LLM inference.
type CompletionResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	PromptTokens int           `json:"prompt_tokens"`
	OutputTokens int           `json:"output_tokens"`
	TotalTokens  int           `json:"total_tokens"`
	Latency      time.Duration `json:"latency"`
	FinishReason string        `json:"finish_reason"`
	CostUSD      float64       `json:"cost_usd"`
}

// UsageStats tracks API usage for FinOps.
type UsageStats struct {
	TotalRequests   int       `json:"total_requests"`
	TotalTokens     int       `json:"total_tokens"`
	TotalCostUSD    float64   `json:"total_cost_usd"`
	BudgetRemaining float64   `json:"budget_remaining"`
	LastReset       time.Time `json:"last_reset"`
}

// LLMProvider is the agnostic interface for LLM backends.
// The narrator uses this interface without knowing which provider is behind it.
// Implementations must be safe for concurrent use.
type LLMProvider interface {
	// Complete sends a prompt and returns the LLM response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// GetUsageStats returns current API usage for FinOps monitoring.
	GetUsageStats() UsageStats

	// ResetUsage resets the usage counters (e.g., monthly reset).
	ResetUsage()

	// Name returns the provider name (for logging).
	Name() string

	// IsAvailable checks if the provider is configured.
	IsAvailable() bool
}

// BudgetGate controls spending limits for LLM calls.
type BudgetGate struct {
	mu                sync.Mutex
	DailyLimitUSD     float64
	MonthlyLimitUSD   float64
	CurrentDaySpend   float64
	CurrentMonthSpend float64
	LastDayReset      time.Time
	LastMonthReset    time.Time
	now               func() time.Time
}

// NewBudgetGate creates a new budget controller.
func NewBudgetGate(dailyLimit, monthlyLimit float64) *BudgetGate {
	now := time.Now()
	return &BudgetGate{
		DailyLimitUSD:   dailyLimit,
		MonthlyLimitUSD: monthlyLimit,
		LastDayReset:    now,
		LastMonthReset:  now,
		now:             time.Now,
	}
}

// CanSpend checks if a cost is within budget.
// A nil gate allows everything.
func (bg *BudgetGate) CanSpend(costUSD float64) bool {
	if bg == nil {
		return true
	}
	bg.mu.Lock()
	defer bg.mu.Unlock()
	bg.maybeReset()
	return (bg.CurrentDaySpend+costUSD <= bg.DailyLimitUSD) &&
		(bg.CurrentMonthSpend+costUSD <= bg.MonthlyLimitUSD)
}

// RecordSpend logs a cost.
func (bg *BudgetGate) RecordSpend(costUSD float64) {
	if bg == nil {
		return
	}
	bg.mu.Lock()
	defer bg.mu.Unlock()
	bg.maybeReset()
	bg.CurrentDaySpend += costUSD
	bg.CurrentMonthSpend += costUSD
}

// Remaining returns what is left of the monthly budget.
func (bg *BudgetGate) Remaining() float64 {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	return bg.MonthlyLimitUSD - bg.CurrentMonthSpend
}

// maybeReset resets counters if day/month has changed. Caller holds mu.
func (bg *BudgetGate) maybeReset() {
	now := bg.now()

	if now.YearDay() != bg.LastDayReset.YearDay() || now.Year() != bg.LastDayReset.Year() {
		bg.CurrentDaySpend = 0
		bg.LastDayReset = now
	}

	if now.Month() != bg.LastMonthReset.Month() || now.Year() != bg.LastMonthReset.Year() {
		bg.CurrentMonthSpend = 0
		bg.LastMonthReset = now
	}
}

// GetStatus returns a human-readable budget status.
func (bg *BudgetGate) GetStatus() string {
	if bg == nil {
		return "unlimited"
	}
	bg.mu.Lock()
	defer bg.mu.Unlock()
	return "Day: $" + formatUSD(bg.CurrentDaySpend) + "/" + formatUSD(bg.DailyLimitUSD) +
		" | Month: $" + formatUSD(bg.CurrentMonthSpend) + "/" + formatUSD(bg.MonthlyLimitUSD)
}

func formatUSD(f float64) string {
	return humanize.FormatFloat("#,###.##", f)
}

// usageTracker is shared bookkeeping for the HTTP adapters.
type usageTracker struct {
	mu    sync.Mutex
	stats UsageStats
}

func (u *usageTracker) record(tokens int, cost float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats.TotalRequests++
	u.stats.TotalTokens += tokens
	u.stats.TotalCostUSD += cost
}

func (u *usageTracker) snapshot(gate *BudgetGate) UsageStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.stats
	if gate != nil {
		s.BudgetRemaining = gate.Remaining()
	}
	return s
}

func (u *usageTracker) reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats = UsageStats{LastReset: time.Now()}
}

// NewProvider builds the adapter named by kind. "none" yields a nil provider
// so callers fall back to static narration.
func NewProvider(kind string, opts Options, gate *BudgetGate) (LLMProvider, error) {
	switch kind {
	case "gemini":
		return NewGeminiProvider(opts, gate), nil
	case "openai":
		return NewOpenAIProvider(opts, gate), nil
	case "anthropic":
		return NewAnthropicProvider(opts, gate), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", kind)
	}
}
