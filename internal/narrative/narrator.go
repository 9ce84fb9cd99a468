package narrative

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/infra/ai"
	"github.com/velist/gametest/internal/platform/i18n"
	"github.com/velist/gametest/internal/platform/logger"
	"github.com/velist/gametest/internal/platform/metrics"
)

var errUnavailable = errors.New("llm provider unavailable")

// Narrator is the LLM-backed Provider. A nil or unconfigured LLM makes every
// call answer with fallback content.
type Narrator struct {
	llm     ai.LLMProvider
	model   string
	logger  *logger.Logger
	metrics *metrics.Collector
	genre   func() string
}

// NewNarrator wires an LLM into the Provider contract.
func NewNarrator(llm ai.LLMProvider, model string, log *logger.Logger) *Narrator {
	return &Narrator{
		llm:     llm,
		model:   model,
		logger:  log,
		metrics: metrics.Get(),
		genre: func() string {
			return ai.Genres[rand.IntN(len(ai.Genres))]
		},
	}
}

// complete runs one prompt and reports the raw text.
func (n *Narrator) complete(ctx context.Context, prompt string, maxTokens int, format string) (string, error) {
	if n.llm == nil || !n.llm.IsAvailable() {
		return "", errUnavailable
	}
	resp, err := n.llm.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: ai.NarratorSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      maxTokens,
		Temperature:    0.9,
		Model:          n.model,
		ResponseFormat: format,
	})
	if err != nil {
		return "", err
	}
	n.metrics.RecordLLMCall(resp.TotalTokens, resp.CostUSD, resp.Latency)
	return resp.Content, nil
}

// line resolves a one-line text call: errors map to onError, blank text to onEmpty.
func (n *Narrator) line(ctx context.Context, kind, prompt string, onEmpty, onError string) string {
	start := time.Now()
	raw, err := n.complete(ctx, prompt, 96, "")
	if err != nil {
		if !errors.Is(err, errUnavailable) {
			n.logger.Warnf("%s narration failed, using fallback: %v", kind, err)
		}
		n.metrics.RecordNarrative(true, time.Since(start))
		return onError
	}
	text := cleanLine(raw)
	if text == "" {
		n.metrics.RecordNarrative(true, time.Since(start))
		return onEmpty
	}
	n.metrics.RecordNarrative(false, time.Since(start))
	return text
}

// EraTransitionQuote returns a turning point quote for entering era.
func (n *Narrator) EraTransitionQuote(ctx context.Context, era civ.Era, lang i18n.Language) string {
	return n.line(ctx, "quote", ai.EraQuotePrompt(string(era), lang), emptyQuote(lang), FallbackQuote(lang))
}

// FinalJudgement returns the verdict on a finished run.
func (n *Narrator) FinalJudgement(ctx context.Context, j Judgement) string {
	prompt := ai.JudgementPrompt(j.Name, string(j.Era), j.Karma, j.Interventions, j.Language)
	return n.line(ctx, "judgement", prompt, emptyJudgement(j.Language), FallbackJudgement(j.Language))
}

// LifeOutcome narrates the consequence of a life choice.
func (n *Narrator) LifeOutcome(ctx context.Context, era civ.Era, role life.RoleID, action string, lang i18n.Language) string {
	prompt := ai.OutcomePrompt(string(era), string(role), action, lang)
	return n.line(ctx, "outcome", prompt, emptyOutcome(lang), FallbackOutcome(lang))
}

// LifeScenario generates one life beat. Malformed output yields FallbackScenario.
func (n *Narrator) LifeScenario(ctx context.Context, era civ.Era, role life.RoleID, age int, lang i18n.Language) life.Scenario {
	start := time.Now()
	prompt := ai.ScenarioPrompt(string(era), string(role), age, n.genre(), lang)
	raw, err := n.complete(ctx, prompt, 256, "json")
	if err != nil {
		if !errors.Is(err, errUnavailable) {
			n.logger.Warnf("scenario narration failed, using fallback: %v", err)
		}
		n.metrics.RecordNarrative(true, time.Since(start))
		return FallbackScenario(lang)
	}
	s, err := ParseScenario(raw)
	if err != nil {
		n.logger.Warnf("scenario output rejected, using fallback: %v", err)
		n.metrics.RecordNarrative(true, time.Since(start))
		return FallbackScenario(lang)
	}
	n.metrics.RecordNarrative(false, time.Since(start))
	return s
}

var _ Provider = (*Narrator)(nil)
