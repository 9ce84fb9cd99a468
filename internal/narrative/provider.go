// Package narrative supplies flavor text to the observer core.
//
// Every Provider method is total: collaborator failures are absorbed here and
// replaced by fixed localized fallback content, so callers never branch on
// errors.
package narrative

import (
	"context"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/platform/i18n"
)

// Judgement carries the facts a final verdict is based on.
type Judgement struct {
	Name          string
	Era           civ.Era
	Karma         int
	Interventions int
	Language      i18n.Language
}

// Provider turns small structured requests into text. Implementations never
// fail and must be safe for concurrent use.
type Provider interface {
	EraTransitionQuote(ctx context.Context, era civ.Era, lang i18n.Language) string
	FinalJudgement(ctx context.Context, j Judgement) string
	LifeScenario(ctx context.Context, era civ.Era, role life.RoleID, age int, lang i18n.Language) life.Scenario
	LifeOutcome(ctx context.Context, era civ.Era, role life.RoleID, action string, lang i18n.Language) string
}

// Static answers every call with fallback content. It is the offline provider.
type Static struct{}

func (Static) EraTransitionQuote(_ context.Context, _ civ.Era, lang i18n.Language) string {
	return FallbackQuote(lang)
}

func (Static) FinalJudgement(_ context.Context, j Judgement) string {
	return FallbackJudgement(j.Language)
}

func (Static) LifeScenario(_ context.Context, _ civ.Era, _ life.RoleID, _ int, lang i18n.Language) life.Scenario {
	return FallbackScenario(lang)
}

func (Static) LifeOutcome(_ context.Context, _ civ.Era, _ life.RoleID, _ string, lang i18n.Language) string {
	return FallbackOutcome(lang)
}

var _ Provider = Static{}
