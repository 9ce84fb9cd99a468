package engine

import (
	"context"
	"sync"
	"time"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/i18n"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// scriptedProvider answers with fixed content and counts calls.
type scriptedProvider struct {
	mu         sync.Mutex
	quotes     int
	judgements int
	scenarios  int
	outcomes   int
	lastJudge  narrative.Judgement
	panicOn    RequestKind
}

func (p *scriptedProvider) EraTransitionQuote(_ context.Context, era civ.Era, _ i18n.Language) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes++
	if p.panicOn == RequestEraQuote {
		panic("quote")
	}
	return "Welcome to " + string(era)
}

func (p *scriptedProvider) FinalJudgement(_ context.Context, j narrative.Judgement) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.judgements++
	p.lastJudge = j
	return "Judged " + j.Name
}

func (p *scriptedProvider) LifeScenario(_ context.Context, _ civ.Era, _ life.RoleID, _ int, _ i18n.Language) life.Scenario {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scenarios++
	if p.panicOn == RequestScenario {
		panic("scenario")
	}
	return testScenario()
}

func (p *scriptedProvider) LifeOutcome(_ context.Context, _ civ.Era, _ life.RoleID, action string, _ i18n.Language) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes++
	return "You chose to " + action
}

func (p *scriptedProvider) calls() (quotes, judgements, scenarios, outcomes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quotes, p.judgements, p.scenarios, p.outcomes
}

func testScenario() life.Scenario {
	return life.Scenario{
		Text: "A storm gathers.",
		Choices: []life.Choice{
			{Text: "Shelter others", Reward: life.RewardKarma},
			{Text: "Read the sky", Reward: life.RewardKnowledge},
		},
	}
}

func newTestSession() *Session {
	s := NewSession(config.DefaultTuning(), i18n.English)
	s.newID = func() string { return "0f3a9c2e-1111-4222-8333-444455556666" }
	return s
}

// startedSession returns a session in Playing(God).
func startedSession() *Session {
	s := newTestSession()
	if _, err := s.Apply(Action{Type: ActionStart, Name: "Ada"}, testNow); err != nil {
		panic(err)
	}
	return s
}
