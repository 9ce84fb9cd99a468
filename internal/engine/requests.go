package engine

import (
	"context"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/i18n"
)

// RequestKind selects the narrative call.
type RequestKind string

const (
	RequestEraQuote  RequestKind = "era_quote"
	RequestJudgement RequestKind = "judgement"
	RequestScenario  RequestKind = "scenario"
	RequestOutcome   RequestKind = "outcome"
)

// Tag identifies the state a request was issued from. Epoch changes on every
// start and restart, LifeEpoch on every descent, Beat on every life request.
type Tag struct {
	Epoch     uint64 `json:"epoch"`
	LifeEpoch uint64 `json:"life_epoch"`
	Beat      uint64 `json:"beat"`
}

// Request is a narrative call the session wants made.
type Request struct {
	Tag
	Kind        RequestKind
	Era         civ.Era
	Role        life.RoleID
	Age         int
	Action      string
	Language    i18n.Language
	Judgement   narrative.Judgement
	Speculative bool
}

// Completion is the settled result of a Request.
type Completion struct {
	Request  Request
	Text     string
	Scenario life.Scenario
	// Failed marks a request that did not run to completion. Its content is
	// still filled with fallbacks.
	Failed bool
}

// Fulfil runs a request against the provider. It never panics: a panicking
// provider yields a failed completion carrying fallback content.
func Fulfil(ctx context.Context, p narrative.Provider, req Request) (c Completion) {
	c.Request = req
	defer func() {
		if r := recover(); r != nil {
			c = fallbackCompletion(req)
			c.Failed = true
		}
	}()

	switch req.Kind {
	case RequestEraQuote:
		c.Text = p.EraTransitionQuote(ctx, req.Era, req.Language)
	case RequestJudgement:
		c.Text = p.FinalJudgement(ctx, req.Judgement)
	case RequestScenario:
		c.Scenario = p.LifeScenario(ctx, req.Era, req.Role, req.Age, req.Language)
		if !c.Scenario.Valid() {
			c.Scenario = narrative.FallbackScenario(req.Language)
		}
	case RequestOutcome:
		c.Text = p.LifeOutcome(ctx, req.Era, req.Role, req.Action, req.Language)
	}
	return c
}

func fallbackCompletion(req Request) Completion {
	c := Completion{Request: req}
	switch req.Kind {
	case RequestEraQuote:
		c.Text = narrative.FallbackQuote(req.Language)
	case RequestJudgement:
		c.Text = narrative.FallbackJudgement(req.Judgement.Language)
	case RequestScenario:
		c.Scenario = narrative.FallbackScenario(req.Language)
	case RequestOutcome:
		c.Text = narrative.FallbackOutcome(req.Language)
	}
	return c
}
