package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/domain/power"
	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/i18n"
)

func mustApply(t *testing.T, s *Session, a Action) Effects {
	t.Helper()
	fx, err := s.Apply(a, testNow)
	if err != nil {
		t.Fatalf("Apply(%s): %v", a.Type, err)
	}
	return fx
}

func countEvents(evs []events.GameEvent, typ events.EventType) int {
	n := 0
	for _, e := range evs {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestStartResetsState(t *testing.T) {
	s := newTestSession()
	fx := mustApply(t, s, Action{Type: ActionStart})

	g := s.God()
	if s.Phase() != PhasePlaying || s.Mode() != ModeGod {
		t.Fatalf("Expected Playing(God), got %s(%s)", s.Phase(), s.Mode())
	}
	if g.Name != "Observer" || g.Karma != 1000 || g.CurrentEra != civ.StoneAge {
		t.Errorf("Unexpected initial state %+v", g)
	}
	if g.Resources != (civ.Resources{Food: 100, Population: 10}) {
		t.Errorf("Unexpected initial resources %+v", g.Resources)
	}
	if countEvents(fx.Events, events.EventTypeRunStarted) != 1 {
		t.Errorf("Expected a run started event")
	}
	if _, err := s.Apply(Action{Type: ActionStart}, testNow); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Expected ErrWrongPhase on double start, got %v", err)
	}

	zh := NewSession(config.DefaultTuning(), i18n.Chinese)
	mustApply(t, zh, Action{Type: ActionStart, Name: "  "})
	if zh.God().Name != "观察者" {
		t.Errorf("Expected localized default name, got %q", zh.God().Name)
	}
}

func TestInterventionRejectionLeavesSessionUnchanged(t *testing.T) {
	s := startedSession()
	s.god.Karma = 40
	before := s.Snapshot(testNow)

	if _, err := s.Apply(Action{Type: ActionIntervene, Power: power.Flood}, testNow); !errors.Is(err, ErrInsufficientKarma) {
		t.Fatalf("Expected ErrInsufficientKarma, got %v", err)
	}
	if after := s.Snapshot(testNow); !reflect.DeepEqual(before, after) {
		t.Errorf("Rejected intervention changed the session")
	}
}

func TestInterventionBannerAndLog(t *testing.T) {
	s := startedSession()
	fx := mustApply(t, s, Action{Type: ActionIntervene, Power: power.Bloom})

	if countEvents(fx.Events, events.EventTypeIntervention) != 1 {
		t.Errorf("Expected an intervention event")
	}
	snap := s.Snapshot(testNow.Add(time.Second))
	if snap.Banner != "REALITY ALTERED: BLOOM" || snap.Visual != power.Bloom {
		t.Errorf("Unexpected banner %q visual %q", snap.Banner, snap.Visual)
	}
	if snap.Logs[0] != "[INTERVENTION] bloom initiated." {
		t.Errorf("Unexpected newest log %q", snap.Logs[0])
	}
	if later := s.Snapshot(testNow.Add(3 * time.Second)); later.Banner != "" || later.Visual != "" {
		t.Errorf("Expected the banner to expire, got %q", later.Banner)
	}
	if snap.God.Karma != 850 || snap.God.InterventionCount != 1 {
		t.Errorf("Unexpected karma %d count %d", snap.God.Karma, snap.God.InterventionCount)
	}
}

func TestRollingLogKeepsThreeNewestFirst(t *testing.T) {
	s := startedSession()
	for _, id := range []power.ID{power.Flood, power.Plague, power.Meteor} {
		mustApply(t, s, Action{Type: ActionIntervene, Power: id})
	}
	logs := s.Snapshot(testNow).Logs
	if len(logs) != MaxLogEntries {
		t.Fatalf("Expected %d entries, got %v", MaxLogEntries, logs)
	}
	if logs[0] != "[INTERVENTION] meteor initiated." || logs[2] != "[INTERVENTION] flood initiated." {
		t.Errorf("Unexpected order %v", logs)
	}
}

func TestEraAdvancesToBronzeExactlyOnce(t *testing.T) {
	s := startedSession()
	mustApply(t, s, Action{Type: ActionIntervene, Power: power.Tech})

	advances := 0
	now := testNow
	for i := 0; i < 5000 && s.God().CurrentEra == civ.StoneAge; i++ {
		now = now.Add(100 * time.Millisecond)
		fx := s.Tick(now)
		advances += countEvents(fx.Events, events.EventTypeEraAdvanced)
	}
	g := s.God()
	if g.CurrentEra != civ.BronzeAge || advances != 1 {
		t.Fatalf("Expected one advance to BronzeAge, got %s after %d advances", g.CurrentEra, advances)
	}
	if g.Resources.Population < 50 || g.Resources.Knowledge < 100 {
		t.Errorf("Advanced below threshold: %+v", g.Resources)
	}
}

func TestEraTransitionDampsAndRestoresSpeed(t *testing.T) {
	s := startedSession()
	p := &scriptedProvider{}
	mustApply(t, s, Action{Type: ActionSetSpeed, Speed: 5})
	s.god.Resources = civ.Resources{Food: 1e6, Population: 60, Knowledge: 150}

	fx := s.Tick(testNow)
	if len(fx.Requests) != 1 || fx.Requests[0].Kind != RequestEraQuote || fx.Requests[0].Era != civ.BronzeAge {
		t.Fatalf("Expected a quote request for BronzeAge, got %+v", fx.Requests)
	}
	if s.TimeSpeed() != 0.1 {
		t.Errorf("Expected damped speed, got %v", s.TimeSpeed())
	}
	if _, err := s.Apply(Action{Type: ActionSetSpeed, Speed: 10}, testNow.Add(time.Second)); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("Expected speed changes to be refused while damped, got %v", err)
	}

	Resolve(context.Background(), s, p, fx, testNow.Add(time.Second))
	snap := s.Snapshot(testNow.Add(4 * time.Second))
	if snap.Banner != "CIVILIZATION LEAP: Welcome to BronzeAge" {
		t.Errorf("Unexpected era banner %q", snap.Banner)
	}

	s.Tick(testNow.Add(5 * time.Second))
	if s.TimeSpeed() != 1 {
		t.Errorf("Expected speed restored to 1, got %v", s.TimeSpeed())
	}
	if s.Snapshot(testNow.Add(5 * time.Second)).Banner != "" {
		t.Errorf("Expected the era banner to close with the damp window")
	}
}

func TestSetSpeedValidation(t *testing.T) {
	s := startedSession()
	if _, err := s.Apply(Action{Type: ActionSetSpeed, Speed: 3}, testNow); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("Expected ErrInvalidSpeed, got %v", err)
	}
	mustApply(t, s, Action{Type: ActionSetSpeed, Speed: 10})
	if s.TimeSpeed() != 10 {
		t.Errorf("Expected speed 10, got %v", s.TimeSpeed())
	}
}

func TestDescentRequiresConfirmation(t *testing.T) {
	s := startedSession()
	if _, err := s.Apply(Action{Type: ActionConfirmDescent}, testNow); !errors.Is(err, ErrDescentNotRequested) {
		t.Fatalf("Expected ErrDescentNotRequested, got %v", err)
	}
	mustApply(t, s, Action{Type: ActionRequestDescent})
	if snap := s.Snapshot(testNow); !snap.DescentPending || snap.DescentWarning == "" || s.Mode() != ModeGod {
		t.Fatalf("Expected a pending warning while still in God mode")
	}
	mustApply(t, s, Action{Type: ActionCancelDescent})
	if _, err := s.Apply(Action{Type: ActionConfirmDescent}, testNow); !errors.Is(err, ErrDescentNotRequested) {
		t.Errorf("Expected cancel to clear the request, got %v", err)
	}

	mustApply(t, s, Action{Type: ActionRequestDescent})
	mustApply(t, s, Action{Type: ActionConfirmDescent})
	if s.Mode() != ModeWalker || s.Snapshot(testNow).Life == nil {
		t.Fatalf("Expected Walker mode with a life")
	}
	if _, err := s.Apply(Action{Type: ActionIntervene, Power: power.Flood}, testNow); !errors.Is(err, ErrWrongMode) {
		t.Errorf("Expected interventions to be refused in Walker mode, got %v", err)
	}
	if _, err := s.Apply(Action{Type: ActionRequestDescent}, testNow); !errors.Is(err, ErrWrongMode) {
		t.Errorf("Expected no second descent, got %v", err)
	}
}

func TestWalkerFreezesEconomy(t *testing.T) {
	s := startedSession()
	mustApply(t, s, Action{Type: ActionRequestDescent})
	mustApply(t, s, Action{Type: ActionConfirmDescent})
	before := s.God().Resources

	for i := 0; i < 10; i++ {
		s.Tick(testNow.Add(time.Duration(i) * time.Second))
	}
	if s.God().Resources != before {
		t.Errorf("Economy moved in Walker mode: %+v", s.God().Resources)
	}
}

// live plays a whole life through the session, always picking choice.
func live(t *testing.T, s *Session, p *scriptedProvider, choice int) {
	t.Helper()
	ctx := context.Background()
	mustApply(t, s, Action{Type: ActionRequestDescent})
	mustApply(t, s, Action{Type: ActionConfirmDescent})
	Resolve(ctx, s, p, mustApply(t, s, Action{Type: ActionSelectRole, Role: life.RoleLeader}), testNow)
	for s.life.Phase() != LifeSummary {
		Resolve(ctx, s, p, mustApply(t, s, Action{Type: ActionChoose, Choice: choice}), testNow)
		Resolve(ctx, s, p, mustApply(t, s, Action{Type: ActionContinue}), testNow)
	}
}

func TestFinishLifeFoldsReward(t *testing.T) {
	p := &scriptedProvider{}
	s := startedSession()
	mustApply(t, s, Action{Type: ActionIntervene, Power: power.Bloom})
	live(t, s, p, 0)

	fx := mustApply(t, s, Action{Type: ActionFinishLife})
	if countEvents(fx.Events, events.EventTypeAscent) != 1 {
		t.Errorf("Expected an ascent event")
	}
	if s.Mode() != ModeGod || s.Snapshot(testNow).Life != nil {
		t.Fatalf("Expected God mode with the life discarded")
	}
	if got := s.God().Karma; got != 1000 {
		t.Errorf("Expected karma min(1000, 850+250) = 1000, got %d", got)
	}
	logs := s.Snapshot(testNow).Logs
	if logs[0] != "Timeline shifted by mortal actions." || logs[1] != "ASCEND" {
		t.Errorf("Unexpected logs %v", logs)
	}

	knowledge := s.God().Resources.Knowledge
	live(t, s, p, 1)
	mustApply(t, s, Action{Type: ActionFinishLife})
	if got := s.God().Resources.Knowledge; got != knowledge+1000 {
		t.Errorf("Expected knowledge %v, got %v", knowledge+1000, got)
	}
}

func TestSettledPrefetchIssuesNoSecondCall(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{}
	s := startedSession()
	mustApply(t, s, Action{Type: ActionRequestDescent})
	mustApply(t, s, Action{Type: ActionConfirmDescent})
	Resolve(ctx, s, p, mustApply(t, s, Action{Type: ActionSelectRole, Role: life.RoleWorker}), testNow)
	Resolve(ctx, s, p, mustApply(t, s, Action{Type: ActionChoose, Choice: 0}), testNow)

	_, _, scenarios, outcomes := p.calls()
	if scenarios != 2 || outcomes != 1 {
		t.Fatalf("Expected first scenario plus prefetch, got %d scenarios %d outcomes", scenarios, outcomes)
	}
	fx := mustApply(t, s, Action{Type: ActionContinue})
	Resolve(ctx, s, p, fx, testNow)

	if _, _, after, _ := p.calls(); after != 2 || len(fx.Requests) != 0 {
		t.Errorf("Expected no additional scenario call, got %d", after)
	}
	if v := s.Snapshot(testNow).Life; v.Phase != LifePlaying || v.Age != 25 {
		t.Errorf("Expected Playing at 25, got %s at %d", v.Phase, v.Age)
	}
}

func TestSessionForwardsPrefetchRetry(t *testing.T) {
	s := startedSession()
	mustApply(t, s, Action{Type: ActionRequestDescent})
	mustApply(t, s, Action{Type: ActionConfirmDescent})
	first := mustApply(t, s, Action{Type: ActionSelectRole, Role: life.RoleLeader}).Requests[0]
	if _, ok := s.Complete(Completion{Request: first, Scenario: testScenario()}, testNow); !ok {
		t.Fatalf("Expected the first scenario to be accepted")
	}
	reqs := mustApply(t, s, Action{Type: ActionChoose, Choice: 0}).Requests
	if len(reqs) != 2 {
		t.Fatalf("Expected outcome and prefetch requests, got %+v", reqs)
	}
	s.Complete(Completion{Request: reqs[0], Text: "done"}, testNow)
	mustApply(t, s, Action{Type: ActionContinue})

	fx, ok := s.Complete(Completion{Request: reqs[1], Scenario: testScenario(), Failed: true}, testNow)
	if !ok || len(fx.Requests) != 1 || fx.Requests[0].Age != 25 {
		t.Errorf("Expected the session to carry one retry for age 25, got %+v %v", fx.Requests, ok)
	}
}

func TestKarmaExhaustionEndsRunWithJudgement(t *testing.T) {
	p := &scriptedProvider{}
	s := startedSession()
	for i := 0; i < 5; i++ {
		mustApply(t, s, Action{Type: ActionIntervene, Power: power.Tech})
	}
	if s.God().Karma != 0 || s.Phase() != PhasePlaying {
		t.Fatalf("Expected karma 0 and still Playing before the tick")
	}

	fx := s.Tick(testNow)
	if s.Phase() != PhaseEnding || s.Ticking() {
		t.Fatalf("Expected Ending with the ticker stopped")
	}
	evs := Resolve(context.Background(), s, p, fx, testNow)
	if p.lastJudge.Interventions != 5 || p.lastJudge.Name != "Ada" {
		t.Errorf("Expected the real intervention count, got %+v", p.lastJudge)
	}

	var rec civ.HistoryRecord
	for _, e := range evs {
		if e.Type == events.EventTypeRunJudged {
			rec = e.Payload.(civ.HistoryRecord)
		}
	}
	if rec.Judgement != "Judged Ada" || rec.Rarity != civ.RarityLost || rec.LegacyCode != "0F3A9C2E" {
		t.Errorf("Unexpected history record %+v", rec)
	}
	snap := s.Snapshot(testNow)
	if snap.Judgement != "Judged Ada" || snap.Rarity != civ.RarityLost {
		t.Errorf("Unexpected ending snapshot %+v", snap)
	}

	if fx := s.Tick(testNow.Add(time.Second)); len(fx.Events) != 0 || len(fx.Requests) != 0 {
		t.Errorf("Ending must not tick")
	}
}

func TestKarmaExhaustionInWalkerMode(t *testing.T) {
	s := startedSession()
	s.god.Karma = 0
	mustApply(t, s, Action{Type: ActionRequestDescent})
	mustApply(t, s, Action{Type: ActionConfirmDescent})
	lifeReqs := mustApply(t, s, Action{Type: ActionSelectRole, Role: life.RoleLeader}).Requests

	s.Tick(testNow)
	if s.Phase() != PhaseEnding || s.Mode() != ModeGod || s.Snapshot(testNow).Life != nil {
		t.Fatalf("Expected Ending with the life discarded")
	}
	if _, ok := s.Complete(Completion{Request: lifeReqs[0], Scenario: testScenario()}, testNow); ok {
		t.Errorf("Expected the stale scenario to be discarded")
	}
}

func TestRestartInvalidatesOutstandingRequests(t *testing.T) {
	s := startedSession()
	s.god.Karma = 0
	fx := s.Tick(testNow)

	if _, err := s.Apply(Action{Type: ActionRestart}, testNow); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if s.Phase() != PhaseIntro || s.RunID() != "" {
		t.Fatalf("Expected a clean Intro")
	}
	if _, ok := s.Complete(Completion{Request: fx.Requests[0], Text: "late"}, testNow); ok {
		t.Errorf("Expected the judgement from the old run to be discarded")
	}
	if snap := s.Snapshot(testNow); snap.Judgement != "" || len(snap.Logs) != 0 {
		t.Errorf("Restart left state behind: %+v", snap)
	}
	if _, err := s.Apply(Action{Type: ActionRestart}, testNow); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Expected restart only from Ending, got %v", err)
	}
}

func TestStaleQuoteForPreviousEra(t *testing.T) {
	s := startedSession()
	s.god.Resources = civ.Resources{Food: 1e6, Population: 60, Knowledge: 150}
	first := s.Tick(testNow).Requests[0]
	s.god.CurrentEra = civ.IronAge

	if _, ok := s.Complete(Completion{Request: first, Text: "old"}, testNow); ok {
		t.Errorf("Expected a quote for a superseded era to be discarded")
	}
}

func TestUnknownActionRejected(t *testing.T) {
	s := newTestSession()
	if _, err := s.Apply(Action{Type: "dance"}, testNow); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
	if _, err := s.Apply(Action{Type: ActionChoose}, testNow); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Expected ErrWrongPhase in Intro, got %v", err)
	}
}

func TestSetLanguageSwitchesNotices(t *testing.T) {
	s := startedSession()
	mustApply(t, s, Action{Type: ActionSetLanguage, Language: "zh-CN"})
	mustApply(t, s, Action{Type: ActionIntervene, Power: power.Flood})
	if got := s.Snapshot(testNow).Logs[0]; got != "[干预] flood 已启动。" {
		t.Errorf("Unexpected localized log %q", got)
	}
}
