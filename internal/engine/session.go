package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/domain/power"
	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/i18n"
)

// Phase is the top-level session state.
type Phase string

const (
	PhaseIntro   Phase = "intro"
	PhasePlaying Phase = "playing"
	PhaseEnding  Phase = "ending"
)

// Mode is the Playing submode.
type Mode string

const (
	ModeGod    Mode = "god"
	ModeWalker Mode = "walker"
)

// ActionType names a player action.
type ActionType string

const (
	ActionStart          ActionType = "start"
	ActionSetLanguage    ActionType = "set_language"
	ActionSetSpeed       ActionType = "set_speed"
	ActionIntervene      ActionType = "intervene"
	ActionRequestDescent ActionType = "request_descent"
	ActionConfirmDescent ActionType = "confirm_descent"
	ActionCancelDescent  ActionType = "cancel_descent"
	ActionSelectRole     ActionType = "select_role"
	ActionChoose         ActionType = "choose"
	ActionContinue       ActionType = "continue"
	ActionFinishLife     ActionType = "finish_life"
	ActionRestart        ActionType = "restart"
)

// Action is a discrete player input. Only the fields of its type are read.
type Action struct {
	Type     ActionType  `json:"type"`
	Name     string      `json:"name,omitempty"`
	Language string      `json:"language,omitempty"`
	Speed    float64     `json:"speed,omitempty"`
	Power    power.ID    `json:"power,omitempty"`
	Role     life.RoleID `json:"role,omitempty"`
	Choice   int         `json:"choice,omitempty"`
}

// Effects are what a transition asks the runtime to do.
type Effects struct {
	Requests []Request
	Events   []events.GameEvent
}

func (e *Effects) emit(t events.EventType, runID string, payload any) {
	e.Events = append(e.Events, events.GameEvent{
		Type:    t,
		RunID:   runID,
		ActorID: "OBSERVER",
		Payload: payload,
	})
}

// MaxLogEntries bounds the rolling log.
const MaxLogEntries = 3

type banner struct {
	text  string
	until time.Time
}

// Session is the single owner of GodState and the active LifeSim. It is not
// safe for concurrent use; the Engine serializes access.
type Session struct {
	tuning config.Tuning
	newID  func() string

	epoch     uint64
	lifeEpoch uint64
	runID     string
	legacy    string

	phase    Phase
	mode     Mode
	language i18n.Language
	god      civ.GodState

	timeSpeed float64
	dampUntil time.Time

	descentRequested bool
	life             *LifeSim

	banner      banner
	visual      power.ID
	visualUntil time.Time
	logs        []string

	rarity    civ.Rarity
	judgement string
	judged    bool
}

// NewSession returns a session in Intro.
func NewSession(tuning config.Tuning, lang i18n.Language) *Session {
	if !lang.Valid() {
		lang = i18n.Default
	}
	return &Session{
		tuning:    tuning,
		newID:     uuid.NewString,
		phase:     PhaseIntro,
		mode:      ModeGod,
		language:  lang,
		timeSpeed: 1,
	}
}

// Phase returns the top-level state.
func (s *Session) Phase() Phase { return s.phase }

// Mode returns the Playing submode.
func (s *Session) Mode() Mode { return s.mode }

// God returns a copy of the root aggregate.
func (s *Session) God() civ.GodState { return s.god }

// TimeSpeed returns the active speed multiplier.
func (s *Session) TimeSpeed() float64 { return s.timeSpeed }

// Ticking reports whether the periodic tick must run.
func (s *Session) Ticking() bool { return s.phase == PhasePlaying }

// RunID identifies the current run. Empty in Intro.
func (s *Session) RunID() string { return s.runID }

func (s *Session) text(key string, args ...any) string {
	return i18n.Text(s.language, key, args...)
}

func (s *Session) addLog(msg string) {
	s.logs = append([]string{msg}, s.logs...)
	if len(s.logs) > MaxLogEntries {
		s.logs = s.logs[:MaxLogEntries]
	}
}

func (s *Session) tag() Tag {
	return Tag{Epoch: s.epoch, LifeEpoch: s.lifeEpoch}
}

// Apply reduces a player action. Rejections return an error and leave the
// session unchanged.
func (s *Session) Apply(a Action, now time.Time) (Effects, error) {
	switch a.Type {
	case ActionStart:
		return s.start(a, now)
	case ActionSetLanguage:
		return s.setLanguage(a)
	case ActionSetSpeed:
		return s.setSpeed(a, now)
	case ActionIntervene:
		return s.intervene(a, now)
	case ActionRequestDescent:
		return s.requestDescent()
	case ActionConfirmDescent:
		return s.confirmDescent()
	case ActionCancelDescent:
		return s.cancelDescent()
	case ActionSelectRole, ActionChoose, ActionContinue, ActionFinishLife:
		return s.applyLife(a)
	case ActionRestart:
		return s.restart()
	default:
		return Effects{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}

func (s *Session) start(a Action, now time.Time) (Effects, error) {
	var fx Effects
	if s.phase != PhaseIntro {
		return fx, ErrWrongPhase
	}
	if a.Language != "" {
		s.language = i18n.Parse(a.Language)
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = s.text("observer")
	}

	s.epoch++
	s.runID = s.newID()
	s.legacy = legacyCode(s.runID)
	s.god = civ.NewGodState(name, now)
	s.phase = PhasePlaying
	s.mode = ModeGod
	s.timeSpeed = 1
	s.dampUntil = time.Time{}
	s.descentRequested = false
	s.life = nil
	s.banner = banner{}
	s.visual = ""
	s.logs = nil
	s.rarity = ""
	s.judgement = ""
	s.judged = false
	s.addLog(s.text("log_start"))

	fx.emit(events.EventTypeRunStarted, s.runID, map[string]any{
		"name":     name,
		"language": s.language,
	})
	return fx, nil
}

func legacyCode(runID string) string {
	code := strings.ReplaceAll(runID, "-", "")
	if len(code) > 8 {
		code = code[:8]
	}
	return strings.ToUpper(code)
}

func (s *Session) setLanguage(a Action) (Effects, error) {
	var fx Effects
	s.language = i18n.Parse(a.Language)
	if s.life != nil {
		s.life.SetLanguage(s.language)
	}
	fx.emit(events.EventTypeLanguageChanged, s.runID, s.language)
	return fx, nil
}

func (s *Session) damped(now time.Time) bool {
	return !s.dampUntil.IsZero() && now.Before(s.dampUntil)
}

func (s *Session) setSpeed(a Action, now time.Time) (Effects, error) {
	var fx Effects
	if s.phase != PhasePlaying {
		return fx, ErrWrongPhase
	}
	if s.mode != ModeGod {
		return fx, ErrWrongMode
	}
	if !s.tuning.AllowsSpeed(a.Speed) {
		return fx, fmt.Errorf("%w: %v", ErrInvalidSpeed, a.Speed)
	}
	if s.damped(now) {
		return fx, fmt.Errorf("%w: damped after era transition", ErrInvalidSpeed)
	}
	s.timeSpeed = a.Speed
	fx.emit(events.EventTypeTimeSpeed, s.runID, a.Speed)
	return fx, nil
}

func (s *Session) intervene(a Action, now time.Time) (Effects, error) {
	var fx Effects
	if s.phase != PhasePlaying {
		return fx, ErrWrongPhase
	}
	if s.mode != ModeGod {
		return fx, ErrWrongMode
	}
	next, p, err := ApplyIntervention(s.god, a.Power)
	if err != nil {
		return fx, err
	}
	s.god = next

	s.banner = banner{
		text:  s.text("intervention_msg") + ": " + strings.ToUpper(string(p.ID)),
		until: now.Add(s.tuning.Notice()),
	}
	s.visual = p.ID
	s.visualUntil = s.banner.until
	s.addLog(s.text("log_intervention", string(p.ID)))

	fx.emit(events.EventTypeIntervention, s.runID, map[string]any{
		"power":    p.ID,
		"category": p.Category,
		"cost":     p.Cost,
		"karma":    s.god.Karma,
	})
	return fx, nil
}

func (s *Session) requestDescent() (Effects, error) {
	if s.phase != PhasePlaying {
		return Effects{}, ErrWrongPhase
	}
	if s.mode != ModeGod {
		return Effects{}, ErrWrongMode
	}
	s.descentRequested = true
	return Effects{}, nil
}

func (s *Session) cancelDescent() (Effects, error) {
	if s.phase != PhasePlaying {
		return Effects{}, ErrWrongPhase
	}
	if !s.descentRequested {
		return Effects{}, ErrDescentNotRequested
	}
	s.descentRequested = false
	return Effects{}, nil
}

func (s *Session) confirmDescent() (Effects, error) {
	var fx Effects
	if s.phase != PhasePlaying {
		return fx, ErrWrongPhase
	}
	if s.mode != ModeGod {
		return fx, ErrWrongMode
	}
	if !s.descentRequested {
		return fx, ErrDescentNotRequested
	}
	s.descentRequested = false
	s.mode = ModeWalker
	s.lifeEpoch++
	s.life = NewLifeSim(s.tag(), s.god.CurrentEra, s.language)
	s.addLog(s.text("mode_descend"))

	fx.emit(events.EventTypeDescent, s.runID, map[string]any{"era": s.god.CurrentEra})
	return fx, nil
}

func (s *Session) applyLife(a Action) (Effects, error) {
	var fx Effects
	if s.phase != PhasePlaying {
		return fx, ErrWrongPhase
	}
	if s.mode != ModeWalker || s.life == nil {
		return fx, ErrWrongMode
	}

	var (
		reqs []Request
		err  error
	)
	switch a.Type {
	case ActionSelectRole:
		reqs, err = s.life.SelectRole(a.Role)
	case ActionChoose:
		reqs, err = s.life.Choose(a.Choice)
		if err == nil {
			fx.emit(events.EventTypeLifeChoice, s.runID, map[string]any{
				"age":    s.life.Age(),
				"choice": a.Choice,
			})
		}
	case ActionContinue:
		reqs, err = s.life.Continue()
	case ActionFinishLife:
		return s.finishLife()
	}
	if err != nil {
		return Effects{}, err
	}
	fx.Requests = reqs
	return fx, nil
}

// finishLife folds the life reward into GodState and returns to God mode.
func (s *Session) finishLife() (Effects, error) {
	var fx Effects
	reward, err := s.life.Finish()
	if err != nil {
		return fx, err
	}
	s.god.Karma = min(civ.MaxKarma, s.god.Karma+reward.Karma)
	s.god.Resources.Knowledge += reward.Knowledge
	s.life = nil
	s.mode = ModeGod
	s.addLog(s.text("mode_ascend"))
	s.addLog(s.text("butterfly_effect"))

	fx.emit(events.EventTypeAscent, s.runID, reward)
	return fx, nil
}

func (s *Session) restart() (Effects, error) {
	var fx Effects
	if s.phase != PhaseEnding {
		return fx, ErrWrongPhase
	}
	prev := s.runID
	s.epoch++
	s.phase = PhaseIntro
	s.mode = ModeGod
	s.runID = ""
	s.legacy = ""
	s.god = civ.GodState{}
	s.timeSpeed = 1
	s.dampUntil = time.Time{}
	s.descentRequested = false
	s.life = nil
	s.banner = banner{}
	s.visual = ""
	s.logs = nil
	s.rarity = ""
	s.judgement = ""
	s.judged = false

	fx.emit(events.EventTypeRunReset, prev, nil)
	return fx, nil
}

// Tick runs one period of the simulation. The karma check runs in both
// submodes; economy and era gate only in God mode.
func (s *Session) Tick(now time.Time) Effects {
	var fx Effects
	if s.phase != PhasePlaying {
		return fx
	}
	if !s.dampUntil.IsZero() && !now.Before(s.dampUntil) {
		s.dampUntil = time.Time{}
		s.timeSpeed = 1
	}

	if s.god.Karma <= 0 {
		s.enterEnding(&fx)
		return fx
	}
	if s.mode == ModeWalker {
		return fx
	}

	s.god.Resources = AdvanceEconomy(s.god.Resources, s.god.CurrentEra, s.timeSpeed)

	next, tr := CheckProgression(s.god)
	if tr == nil {
		return fx
	}
	s.god = next
	s.timeSpeed = s.tuning.DampedTimeSpeed
	s.dampUntil = now.Add(s.tuning.EraDamp())
	s.addLog(s.text("era_leap") + ": " + string(tr.To))

	fx.Requests = append(fx.Requests, Request{
		Tag:      s.tag(),
		Kind:     RequestEraQuote,
		Era:      tr.To,
		Language: s.language,
	})
	fx.emit(events.EventTypeEraAdvanced, s.runID, tr)
	return fx
}

func (s *Session) enterEnding(fx *Effects) {
	s.phase = PhaseEnding
	s.mode = ModeGod
	s.life = nil
	s.descentRequested = false
	s.rarity = civ.RarityFor(s.god.Karma)

	fx.Requests = append(fx.Requests, Request{
		Tag:      s.tag(),
		Kind:     RequestJudgement,
		Language: s.language,
		Judgement: narrative.Judgement{
			Name:          s.god.Name,
			Era:           s.god.CurrentEra,
			Karma:         s.god.Karma,
			Interventions: s.god.InterventionCount,
			Language:      s.language,
		},
	})
	fx.emit(events.EventTypeRunEnded, s.runID, map[string]any{
		"era":           s.god.CurrentEra,
		"karma":         s.god.Karma,
		"interventions": s.god.InterventionCount,
	})
}

// Complete applies a settled narrative request. It reports false when the
// result is stale and was discarded.
func (s *Session) Complete(c Completion, now time.Time) (Effects, bool) {
	var fx Effects
	req := c.Request
	if req.Epoch != s.epoch {
		return fx, false
	}

	switch req.Kind {
	case RequestEraQuote:
		if s.phase != PhasePlaying || req.Era != s.god.CurrentEra {
			return fx, false
		}
		until := now.Add(s.tuning.Notice())
		if s.dampUntil.After(until) {
			until = s.dampUntil
		}
		s.banner = banner{text: s.text("era_leap") + ": " + c.Text, until: until}
		return fx, true

	case RequestJudgement:
		if s.phase != PhaseEnding || s.judged {
			return fx, false
		}
		s.judged = true
		s.judgement = c.Text
		fx.emit(events.EventTypeRunJudged, s.runID, civ.HistoryRecord{
			GodName:    s.god.Name,
			FinalEra:   s.god.CurrentEra,
			FinalKarma: s.god.Karma,
			TotalPop:   s.god.Resources.Population,
			Judgement:  c.Text,
			Rarity:     s.rarity,
			Timestamp:  now,
			LegacyCode: s.legacy,
		})
		return fx, true

	case RequestScenario, RequestOutcome:
		if s.life == nil || s.mode != ModeWalker {
			return fx, false
		}
		reqs, ok := s.life.Complete(c)
		fx.Requests = append(fx.Requests, reqs...)
		return fx, ok
	}
	return fx, false
}

// Snapshot is the read-only projection handed to presentation.
type Snapshot struct {
	RunID          string        `json:"run_id,omitempty"`
	Phase          Phase         `json:"phase"`
	Mode           Mode          `json:"mode"`
	Language       i18n.Language `json:"language"`
	God            civ.GodState  `json:"god"`
	EraLabel       string        `json:"era_label,omitempty"`
	TimeSpeed      float64       `json:"time_speed"`
	Damped         bool          `json:"damped"`
	Banner         string        `json:"banner,omitempty"`
	Visual         power.ID      `json:"visual,omitempty"`
	Logs           []string      `json:"logs"`
	DescentPending bool          `json:"descent_pending"`
	DescentWarning string        `json:"descent_warning,omitempty"`
	Life           *LifeView     `json:"life,omitempty"`
	Judgement      string        `json:"judgement,omitempty"`
	Rarity         civ.Rarity    `json:"rarity,omitempty"`
	LegacyCode     string        `json:"legacy_code,omitempty"`
}

// Snapshot projects the session at now. Expired banners and visual tags are
// omitted.
func (s *Session) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		RunID:          s.runID,
		Phase:          s.phase,
		Mode:           s.mode,
		Language:       s.language,
		God:            s.god,
		TimeSpeed:      s.timeSpeed,
		Damped:         s.damped(now),
		Logs:           append([]string(nil), s.logs...),
		DescentPending: s.descentRequested,
		Judgement:      s.judgement,
		Rarity:         s.rarity,
		LegacyCode:     s.legacy,
	}
	if s.god.CurrentEra.Valid() {
		snap.EraLabel = s.text("era." + string(s.god.CurrentEra))
	}
	if s.banner.text != "" && now.Before(s.banner.until) {
		snap.Banner = s.banner.text
	}
	if s.visual != "" && now.Before(s.visualUntil) {
		snap.Visual = s.visual
	}
	if s.descentRequested {
		snap.DescentWarning = s.text("descent_warning")
	}
	if s.life != nil {
		snap.Life = s.life.View()
	}
	return snap
}
