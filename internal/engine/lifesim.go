package engine

import (
	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/life"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/i18n"
)

// LifePhase is the state of an inhabited life.
type LifePhase string

const (
	LifeSelect     LifePhase = "select"
	LifePlaying    LifePhase = "playing"
	LifeReflection LifePhase = "reflection"
	LifeSummary    LifePhase = "summary"
)

type prefetchState int

const (
	prefetchNone prefetchState = iota
	prefetchPending
	prefetchSettled
	prefetchFailed
)

// prefetch is the single speculative next-scenario handle of a life.
type prefetch struct {
	state    prefetchState
	beat     uint64
	age      int
	scenario life.Scenario
}

// LifeSim is the Walker mode state machine. It is owned by a Session and
// never touches GodState; its reward is folded in by the owner.
type LifeSim struct {
	tag      Tag
	era      civ.Era
	language i18n.Language

	phase    LifePhase
	role     life.RoleID
	age      int
	scenario life.Scenario
	outcome  string
	reward   life.Reward
	history  []string

	// awaiting is the request kind the foreground is blocked on.
	awaiting  RequestKind
	awaitBeat uint64
	awaitAge  int
	// awaitAhead marks an awaited scenario that was issued as a prefetch.
	awaitAhead bool

	next prefetch
	seq  uint64
}

// NewLifeSim opens a life in the given era. tag carries the session and life
// epochs stamped on every request.
func NewLifeSim(tag Tag, era civ.Era, lang i18n.Language) *LifeSim {
	return &LifeSim{
		tag:      tag,
		era:      era,
		language: lang,
		phase:    LifeSelect,
	}
}

// Phase returns the current phase.
func (l *LifeSim) Phase() LifePhase { return l.phase }

// Loading reports whether the foreground waits on a narrative request.
func (l *LifeSim) Loading() bool { return l.awaiting != "" }

// Age returns the current beat age. Zero before a role is chosen.
func (l *LifeSim) Age() int { return l.age }

// Reward returns the accumulated reward.
func (l *LifeSim) Reward() life.Reward { return l.reward }

// SetLanguage switches the language of future requests.
func (l *LifeSim) SetLanguage(lang i18n.Language) { l.language = lang }

func (l *LifeSim) request(kind RequestKind, age int) Request {
	l.seq++
	tag := l.tag
	tag.Beat = l.seq
	return Request{
		Tag:      tag,
		Kind:     kind,
		Era:      l.era,
		Role:     l.role,
		Age:      age,
		Language: l.language,
	}
}

func (l *LifeSim) await(req Request) Request {
	l.awaiting = req.Kind
	l.awaitBeat = req.Beat
	l.awaitAge = req.Age
	l.awaitAhead = false
	return req
}

// SelectRole picks a role and requests the first scenario.
func (l *LifeSim) SelectRole(id life.RoleID) ([]Request, error) {
	if l.phase != LifeSelect {
		return nil, ErrWrongPhase
	}
	if l.Loading() {
		return nil, ErrBusy
	}
	if _, ok := life.FindRole(l.era, id); !ok {
		return nil, ErrInvalidRole
	}
	l.role = id
	l.age = life.StartAge
	return []Request{l.await(l.request(RequestScenario, life.StartAge))}, nil
}

// Choose credits the choice, records the beat, and issues the outcome request
// plus, when another beat follows, the speculative next scenario.
func (l *LifeSim) Choose(index int) ([]Request, error) {
	if l.phase != LifePlaying {
		return nil, ErrWrongPhase
	}
	if l.Loading() {
		return nil, ErrBusy
	}
	if index < 0 || index >= len(l.scenario.Choices) {
		return nil, ErrInvalidChoice
	}
	choice := l.scenario.Choices[index]
	l.reward = l.reward.Add(life.RewardFor(choice.Reward))
	l.history = append(l.history, life.HistoryEntry(l.age, l.scenario.Text, choice.Text))

	outcome := l.request(RequestOutcome, l.age)
	outcome.Action = choice.Text
	reqs := []Request{l.await(outcome)}

	if life.HasNextBeat(l.age) && l.next.state == prefetchNone {
		ahead := l.request(RequestScenario, l.age+life.AgeStep)
		ahead.Speculative = true
		l.next = prefetch{state: prefetchPending, beat: ahead.Beat, age: ahead.Age}
		reqs = append(reqs, ahead)
	}
	return reqs, nil
}

// Continue leaves the reflection. A settled prefetch is consumed with no new
// request; a pending one is awaited; a failed or absent one is re-requested.
func (l *LifeSim) Continue() ([]Request, error) {
	if l.phase != LifeReflection {
		return nil, ErrWrongPhase
	}
	if l.Loading() {
		return nil, ErrBusy
	}
	if !life.HasNextBeat(l.age) {
		l.next = prefetch{}
		l.phase = LifeSummary
		return nil, nil
	}

	next := l.next
	l.next = prefetch{}
	switch next.state {
	case prefetchSettled:
		l.enterBeat(next.age, next.scenario)
		return nil, nil
	case prefetchPending:
		l.awaiting = RequestScenario
		l.awaitBeat = next.beat
		l.awaitAge = next.age
		l.awaitAhead = true
		return nil, nil
	default:
		return []Request{l.await(l.request(RequestScenario, l.age+life.AgeStep))}, nil
	}
}

// Finish closes a summarized life and returns its reward.
func (l *LifeSim) Finish() (life.Reward, error) {
	if l.phase != LifeSummary {
		return life.Reward{}, ErrWrongPhase
	}
	return l.reward, nil
}

func (l *LifeSim) enterBeat(age int, s life.Scenario) {
	l.age = age
	l.scenario = s
	l.outcome = ""
	l.phase = LifePlaying
}

// Complete applies a settled request. It reports false for results the life
// no longer waits for. A consumed prefetch that failed is replaced by one
// fresh request for the same age, which is returned.
func (l *LifeSim) Complete(c Completion) ([]Request, bool) {
	req := c.Request
	if req.LifeEpoch != l.tag.LifeEpoch || req.Epoch != l.tag.Epoch {
		return nil, false
	}
	if req.Kind == RequestScenario && !c.Scenario.Valid() {
		c.Scenario = narrative.FallbackScenario(l.language)
	}

	if l.awaiting != "" && req.Beat == l.awaitBeat && req.Kind == l.awaiting {
		ahead := l.awaitAhead
		l.awaiting = ""
		l.awaitAhead = false
		switch req.Kind {
		case RequestScenario:
			if ahead && c.Failed {
				return []Request{l.await(l.request(RequestScenario, l.awaitAge))}, true
			}
			l.enterBeat(l.awaitAge, c.Scenario)
		case RequestOutcome:
			l.outcome = c.Text
			l.phase = LifeReflection
		}
		return nil, true
	}

	if req.Kind == RequestScenario && l.next.state == prefetchPending && req.Beat == l.next.beat {
		if c.Failed {
			l.next.state = prefetchFailed
			return nil, true
		}
		l.next.state = prefetchSettled
		l.next.scenario = c.Scenario
		return nil, true
	}
	return nil, false
}

// LifeView is the read-only projection of a life.
type LifeView struct {
	Phase     LifePhase      `json:"phase"`
	Era       civ.Era        `json:"era"`
	Roles     []life.Role    `json:"roles,omitempty"`
	Role      life.RoleID    `json:"role,omitempty"`
	Age       int            `json:"age"`
	Scenario  *life.Scenario `json:"scenario,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	Loading   bool           `json:"loading"`
	Karma     int            `json:"karma"`
	Knowledge float64        `json:"knowledge"`
	History   []string       `json:"history"`
}

// View projects the life for presentation.
func (l *LifeSim) View() *LifeView {
	v := &LifeView{
		Phase:     l.phase,
		Era:       l.era,
		Role:      l.role,
		Age:       l.age,
		Outcome:   l.outcome,
		Loading:   l.Loading(),
		Karma:     l.reward.Karma,
		Knowledge: l.reward.Knowledge,
		History:   append([]string(nil), l.history...),
	}
	if l.phase == LifeSelect {
		v.Roles = life.RolesFor(l.era)
	}
	if l.phase == LifePlaying || l.phase == LifeReflection {
		s := l.scenario
		s.Choices = append([]life.Choice(nil), l.scenario.Choices...)
		v.Scenario = &s
	}
	return v
}
