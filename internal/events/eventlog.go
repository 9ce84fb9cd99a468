// Package events provides the in-memory domain event log of the observer core.
// It is an immutable history of what happened in a run; nothing is ever
// rebuilt from it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a domain event.
type EventType string

const (
	EventTypeRunStarted      EventType = "RUN_STARTED"
	EventTypeRunReset        EventType = "RUN_RESET"
	EventTypeTimeSpeed       EventType = "TIME_SPEED_CHANGED"
	EventTypeEraAdvanced     EventType = "ERA_ADVANCED"
	EventTypeIntervention    EventType = "INTERVENTION"
	EventTypeDescent         EventType = "DESCENT"
	EventTypeLifeChoice      EventType = "LIFE_CHOICE"
	EventTypeAscent          EventType = "ASCENT"
	EventTypeRunEnded        EventType = "RUN_ENDED"
	EventTypeRunJudged       EventType = "RUN_JUDGED"
	EventTypeLanguageChanged EventType = "LANGUAGE_CHANGED"
)

// GameEvent represents an immutable record of something that happened.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	ActorID   string      `json:"actor_id"` // Who caused it
	Payload   interface{} `json:"payload"`  // Event-specific data
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of domain events.
type EventLog struct {
	mu         sync.RWMutex
	events     []GameEvent
	persisters []EventPersister
	onError    func(GameEvent, error)
}

// NewEventLog creates a new event log with optional persisters.
func NewEventLog(persisters ...EventPersister) *EventLog {
	return &EventLog{
		events:     make([]GameEvent, 0),
		persisters: persisters,
	}
}

// OnPersistError installs a hook for persister failures.
func (el *EventLog) OnPersistError(fn func(GameEvent, error)) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onError = fn
}

// Append adds a new event to the log and writes it through to every persister
// in order. Missing IDs and timestamps are filled in.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	persisters := el.persisters
	onError := el.onError
	el.mu.Unlock()

	for _, p := range persisters {
		if err := p.Append(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
	return event
}

// GetByType returns all events of a given type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetByRun returns all events of a single run.
func (el *EventLog) GetByRun(runID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of recorded events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
