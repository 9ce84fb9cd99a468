package events

import (
	"errors"
	"testing"
)

type recordingPersister struct {
	got []GameEvent
	err error
}

func (r *recordingPersister) Append(e GameEvent) error {
	r.got = append(r.got, e)
	return r.err
}

func TestAppendFillsIdentityAndWritesThrough(t *testing.T) {
	p := &recordingPersister{}
	el := NewEventLog(p)

	e := el.Append(GameEvent{Type: EventTypeRunStarted, RunID: "r1"})
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("Expected id and timestamp to be filled, got %+v", e)
	}
	el.Append(GameEvent{Type: EventTypeIntervention, RunID: "r1"})
	el.Append(GameEvent{Type: EventTypeRunStarted, RunID: "r2"})

	if len(p.got) != 3 || p.got[0].ID != e.ID {
		t.Errorf("Expected ordered write-through, got %d events", len(p.got))
	}
	if n := len(el.GetByRun("r1")); n != 2 {
		t.Errorf("Expected 2 events for r1, got %d", n)
	}
	if n := len(el.GetByType(EventTypeRunStarted)); n != 2 {
		t.Errorf("Expected 2 run starts, got %d", n)
	}
	if el.Len() != 3 {
		t.Errorf("Expected 3 events, got %d", el.Len())
	}
}

func TestPersistErrorHook(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	el := NewEventLog(p)
	var failures int
	el.OnPersistError(func(GameEvent, error) { failures++ })

	el.Append(GameEvent{Type: EventTypeRunEnded})
	if failures != 1 {
		t.Errorf("Expected one persist failure, got %d", failures)
	}
	if el.Len() != 1 {
		t.Errorf("Expected the event to stay in memory")
	}
}
