package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/events"
)

func openTestDB(t *testing.T) *Persister {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "chronicle.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPersister(db)
}

func judged(runID, code string, karma int, at time.Time) events.GameEvent {
	return events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: at,
		Type:      events.EventTypeRunJudged,
		RunID:     runID,
		ActorID:   "OBSERVER",
		Payload: civ.HistoryRecord{
			GodName:    "Ada",
			FinalEra:   civ.IronAge,
			FinalKarma: karma,
			TotalPop:   321.5,
			Judgement:  "Iron remembers.",
			Rarity:     civ.RarityFor(karma),
			Timestamp:  at,
			LegacyCode: code,
		},
	}
}

func TestPersisterFilesJudgedRuns(t *testing.T) {
	p := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := p.Append(events.GameEvent{ID: "e1", Timestamp: base, Type: events.EventTypeRunStarted, RunID: "r1", ActorID: "OBSERVER"}); err != nil {
		t.Fatalf("Append start: %v", err)
	}
	if err := p.Append(judged("r1", "AAAA1111", 0, base.Add(time.Minute))); err != nil {
		t.Fatalf("Append judged: %v", err)
	}
	if err := p.Append(judged("r2", "BBBB2222", 950, base.Add(2*time.Minute))); err != nil {
		t.Fatalf("Append judged: %v", err)
	}

	runs, err := p.Chronicle().Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r2" {
		t.Fatalf("Expected newest first, got %+v", runs)
	}
	if runs[0].Rarity != civ.RarityDivine || runs[1].Rarity != civ.RarityLost || runs[0].FinalEra != civ.IronAge {
		t.Errorf("Unexpected records %+v", runs)
	}

	rec, err := p.Chronicle().ByLegacyCode(ctx, "AAAA1111")
	if err != nil || rec == nil || rec.RunID != "r1" || rec.TotalPop != 321.5 {
		t.Errorf("ByLegacyCode = %+v, %v", rec, err)
	}
	if missing, err := p.Chronicle().ByLegacyCode(ctx, "NOPE"); err != nil || missing != nil {
		t.Errorf("Expected no record, got %+v %v", missing, err)
	}

	rows, err := NewSQLiteEventRepository(dbOf(p)).GetByRunID(ctx, "r1")
	if err != nil || len(rows) != 2 {
		t.Fatalf("Expected two events for r1, got %d %v", len(rows), err)
	}
	if rows[0].EventType != string(events.EventTypeRunStarted) {
		t.Errorf("Unexpected first event %+v", rows[0])
	}
}

func TestSaveKeepsFirstRecord(t *testing.T) {
	p := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	first := RunRecord{RunID: "r1", HistoryRecord: civ.HistoryRecord{GodName: "Ada", FinalEra: civ.StoneAge, Judgement: "one", Timestamp: at, LegacyCode: "X"}}
	second := first
	second.Judgement = "two"
	if err := p.Chronicle().Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := p.Chronicle().Save(ctx, second); err != nil {
		t.Fatalf("Save duplicate: %v", err)
	}
	runs, _ := p.Chronicle().Recent(ctx, 0)
	if len(runs) != 1 || runs[0].Judgement != "one" {
		t.Errorf("Expected the first record to win, got %+v", runs)
	}
}

func TestPersisterRejectsMalformedJudgement(t *testing.T) {
	p := openTestDB(t)
	ev := events.GameEvent{ID: "bad", Timestamp: time.Now(), Type: events.EventTypeRunJudged, RunID: "r1", Payload: "oops"}
	if err := p.Append(ev); err == nil {
		t.Errorf("Expected an error for a judged event without a history record")
	}
}

func dbOf(p *Persister) *sql.DB {
	return p.events.(*SQLiteEventRepository).db
}
