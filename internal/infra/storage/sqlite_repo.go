package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/events"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event EventRow) error {
	query := `
		INSERT INTO events (id, run_id, timestamp, event_type, actor_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.RunID, event.Timestamp.UTC(), event.EventType, event.ActorID, event.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]EventRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.ID, &e.RunID, &e.Timestamp, &e.EventType, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteEventRepository) GetByRunID(ctx context.Context, runID string) ([]EventRow, error) {
	query := `SELECT id, run_id, timestamp, event_type, actor_id, payload FROM events WHERE run_id = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, runID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, eventType string) ([]EventRow, error) {
	query := `SELECT id, run_id, timestamp, event_type, actor_id, payload FROM events WHERE event_type = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, eventType)
}

// SQLiteChronicle implements ChronicleRepository for SQLite.
type SQLiteChronicle struct {
	db *sql.DB
}

func NewSQLiteChronicle(db *sql.DB) *SQLiteChronicle {
	return &SQLiteChronicle{db: db}
}

func (c *SQLiteChronicle) Save(ctx context.Context, rec RunRecord) error {
	query := `
		INSERT INTO runs (run_id, god_name, final_era, final_karma, total_pop, judgement, rarity, legacy_code, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.RunID, rec.GodName, string(rec.FinalEra), rec.FinalKarma, rec.TotalPop,
		rec.Judgement, string(rec.Rarity), rec.LegacyCode, rec.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.RunID, err)
	}
	return nil
}

const runColumns = `run_id, god_name, final_era, final_karma, total_pop, judgement, rarity, legacy_code, finished_at`

func scanRun(row interface{ Scan(...any) error }) (RunRecord, error) {
	var (
		rec    RunRecord
		era    string
		rarity string
	)
	err := row.Scan(&rec.RunID, &rec.GodName, &era, &rec.FinalKarma, &rec.TotalPop,
		&rec.Judgement, &rarity, &rec.LegacyCode, &rec.Timestamp)
	rec.FinalEra = civ.Era(era)
	rec.Rarity = civ.Rarity(rarity)
	return rec, err
}

func (c *SQLiteChronicle) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *SQLiteChronicle) ByLegacyCode(ctx context.Context, code string) (*RunRecord, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE legacy_code = ?`, code)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run %s: %w", code, err)
	}
	return &rec, nil
}

// Persister writes the domain event stream to SQLite and files every judged
// run into the chronicle. It implements events.EventPersister.
type Persister struct {
	events    EventRepository
	chronicle ChronicleRepository
	timeout   time.Duration
}

// NewPersister builds a persister over one database.
func NewPersister(db *sql.DB) *Persister {
	return &Persister{
		events:    NewSQLiteEventRepository(db),
		chronicle: NewSQLiteChronicle(db),
		timeout:   2 * time.Second,
	}
}

// Chronicle exposes the run chronicle for reads.
func (p *Persister) Chronicle() ChronicleRepository {
	return p.chronicle
}

// Events exposes the stored event stream for reads.
func (p *Persister) Events() EventRepository {
	return p.events
}

// Append stores one domain event.
func (p *Persister) Append(ev events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	row := EventRow{
		ID:        ev.ID,
		RunID:     ev.RunID,
		Timestamp: ev.Timestamp,
		EventType: string(ev.Type),
		ActorID:   ev.ActorID,
		Payload:   string(payload),
	}
	if err := p.events.Append(ctx, row); err != nil {
		return err
	}

	if ev.Type != events.EventTypeRunJudged {
		return nil
	}
	rec, ok := ev.Payload.(civ.HistoryRecord)
	if !ok {
		return fmt.Errorf("run judged event %s: unexpected payload %T", ev.ID, ev.Payload)
	}
	return p.chronicle.Save(ctx, RunRecord{RunID: ev.RunID, HistoryRecord: rec})
}

var _ events.EventPersister = (*Persister)(nil)
