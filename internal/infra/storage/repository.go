// Package storage persists the chronicle of finished runs and the raw domain
// event stream. It is write-mostly: nothing here is ever read back into a
// live session.
package storage

import (
	"context"
	"time"

	"github.com/velist/gametest/internal/domain/civ"
)

// EventRow mirrors a domain event for persistence.
type EventRow struct {
	ID        string    `json:"id" db:"id"`
	RunID     string    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	Payload   string    `json:"payload" db:"payload"` // JSON
}

// EventRepository stores the event stream.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event EventRow) error

	// GetByRunID retrieves all events of one run, oldest first.
	GetByRunID(ctx context.Context, runID string) ([]EventRow, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, eventType string) ([]EventRow, error)
}

// RunRecord is a finished run as stored in the chronicle.
type RunRecord struct {
	RunID string `json:"run_id" db:"run_id"`
	civ.HistoryRecord
}

// ChronicleRepository stores finished runs.
type ChronicleRepository interface {
	// Save records a judged run. Saving the same run twice keeps the first.
	Save(ctx context.Context, rec RunRecord) error

	// Recent lists the latest runs, newest first.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)

	// ByLegacyCode finds a run by its ending card code.
	ByLegacyCode(ctx context.Context, code string) (*RunRecord, error)
}
