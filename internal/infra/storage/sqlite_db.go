package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite opens the chronicle database and creates its schema.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			god_name TEXT NOT NULL,
			final_era TEXT NOT NULL,
			final_karma INTEGER NOT NULL,
			total_pop REAL NOT NULL,
			judgement TEXT NOT NULL,
			rarity TEXT NOT NULL,
			legacy_code TEXT NOT NULL,
			finished_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_legacy_code ON runs(legacy_code);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
