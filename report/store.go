package report

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists runs and their crossing events to a SQLite database.
type Store struct {
	*sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	model       TEXT NOT NULL,
	confidence  REAL NOT NULL,
	orientation TEXT NOT NULL,
	line_pos    REAL NOT NULL,
	inverted    INTEGER NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	frames      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS crossings (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL REFERENCES runs(id),
	ts        TEXT NOT NULL,
	frame     INTEGER NOT NULL,
	label     TEXT NOT NULL,
	direction TEXT NOT NULL,
	inventory INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_crossings_run ON crossings(run_id);
`

// NewStore opens or creates the database at path and ensures the schema
// exists.
func NewStore(path string) (*Store, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &Store{db}, nil
}

// BeginRun records the start of a processing session.
func (s *Store) BeginRun(meta Metadata, startedAt time.Time) error {

	query := `
		INSERT INTO runs (id, source, model, confidence, orientation,
			line_pos, inverted, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.Exec(query, meta.Session, meta.Source, meta.Model,
		meta.Confidence, meta.Orientation, meta.LinePosition,
		meta.Inverted, startedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// RecordCrossing stores one crossing event with the inventory level after
// the event.
func (s *Store) RecordCrossing(runID string, ts time.Time, frame int,
	ev Crossing, inventory int) error {

	query := `
		INSERT INTO crossings (run_id, ts, frame, label, direction, inventory)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.Exec(query, runID, ts.Format(time.RFC3339), frame,
		ev.Label, string(ev.Direction), inventory)

	if err != nil {
		return fmt.Errorf("failed to insert crossing: %w", err)
	}

	return nil
}

// FinishRun marks a run finished and records the number of processed
// frames.
func (s *Store) FinishRun(runID string, finishedAt time.Time, frames int) error {

	query := `
		UPDATE runs SET finished_at = ?, frames = ? WHERE id = ?
	`

	_, err := s.Exec(query, finishedAt.Format(time.RFC3339), frames, runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

// StoredCrossing is a crossing event read back from the database.
type StoredCrossing struct {
	Timestamp time.Time
	Frame     int
	Label     string
	Direction Direction
	Inventory int
}

// Crossings returns all crossing events of a run in insertion order.
func (s *Store) Crossings(runID string) ([]StoredCrossing, error) {

	query := `
		SELECT ts, frame, label, direction, inventory
		FROM crossings WHERE run_id = ? ORDER BY id
	`

	rows, err := s.Query(query, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to query crossings: %w", err)
	}

	defer rows.Close()

	var events []StoredCrossing

	for rows.Next() {

		var ev StoredCrossing
		var ts string

		if err := rows.Scan(&ts, &ev.Frame, &ev.Label, &ev.Direction,
			&ev.Inventory); err != nil {
			return nil, fmt.Errorf("failed to scan crossing: %w", err)
		}

		ev.Timestamp, err = time.Parse(time.RFC3339, ts)

		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading crossings: %w", err)
	}

	return events, nil
}
