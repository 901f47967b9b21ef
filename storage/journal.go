package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"aimux/config"
)

// Event is one row of the session journal: a lifecycle event for a session,
// with the turn count at the time it was recorded. The journal is an
// operational record only; it never stores message content, and it is not a
// mechanism for restoring conversations across restarts.
type Event struct {
	ID         int64
	SessionID  string
	Provider   string
	Event      string
	TurnCount  int
	RecordedAt time.Time
}

// Journal persists session lifecycle events to <data_dir>/journal.db.
type Journal struct {
	db *sql.DB
}

func NewJournal(dataDir string) (*Journal, error) {
	dbPath := filepath.Join(dataDir, "journal.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	journal := &Journal{db: db}

	if err := journal.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return journal, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		event TEXT NOT NULL,
		turn_count INTEGER NOT NULL,
		recorded_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record implements orchestrator.Recorder. Journal failures must never
// disturb the session path, so they are only logged.
func (j *Journal) Record(sessionID, provider, event string, turnCount int) {
	query := `
	INSERT INTO session_events (session_id, provider, event, turn_count, recorded_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := j.db.Exec(query, sessionID, provider, event, turnCount, time.Now())
	if err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Journal] Failed to record %s for session %s: %v", event, sessionID, err)
	}
}

// Events returns the recorded events for one session, oldest first.
func (j *Journal) Events(sessionID string) ([]Event, error) {
	query := `
	SELECT id, session_id, provider, event, turn_count, recorded_at
	FROM session_events
	WHERE session_id = ?
	ORDER BY id ASC
	`

	rows, err := j.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Recent returns the most recently recorded events, newest first.
func (j *Journal) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, session_id, provider, event, turn_count, recorded_at
	FROM session_events
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := j.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		err := rows.Scan(&e.ID, &e.SessionID, &e.Provider, &e.Event, &e.TurnCount, &e.RecordedAt)
		if err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
