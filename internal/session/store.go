package session

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one pipeline run in the session index.
type Record struct {
	ID           string
	Pathway      string
	DesignStyle  string
	Status       string
	ProductCount int
	DurationMS   int64
	ErrorMessage string
	CreatedAt    time.Time
}

// StepRecord is one tracked pipeline step for a session.
type StepRecord struct {
	SessionID  string
	Step       string
	DurationMS int64
	Success    bool
	Error      string
}

// Store indexes past sessions in SQLite so the REST facade can list them
// without walking the output directory.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenStore opens (and initializes) the session index database.
func OpenStore(dbPath string) (*Store, error) {
	// WAL mode and busy timeout for concurrent pipeline runs
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		pathway TEXT NOT NULL,
		design_style TEXT NOT NULL,
		status TEXT NOT NULL,
		product_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS session_steps (
		session_id TEXT NOT NULL,
		step TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	CREATE INDEX IF NOT EXISTS idx_session_steps_session ON session_steps(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveSession inserts or replaces a session record.
func (s *Store) SaveSession(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sessions
		(id, pathway, design_style, status, product_count, duration_ms, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Pathway, rec.DesignStyle, rec.Status, rec.ProductCount,
		rec.DurationMS, rec.ErrorMessage, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

// AddStep records one tracked step for a session.
func (s *Store) AddStep(rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO session_steps (session_id, step, duration_ms, success, error)
		VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Step, rec.DurationMS, rec.Success, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save step record: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, pathway, design_style, status, product_count, duration_ms, error_message, created_at
		FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Pathway, &rec.DesignStyle, &rec.Status,
			&rec.ProductCount, &rec.DurationMS, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetSession returns one session record, or nil when not found.
func (s *Store) GetSession(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec Record
	err := s.db.QueryRow(`
		SELECT id, pathway, design_style, status, product_count, duration_ms, error_message, created_at
		FROM sessions WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Pathway, &rec.DesignStyle, &rec.Status,
			&rec.ProductCount, &rec.DurationMS, &rec.ErrorMessage, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &rec, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
