// Package history gives the CLI an optional, durable record of strand
// attempts: every time a scenario is run through the command line with
// a --db flag set, one row carrying the run's final outcome is
// appended, tagged with a UUIDv7 strand id. It has nothing
// to do with replay correctness — that lives entirely in-memory in
// trace.Trace — this package exists purely so `tokamak trace` and
// `tokamak replay` have something durable to inspect after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS attempts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	strand_id   TEXT    NOT NULL,
	scenario    TEXT    NOT NULL,
	attempt_no  INTEGER NOT NULL,
	outcome     TEXT    NOT NULL,
	value       INTEGER,
	error       TEXT,
	recorded_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_attempts_strand ON attempts(strand_id, attempt_no);
`

// Outcome labels the terminal state of one recorded attempt.
const (
	OutcomeCommitted  = "committed"
	OutcomeDeterminism = "determinism_error"
	OutcomeFailed     = "failed"
)

// Attempt is one row of recorded history.
type Attempt struct {
	StrandID   string
	Scenario   string
	AttemptNo  int
	Outcome    string
	Value      int
	Error      string
	RecordedAt string
}

// Store is a thin wrapper over a SQLite database, opened the same way
// as this codebase's other SQLite-backed storage: WAL mode, a single
// writer connection, and idempotent schema application on Open.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, applying pragmas and
// schema. Safe to call repeatedly against the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordAttempt appends one attempt row.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (strand_id, scenario, attempt_no, outcome, value, error) VALUES (?, ?, ?, ?, ?, ?)`,
		a.StrandID, a.Scenario, a.AttemptNo, a.Outcome, a.Value, nullIfEmpty(a.Error))
	if err != nil {
		return fmt.Errorf("history: record attempt: %w", err)
	}
	return nil
}

// ListByStrand returns every recorded attempt for strandID, ordered by
// attempt number.
func (s *Store) ListByStrand(ctx context.Context, strandID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strand_id, scenario, attempt_no, outcome, COALESCE(value, 0), COALESCE(error, ''), recorded_at
		 FROM attempts WHERE strand_id = ? ORDER BY attempt_no ASC`, strandID)
	if err != nil {
		return nil, fmt.Errorf("history: list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.StrandID, &a.Scenario, &a.AttemptNo, &a.Outcome, &a.Value, &a.Error, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("history: scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DistinctStrandIDs returns every strand id that has at least one
// recorded attempt, ordered by first appearance.
func (s *Store) DistinctStrandIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strand_id FROM attempts GROUP BY strand_id ORDER BY MIN(id) ASC`)
	if err != nil {
		return nil, fmt.Errorf("history: list strands: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("history: scan strand id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
