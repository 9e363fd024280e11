// Package journal records violations in a SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/hintguard/internal/diagnostics"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS violations (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL REFERENCES runs(id),
	check_name TEXT NOT NULL,
	file      TEXT NOT NULL,
	document  INTEGER NOT NULL,
	call_site TEXT NOT NULL,
	hint      TEXT NOT NULL,
	pith      TEXT NOT NULL,
	path      TEXT NOT NULL,
	cause     TEXT NOT NULL,
	seed      INTEGER NOT NULL,
	message   TEXT NOT NULL,
	warning   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS violations_check ON violations(check_name);
`

// Entry is one recorded violation.
type Entry struct {
	RunID    string
	Check    string
	File     string
	Document int
	Warning  bool
	*diagnostics.Violation
}

// Journal appends violations to a database. All entries recorded through
// one Journal share a run ID.
type Journal struct {
	db    *sql.DB
	runID string

	mu sync.Mutex
}

// Open opens (creating if needed) the journal database at path and starts
// a new run.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	// The driver serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal %s: %w", path, err)
	}
	j := &Journal{db: db, runID: uuid.NewString()}
	if _, err := db.ExecContext(ctx, `INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		j.runID, time.Now().Unix()); err != nil {
		db.Close()
		return nil, fmt.Errorf("starting journal run: %w", err)
	}
	return j, nil
}

// RunID identifies the current run.
func (j *Journal) RunID() string { return j.runID }

// Record appends a violation found in document doc of file by check.
func (j *Journal) Record(ctx context.Context, check, file string, doc int, v *diagnostics.Violation, warning bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO violations
			(run_id, check_name, file, document, call_site, hint, pith, path, cause, seed, message, warning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, check, file, doc, v.CallSite, v.Hint, v.PithRepr, v.Path, v.Cause,
		int64(v.Seed), v.Message(), warning)
	if err != nil {
		return fmt.Errorf("recording violation: %w", err)
	}
	return nil
}

// Entries returns the violations recorded for check across all runs,
// oldest first. An empty check returns every entry.
func (j *Journal) Entries(ctx context.Context, check string) ([]Entry, error) {
	query := `SELECT run_id, check_name, file, document, call_site, hint, pith, path, cause, seed, warning
		FROM violations`
	var args []any
	if check != "" {
		query += ` WHERE check_name = ?`
		args = append(args, check)
	}
	query += ` ORDER BY id`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var seed int64
		v := &diagnostics.Violation{}
		if err := rows.Scan(&e.RunID, &e.Check, &e.File, &e.Document,
			&v.CallSite, &v.Hint, &v.PithRepr, &v.Path, &v.Cause, &seed, &e.Warning); err != nil {
			return nil, fmt.Errorf("reading journal: %w", err)
		}
		v.Seed = uint64(seed)
		e.Violation = v
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
