package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quantmind-br/fscore/internal/score"
)

// DB persists past scoring runs with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// Run is one recorded invocation: the algorithm used and per-file scores.
type Run struct {
	RunID     int64     `json:"run_id"`
	Algorithm string    `json:"algorithm"`
	StartedAt time.Time `json:"started_at"`
	Requested int       `json:"requested"`
	Scored    int       `json:"scored"`
}

// Entry is a single scored file within a run.
type Entry struct {
	RunID int64   `json:"run_id"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// New opens (creating if needed) the history database at dbPath
func New(ctx context.Context, dbPath string) (*DB, error) {
	// Connection string with pragmas
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// initSchema creates the schema if it doesn't exist
func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    algorithm TEXT NOT NULL,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    requested INTEGER NOT NULL,
    scored INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    run_id INTEGER NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    path TEXT NOT NULL,
    score REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
	`

	_, err := db.write.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Record stores one completed run and its successful results
func (db *DB) Record(ctx context.Context, algorithm string, requested int, results []score.Result) (int64, error) {
	tx, err := db.write.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (algorithm, started_at, requested, scored) VALUES (?, ?, ?, ?)`,
		algorithm, time.Now().UTC(), requested, len(results),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, result := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (run_id, path, score) VALUES (?, ?, ?)`,
			runID, result.Path, result.Score,
		); err != nil {
			return 0, fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	return runID, nil
}

// ListRuns retrieves recorded runs, newest first, up to limit (0 = all)
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
SELECT run_id, algorithm, started_at, requested, scored
FROM runs ORDER BY run_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.Algorithm, &run.StartedAt, &run.Requested, &run.Scored); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Entries retrieves the per-file results for one run, in insert order
func (db *DB) Entries(ctx context.Context, runID int64) ([]Entry, error) {
	rows, err := db.read.QueryContext(ctx,
		`SELECT run_id, path, score FROM entries WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.RunID, &entry.Path, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Clear removes all recorded runs and entries
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.write.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}
	return nil
}
