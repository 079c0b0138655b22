package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SchemaVersion is the current schema version of the history database.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seed TEXT NOT NULL,
    num_ants INTEGER NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ticks (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    tick INTEGER NOT NULL,
    moved INTEGER NOT NULL,
    claimed INTEGER NOT NULL,
    stayed INTEGER NOT NULL,
    idle INTEGER NOT NULL,
    trail INTEGER NOT NULL,
    pheromone INTEGER NOT NULL,
    found INTEGER NOT NULL,
    PRIMARY KEY (run_id, tick)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// SQLiteRecorder stores the log in a SQLite database.
type SQLiteRecorder struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the history database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRecorder, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps ":memory:" on one connection

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &SQLiteRecorder{db: db, path: path}, nil
}

// Path returns the database path the recorder was opened with.
func (s *SQLiteRecorder) Path() string { return s.path }

func initSchema(ctx context.Context, db *sql.DB) error {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err == nil {
		if version > SchemaVersion {
			return fmt.Errorf("history database has schema version %d, this build supports %d", version, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// StartRun implements Recorder.
func (s *SQLiteRecorder) StartRun(ctx context.Context, run Run) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	// seed is stored as text: SQLite integers are signed 64-bit.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (seed, num_ants, width, height, started_at) VALUES (?, ?, ?, ?, ?)`,
		fmt.Sprintf("%d", run.Seed), run.NumAnts, run.Width, run.Height, run.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// RecordTick implements Recorder.
func (s *SQLiteRecorder) RecordTick(ctx context.Context, t TickStats) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, t.RunID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("recording tick %d: run %d: %w", t.Tick, t.RunID, ErrRunNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up run %d: %w", t.RunID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ticks (run_id, tick, moved, claimed, stayed, idle, trail, pheromone, found)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Tick, t.Moved, t.Claimed, t.Stayed, t.Idle, t.Trail, t.Pheromone, t.Found)
	if err != nil {
		return fmt.Errorf("failed to insert tick %d of run %d: %w", t.Tick, t.RunID, err)
	}
	return nil
}

// ListRuns implements Reader. Runs are returned newest first.
func (s *SQLiteRecorder) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seed, r.num_ants, r.width, r.height, r.started_at, COUNT(t.tick)
		FROM runs r LEFT JOIN ticks t ON t.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run.
func (s *SQLiteRecorder) GetRun(ctx context.Context, runID int64) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.seed, r.num_ants, r.width, r.height, r.started_at, COUNT(t.tick)
		FROM runs r LEFT JOIN ticks t ON t.run_id = r.id
		WHERE r.id = ?
		GROUP BY r.id`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	return r, err
}

// Ticks implements Reader.
func (s *SQLiteRecorder) Ticks(ctx context.Context, runID int64) ([]TickStats, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, tick, moved, claimed, stayed, idle, trail, pheromone, found
		FROM ticks WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer rows.Close()

	var out []TickStats
	for rows.Next() {
		var t TickStats
		if err := rows.Scan(&t.RunID, &t.Tick, &t.Moved, &t.Claimed, &t.Stayed, &t.Idle, &t.Trail, &t.Pheromone, &t.Found); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SnapshotTo writes a consistent copy of the database to path, which must
// not exist yet. Recording may continue while the copy is taken.
func (s *SQLiteRecorder) SnapshotTo(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("snapshot history to %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Close implements Recorder.
func (s *SQLiteRecorder) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r       Run
		seed    string
		started string
	)
	if err := row.Scan(&r.ID, &seed, &r.NumAnts, &r.Width, &r.Height, &started, &r.Ticks); err != nil {
		return Run{}, err
	}
	if _, err := fmt.Sscanf(seed, "%d", &r.Seed); err != nil {
		return Run{}, fmt.Errorf("run %d: bad seed %q: %w", r.ID, seed, err)
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("run %d: bad started_at %q: %w", r.ID, started, err)
	}
	r.StartedAt = t
	return r, nil
}
