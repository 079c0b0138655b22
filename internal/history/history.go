// Package history keeps an append-only log of per-tick colony statistics.
//
// A log is write-only from the simulation's point of view: it records what
// happened and is never used to restore a model.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nvandessel/antsim/internal/model"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// Run describes one simulation run.
type Run struct {
	ID        int64     `json:"id"`
	Seed      uint64    `json:"seed"`
	NumAnts   int       `json:"num_ants"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	StartedAt time.Time `json:"started_at"`

	// Ticks is the number of ticks recorded. Filled in by readers.
	Ticks int `json:"ticks"`
}

// TickStats is one row of the log.
type TickStats struct {
	RunID     int64 `json:"run_id"`
	Tick      int   `json:"tick"`
	Moved     int   `json:"moved"`
	Claimed   int   `json:"claimed"`
	Stayed    int   `json:"stayed"`
	Idle      int   `json:"idle"`
	Trail     int   `json:"trail"`
	Pheromone int   `json:"pheromone"`
	Found     int   `json:"found"`
}

// FromReport converts a tick report into a log row for runID.
func FromReport(runID int64, r model.TickReport) TickStats {
	return TickStats{
		RunID:     runID,
		Tick:      r.Tick,
		Moved:     r.Moved,
		Claimed:   r.Claimed,
		Stayed:    r.Stayed,
		Idle:      r.Idle,
		Trail:     r.Trail,
		Pheromone: r.Pheromone,
		Found:     r.Found,
	}
}

// Recorder receives runs and their ticks.
type Recorder interface {
	// StartRun registers a new run and returns its ID.
	StartRun(ctx context.Context, run Run) (int64, error)

	// RecordTick appends one tick to a run.
	RecordTick(ctx context.Context, stats TickStats) error

	// Close releases the recorder's resources.
	Close() error
}

// Reader lists runs and their ticks.
type Reader interface {
	ListRuns(ctx context.Context) ([]Run, error)
	Ticks(ctx context.Context, runID int64) ([]TickStats, error)
}

// MemoryRecorder is an in-memory Recorder and Reader.
// It is safe for concurrent use.
type MemoryRecorder struct {
	mu    sync.RWMutex
	runs  []Run
	ticks map[int64][]TickStats
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{ticks: make(map[int64][]TickStats)}
}

// StartRun implements Recorder.
func (m *MemoryRecorder) StartRun(_ context.Context, run Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.ID = int64(len(m.runs) + 1)
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	m.runs = append(m.runs, run)
	return run.ID, nil
}

// RecordTick implements Recorder.
func (m *MemoryRecorder) RecordTick(_ context.Context, stats TickStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stats.RunID <= 0 || stats.RunID > int64(len(m.runs)) {
		return fmt.Errorf("recording tick %d: run %d: %w", stats.Tick, stats.RunID, ErrRunNotFound)
	}
	m.ticks[stats.RunID] = append(m.ticks[stats.RunID], stats)
	return nil
}

// ListRuns implements Reader. Runs are returned newest first.
func (m *MemoryRecorder) ListRuns(_ context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Run, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		r.Ticks = len(m.ticks[r.ID])
		out = append(out, r)
	}
	return out, nil
}

// Ticks implements Reader.
func (m *MemoryRecorder) Ticks(_ context.Context, runID int64) ([]TickStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if runID <= 0 || runID > int64(len(m.runs)) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	return append([]TickStats(nil), m.ticks[runID]...), nil
}

// Close implements Recorder.
func (m *MemoryRecorder) Close() error { return nil }
