// Package session hosts one live simulation for the interactive surfaces
// (visualization server, MCP server). It serializes access to the model,
// supports reset with a new seed and optionally mirrors every tick to a
// history recorder.
//
// All public methods are safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/logging"
	"github.com/nvandessel/antsim/internal/model"
)

// MaxTicksPerAdvance caps a single Advance call.
const MaxTicksPerAdvance = 10000

// ErrTooManyTicks is returned when Advance is asked for more than
// MaxTicksPerAdvance ticks.
var ErrTooManyTicks = errors.New("too many ticks requested")

// Option configures a Session.
type Option func(*Session)

// WithRecorder mirrors every run and tick to rec. Recording failures are
// logged and do not stop the simulation.
func WithRecorder(rec history.Recorder) Option {
	return func(s *Session) { s.recorder = rec }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModelOptions passes opts to every model the session builds.
func WithModelOptions(opts ...model.Option) Option {
	return func(s *Session) { s.modelOpts = append(s.modelOpts, opts...) }
}

// Session is a mutex-guarded live simulation.
type Session struct {
	mu        sync.Mutex
	cfg       model.Config
	seed      uint64
	model     *model.Model
	modelOpts []model.Option
	recorder  history.Recorder
	runID     int64
	logger    *slog.Logger
}

// New builds a session around a fresh model for cfg and seed.
func New(ctx context.Context, cfg model.Config, seed uint64, opts ...Option) (*Session, error) {
	s := &Session{cfg: cfg, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.rebuild(ctx, seed); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild replaces the model. Caller holds mu (or owns s exclusively).
func (s *Session) rebuild(ctx context.Context, seed uint64) error {
	m, err := model.NewSeeded(s.cfg, seed, s.modelOpts...)
	if err != nil {
		return err
	}
	s.model = m
	s.seed = seed
	s.runID = 0

	if s.recorder != nil {
		id, err := s.recorder.StartRun(ctx, history.Run{
			Seed:    seed,
			NumAnts: s.cfg.NumAnts,
			Width:   s.cfg.Width,
			Height:  s.cfg.Height,
		})
		if err != nil {
			s.logger.Warn("history: failed to start run", "seed", seed, "error", err)
		} else {
			s.runID = id
		}
	}

	s.logger.Info("session started", "seed", seed, "run_id", s.runID,
		"ants", s.cfg.NumAnts, "width", s.cfg.Width, "height", s.cfg.Height)
	return nil
}

// Advance runs n ticks and returns their reports. Cancellation is checked
// between ticks; reports of completed ticks are returned with the error.
func (s *Session) Advance(ctx context.Context, n int) ([]model.TickReport, error) {
	if n < 0 {
		return nil, fmt.Errorf("advance: tick count must be non-negative, got %d", n)
	}
	if n > MaxTicksPerAdvance {
		return nil, fmt.Errorf("advance: %d ticks: %w (max %d)", n, ErrTooManyTicks, MaxTicksPerAdvance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.model.Run(ctx, n)
	for _, r := range reports {
		s.record(ctx, r)
	}
	return reports, err
}

func (s *Session) record(ctx context.Context, r model.TickReport) {
	if s.recorder == nil || s.runID == 0 {
		return
	}
	// A cancelled request must not lose ticks that already ran.
	if err := s.recorder.RecordTick(context.WithoutCancel(ctx), history.FromReport(s.runID, r)); err != nil {
		s.logger.Warn("history: failed to record tick", "run_id", s.runID, "tick", r.Tick, "error", err)
	}
}

// Snapshot returns the current state of the model.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Snapshot()
}

// Reset discards the current model and starts over from seed.
func (s *Session) Reset(ctx context.Context, seed uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuild(ctx, seed)
}

// Seed returns the seed of the current model.
func (s *Session) Seed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// RunID returns the history run ID of the current model, or 0 when the
// session is not recording.
func (s *Session) RunID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Config returns the model configuration the session builds from.
func (s *Session) Config() model.Config {
	return s.cfg
}
