// Package model is the simulation engine. A Model owns the grid, the
// environment registry and the ant population, and advances them one tick
// at a time.
//
// Within a tick every ant steps exactly once, in an order reshuffled from
// the model's random source on every tick. Ants act on live state: a move
// or mark made early in a tick is visible to every ant activated after it.
//
// A Model is not safe for concurrent use.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/nvandessel/antsim/internal/ant"
	"github.com/nvandessel/antsim/internal/environment"
	"github.com/nvandessel/antsim/internal/grid"
	"github.com/nvandessel/antsim/internal/logging"
)

// Config is the initialization input for a Model.
type Config struct {
	NumAnts   int
	Width     int
	Height    int
	Food      []grid.Position
	Obstacles []grid.Position

	// AntPositions, when non-empty, fixes the starting cell of each ant
	// (ant i starts on AntPositions[i]) instead of drawing it at random.
	AntPositions []grid.Position
}

// InvalidConfigurationError is returned by New for unusable input.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks c against the grid it describes.
func (c Config) Validate() error {
	if c.NumAnts <= 0 {
		return &InvalidConfigurationError{Field: "num_ants", Reason: fmt.Sprintf("must be positive, got %d", c.NumAnts)}
	}
	if c.Width <= 0 {
		return &InvalidConfigurationError{Field: "width", Reason: fmt.Sprintf("must be positive, got %d", c.Width)}
	}
	if c.Height <= 0 {
		return &InvalidConfigurationError{Field: "height", Reason: fmt.Sprintf("must be positive, got %d", c.Height)}
	}

	bounds := grid.New(c.Width, c.Height)
	check := func(field string, ps []grid.Position) error {
		for i, p := range ps {
			if !bounds.InBounds(p) {
				return &InvalidConfigurationError{
					Field:  fmt.Sprintf("%s[%d]", field, i),
					Reason: fmt.Sprintf("%s is outside the %dx%d grid", p, c.Width, c.Height),
				}
			}
		}
		return nil
	}
	if err := check("food", c.Food); err != nil {
		return err
	}
	if err := check("obstacles", c.Obstacles); err != nil {
		return err
	}
	if len(c.AntPositions) > 0 {
		if len(c.AntPositions) != c.NumAnts {
			return &InvalidConfigurationError{
				Field:  "ant_positions",
				Reason: fmt.Sprintf("has %d entries for %d ants", len(c.AntPositions), c.NumAnts),
			}
		}
		if err := check("ant_positions", c.AntPositions); err != nil {
			return err
		}
	}
	return nil
}

// Option configures optional Model collaborators.
type Option func(*Model)

// WithLogger sets the logger used for per-tick (debug) and per-decision
// (trace) records.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDecisionLogger forwards every ant decision to dl.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(m *Model) { m.decisions = dl }
}

// Model is the simulation engine.
type Model struct {
	grid      *grid.Grid
	env       *environment.Registry
	ants      []*ant.Ant
	rng       *rand.Rand
	tick      int
	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// New validates cfg, builds the grid and registry and places the ants.
// rng drives placement, activation order and move choice; two models built
// from identically seeded sources evolve identically.
func New(cfg Config, rng *rand.Rand, opts ...Option) (*Model, error) {
	if rng == nil {
		return nil, &InvalidConfigurationError{Field: "rng", Reason: "a random source is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		grid:   grid.New(cfg.Width, cfg.Height),
		env:    environment.NewRegistry(cfg.Food, cfg.Obstacles),
		ants:   make([]*ant.Ant, 0, cfg.NumAnts),
		rng:    rng,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for i := 0; i < cfg.NumAnts; i++ {
		a := ant.New(grid.AgentID(i))
		var pos grid.Position
		if len(cfg.AntPositions) > 0 {
			pos = cfg.AntPositions[i]
		} else {
			pos = grid.Position{X: rng.IntN(cfg.Width), Y: rng.IntN(cfg.Height)}
		}
		if err := m.grid.Place(a, pos); err != nil {
			return nil, err
		}
		m.ants = append(m.ants, a)
	}

	m.logger.Debug("model initialized",
		"ants", cfg.NumAnts, "width", cfg.Width, "height", cfg.Height,
		"food", len(cfg.Food), "obstacles", len(cfg.Obstacles))
	return m, nil
}

// NewSeeded is New with a PCG source derived from seed.
func NewSeeded(cfg Config, seed uint64, opts ...Option) (*Model, error) {
	return New(cfg, NewRand(seed), opts...)
}

// NewRand returns the random source NewSeeded uses for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick      int `json:"tick"`
	Moved     int `json:"moved"`
	Claimed   int `json:"claimed"`
	Stayed    int `json:"stayed"`
	Idle      int `json:"idle"`
	Trail     int `json:"trail"` // moves that followed the pheromone trail
	Pheromone int `json:"pheromone"`
	Found     int `json:"found"`
}

// Tick activates every ant once in a freshly shuffled order. An error from
// an ant's step aborts the tick and is returned as is; the model should be
// considered broken afterwards.
func (m *Model) Tick() (TickReport, error) {
	m.tick++
	report := TickReport{Tick: m.tick}

	order := slices.Clone(m.ants)
	m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, a := range order {
		d, err := a.Step(m, m.rng)
		if err != nil {
			return report, err
		}
		switch d.Action {
		case ant.ActionMove:
			report.Moved++
			if d.FollowedTrail {
				report.Trail++
			}
		case ant.ActionClaim:
			report.Claimed++
		case ant.ActionStay:
			report.Stayed++
		case ant.ActionIdle:
			report.Idle++
		}
		m.traceDecision(d)
	}

	report.Pheromone = m.env.PheromoneCount()
	report.Found = m.FoundCount()

	m.logger.Debug("tick complete",
		"tick", report.Tick, "moved", report.Moved, "claimed", report.Claimed,
		"stayed", report.Stayed, "pheromone", report.Pheromone, "found", report.Found)
	return report, nil
}

// Advance runs one tick, discarding the report.
func (m *Model) Advance() error {
	_, err := m.Tick()
	return err
}

// Run ticks n times, stopping early if ctx is cancelled between ticks.
// The reports of completed ticks are returned along with any error.
func (m *Model) Run(ctx context.Context, n int) ([]TickReport, error) {
	if n < 0 {
		return nil, fmt.Errorf("run: tick count must be non-negative, got %d", n)
	}
	reports := make([]TickReport, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r, err := m.Tick()
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (m *Model) traceDecision(d ant.Decision) {
	if m.decisions == nil && !m.logger.Enabled(context.Background(), logging.LevelTrace) {
		return
	}
	m.logger.Log(context.Background(), logging.LevelTrace, "ant decision",
		"tick", m.tick, "ant", int(d.Ant), "action", string(d.Action),
		"from", d.From.String(), "to", d.To.String(), "trail", d.FollowedTrail)
	m.decisions.Log(map[string]any{
		"tick":       m.tick,
		"ant":        int(d.Ant),
		"action":     string(d.Action),
		"from":       d.From,
		"to":         d.To,
		"candidates": d.Candidates,
		"trail":      d.FollowedTrail,
	})
}

// World implementation. These are the only paths through which ants read
// or change shared state.

// Neighborhood returns the in-bounds Moore neighbors of pos.
func (m *Model) Neighborhood(pos grid.Position, includeCenter bool) []grid.Position {
	return m.grid.Neighborhood(pos, includeCenter)
}

// IsEmpty reports whether no ant occupies pos.
func (m *Model) IsEmpty(pos grid.Position) bool { return m.grid.IsEmpty(pos) }

// HasFood reports whether pos is a food site.
func (m *Model) HasFood(pos grid.Position) bool { return m.env.HasFood(pos) }

// HasPheromone reports whether pos carries a trail mark.
func (m *Model) HasPheromone(pos grid.Position) bool { return m.env.HasPheromone(pos) }

// MoveAgent moves a on the grid.
func (m *Model) MoveAgent(a *ant.Ant, to grid.Position) error {
	return m.grid.MoveAgent(a, to)
}

// PlacePheromone marks pos. Marking an already marked cell does nothing.
func (m *Model) PlacePheromone(pos grid.Position) {
	m.env.AddPheromone(pos)
}

var _ ant.World = (*Model)(nil)
