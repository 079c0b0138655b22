package simulation

import (
	"testing"

	"github.com/nvandessel/antsim/internal/model"
)

// Runner orchestrates multi-tick simulation experiments.
type Runner struct {
	t    testing.TB
	opts []model.Option
}

// NewRunner creates a runner whose model options (logger, decision trace)
// are passed through to every model it builds.
func NewRunner(t testing.TB, opts ...model.Option) *Runner {
	t.Helper()
	return &Runner{t: t, opts: opts}
}

// Run builds the model for scenario, runs it and returns the captured
// results. Any model error fails the test immediately.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()

	m, err := model.NewSeeded(scenario.Config, scenario.Seed, r.opts...)
	if err != nil {
		r.t.Fatalf("scenario %q: build model: %v", scenario.Name, err)
	}
	if scenario.Setup != nil {
		scenario.Setup(m)
	}

	result := SimulationResult{
		Name:    scenario.Name,
		Initial: m.Snapshot(),
		Ticks:   make([]TickResult, 0, scenario.Ticks),
		Model:   m,
	}

	before := result.Initial
	for i := 1; i <= scenario.Ticks; i++ {
		if scenario.BeforeTick != nil {
			scenario.BeforeTick(i, m)
			before = m.Snapshot()
		}
		report, err := m.Tick()
		if err != nil {
			r.t.Fatalf("scenario %q: tick %d: %v", scenario.Name, i, err)
		}
		after := m.Snapshot()
		result.Ticks = append(result.Ticks, TickResult{Report: report, Before: before, After: after})
		before = after
	}

	return result
}
