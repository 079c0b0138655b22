package simulation

import (
	"github.com/nvandessel/antsim/internal/grid"
	"github.com/nvandessel/antsim/internal/model"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name   string
	Config model.Config
	Seed   uint64
	Ticks  int

	// Setup, when non-nil, runs once after the model is built and before
	// the first tick. Use it to pre-mark trail cells.
	Setup func(m *model.Model)

	// BeforeTick, when non-nil, runs before each tick with the 1-based
	// number of the tick about to execute.
	BeforeTick func(tick int, m *model.Model)
}

// TickResult captures one tick and the states on either side of it.
type TickResult struct {
	Report model.TickReport
	Before model.Snapshot
	After  model.Snapshot
}

// SimulationResult captures every tick and the final model.
type SimulationResult struct {
	Name    string
	Initial model.Snapshot
	Ticks   []TickResult
	Model   *model.Model
}

// Final returns the last captured snapshot.
func (r SimulationResult) Final() model.Snapshot {
	if len(r.Ticks) == 0 {
		return r.Initial
	}
	return r.Ticks[len(r.Ticks)-1].After
}

// TotalTrailMoves sums the trail-following moves across all ticks.
func (r SimulationResult) TotalTrailMoves() int {
	n := 0
	for _, tr := range r.Ticks {
		n += tr.Report.Trail
	}
	return n
}

// Corridor returns the cells of a horizontal strip from (x0,y) to (x1,y)
// inclusive.
func Corridor(x0, x1, y int) []grid.Position {
	out := make([]grid.Position, 0, x1-x0+1)
	for x := x0; x <= x1; x++ {
		out = append(out, grid.Position{X: x, Y: y})
	}
	return out
}
