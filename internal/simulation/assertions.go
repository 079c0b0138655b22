package simulation

import (
	"fmt"
	"testing"

	"github.com/nvandessel/antsim/internal/grid"
	"github.com/nvandessel/antsim/internal/model"
)

// AssertInvariants runs every per-tick invariant check on result.
func AssertInvariants(t testing.TB, result SimulationResult) {
	t.Helper()
	AssertOccupancyConsistent(t, result)
	AssertBoundedMovement(t, result)
	AssertPheromoneMonotonic(t, result)
	AssertFoundMonotonic(t, result)
	AssertFoodClaimsMarked(t, result)
}

// AssertOccupancyConsistent asserts that in every captured state each ant
// appears in exactly one cell, and that cell is the ant's recorded position.
func AssertOccupancyConsistent(t testing.TB, result SimulationResult) {
	t.Helper()
	check := func(label string, s model.Snapshot) {
		seen := make(map[grid.AgentID]grid.Position, len(s.Ants))
		for _, cell := range s.Occupancy {
			for _, id := range cell.Ants {
				if prev, dup := seen[id]; dup {
					t.Errorf("AssertOccupancyConsistent: %s: ant %d in both %v and %v", label, id, prev, cell.Position)
				}
				seen[id] = cell.Position
			}
		}
		if len(seen) != len(s.Ants) {
			t.Errorf("AssertOccupancyConsistent: %s: %d ants on the grid, %d in the colony", label, len(seen), len(s.Ants))
		}
		for _, a := range s.Ants {
			if cell, ok := seen[a.ID]; !ok || cell != a.Position {
				t.Errorf("AssertOccupancyConsistent: %s: ant %d recorded at %v, grid has it at %v (present=%v)", label, a.ID, a.Position, cell, ok)
			}
		}
	}

	check("initial", result.Initial)
	for _, tr := range result.Ticks {
		check(tickLabel(tr), tr.After)
	}
}

// AssertBoundedMovement asserts that after every tick each ant is inside
// the grid and at most one Moore step from where it started the tick.
func AssertBoundedMovement(t testing.TB, result SimulationResult) {
	t.Helper()
	for _, tr := range result.Ticks {
		bounds := grid.New(tr.After.Width, tr.After.Height)
		for i, a := range tr.After.Ants {
			if !bounds.InBounds(a.Position) {
				t.Errorf("AssertBoundedMovement: %s: ant %d out of bounds at %v", tickLabel(tr), a.ID, a.Position)
			}
			from := tr.Before.Ants[i].Position
			if abs(a.Position.X-from.X) > 1 || abs(a.Position.Y-from.Y) > 1 {
				t.Errorf("AssertBoundedMovement: %s: ant %d jumped %v -> %v", tickLabel(tr), a.ID, from, a.Position)
			}
		}
	}
}

// AssertPheromoneMonotonic asserts that the trail never loses a cell.
func AssertPheromoneMonotonic(t testing.TB, result SimulationResult) {
	t.Helper()
	for _, tr := range result.Ticks {
		if len(tr.After.Pheromone) < len(tr.Before.Pheromone) {
			t.Errorf("AssertPheromoneMonotonic: %s: trail shrank %d -> %d", tickLabel(tr), len(tr.Before.Pheromone), len(tr.After.Pheromone))
		}
		after := make(map[grid.Position]bool, len(tr.After.Pheromone))
		for _, p := range tr.After.Pheromone {
			after[p] = true
		}
		for _, p := range tr.Before.Pheromone {
			if !after[p] {
				t.Errorf("AssertPheromoneMonotonic: %s: mark at %v disappeared", tickLabel(tr), p)
			}
		}
	}
}

// AssertFoundMonotonic asserts that an ant that has found food keeps the
// flag and stays where it is.
func AssertFoundMonotonic(t testing.TB, result SimulationResult) {
	t.Helper()
	for _, tr := range result.Ticks {
		for i, before := range tr.Before.Ants {
			if !before.HasFoundFood {
				continue
			}
			after := tr.After.Ants[i]
			if !after.HasFoundFood {
				t.Errorf("AssertFoundMonotonic: %s: ant %d lost its food flag", tickLabel(tr), before.ID)
			}
			if after.Position != before.Position {
				t.Errorf("AssertFoundMonotonic: %s: found ant %d moved %v -> %v", tickLabel(tr), before.ID, before.Position, after.Position)
			}
		}
	}
}

// AssertFoodClaimsMarked asserts that every ant that claimed food left a
// mark on the food cell.
func AssertFoodClaimsMarked(t testing.TB, result SimulationResult) {
	t.Helper()
	for _, tr := range result.Ticks {
		marked := make(map[grid.Position]bool, len(tr.After.Pheromone))
		for _, p := range tr.After.Pheromone {
			marked[p] = true
		}
		for _, a := range tr.After.Ants {
			if a.HasFoundFood && !marked[a.Position] {
				t.Errorf("AssertFoodClaimsMarked: %s: ant %d claimed food at %v but the cell is unmarked", tickLabel(tr), a.ID, a.Position)
			}
		}
	}
}

// AssertFoundAtLeast asserts that by the end of the run at least n ants
// have found food.
func AssertFoundAtLeast(t testing.TB, result SimulationResult, n int) {
	t.Helper()
	if got := result.Final().FoundCount(); got < n {
		t.Errorf("AssertFoundAtLeast: %d ants found food, want at least %d", got, n)
	}
}

func tickLabel(tr TickResult) string {
	return fmt.Sprintf("tick %d", tr.Report.Tick)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
