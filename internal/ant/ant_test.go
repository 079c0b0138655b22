package ant

import (
	"errors"
	"slices"
	"testing"

	"github.com/nvandessel/antsim/internal/environment"
	"github.com/nvandessel/antsim/internal/grid"
)

// testWorld backs World with a real grid and registry and records every
// pheromone deposit.
type testWorld struct {
	g       *grid.Grid
	env     *environment.Registry
	marks   []grid.Position
	moveErr error
}

func newTestWorld(w, h int, food []grid.Position) *testWorld {
	return &testWorld{g: grid.New(w, h), env: environment.NewRegistry(food, nil)}
}

func (tw *testWorld) Neighborhood(p grid.Position, c bool) []grid.Position {
	return tw.g.Neighborhood(p, c)
}
func (tw *testWorld) IsEmpty(p grid.Position) bool      { return tw.g.IsEmpty(p) }
func (tw *testWorld) HasFood(p grid.Position) bool      { return tw.env.HasFood(p) }
func (tw *testWorld) HasPheromone(p grid.Position) bool { return tw.env.HasPheromone(p) }
func (tw *testWorld) MoveAgent(a *Ant, to grid.Position) error {
	if tw.moveErr != nil {
		return tw.moveErr
	}
	return tw.g.MoveAgent(a, to)
}
func (tw *testWorld) PlacePheromone(p grid.Position) {
	tw.marks = append(tw.marks, p)
	tw.env.AddPheromone(p)
}

// place creates an ant with the given id on pos.
func (tw *testWorld) place(t *testing.T, id grid.AgentID, pos grid.Position) *Ant {
	t.Helper()
	a := New(id)
	if err := tw.g.Place(a, pos); err != nil {
		t.Fatalf("place ant %d at %v: %v", id, pos, err)
	}
	return a
}

// fixedRand always returns the same index, clamped to n.
type fixedRand int

func (f fixedRand) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func TestStep_ClaimsFood(t *testing.T) {
	food := grid.Position{X: 1, Y: 1}
	tw := newTestWorld(25, 25, []grid.Position{food})
	a := tw.place(t, 0, food)

	d, err := a.Step(tw, fixedRand(0))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if d.Action != ActionClaim {
		t.Errorf("Action = %s, want %s", d.Action, ActionClaim)
	}
	if !a.HasFoundFood() || a.State() != Found {
		t.Error("ant did not transition to Found")
	}
	if a.Pos() != food {
		t.Errorf("ant moved to %v while claiming food", a.Pos())
	}
	if !slices.Equal(tw.marks, []grid.Position{food}) {
		t.Errorf("marks = %v, want [%v]", tw.marks, food)
	}
}

func TestStep_FoundIsTerminal(t *testing.T) {
	food := grid.Position{X: 2, Y: 2}
	tw := newTestWorld(5, 5, []grid.Position{food})
	a := tw.place(t, 0, food)

	if _, err := a.Step(tw, fixedRand(0)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		d, err := a.Step(tw, fixedRand(0))
		if err != nil {
			t.Fatal(err)
		}
		if d.Action != ActionIdle {
			t.Errorf("step %d: Action = %s, want %s", i, d.Action, ActionIdle)
		}
	}
	if a.Pos() != food {
		t.Errorf("found ant moved to %v", a.Pos())
	}
	if len(tw.marks) != 1 {
		t.Errorf("found ant kept marking: %v", tw.marks)
	}
}

func TestCandidates_PreferPheromone(t *testing.T) {
	tw := newTestWorld(5, 5, nil)
	a := tw.place(t, 0, grid.Position{X: 2, Y: 2})
	tw.place(t, 1, grid.Position{X: 3, Y: 3})
	marked := grid.Position{X: 1, Y: 2}
	tw.env.AddPheromone(marked)

	pool, trail := a.Candidates(tw)
	if !trail {
		t.Error("expected the pool to come from the pheromone trail")
	}
	if !slices.Equal(pool, []grid.Position{marked}) {
		t.Errorf("pool = %v, want only the marked cell %v", pool, marked)
	}

	// Whatever index the rng yields, the only choice is the marked cell.
	d, err := a.Step(tw, fixedRand(7))
	if err != nil {
		t.Fatal(err)
	}
	if d.To != marked || !d.FollowedTrail || d.Candidates != 1 {
		t.Errorf("step = %+v, want a trail move to %v", d, marked)
	}
}

func TestCandidates_MarkedCellMayBeOccupied(t *testing.T) {
	tw := newTestWorld(3, 3, nil)
	a := tw.place(t, 0, grid.Position{X: 0, Y: 0})
	busy := grid.Position{X: 1, Y: 1}
	tw.place(t, 1, busy)
	tw.env.AddPheromone(busy)

	pool, trail := a.Candidates(tw)
	if !trail || !slices.Equal(pool, []grid.Position{busy}) {
		t.Errorf("pool = %v trail = %v, want occupied marked cell %v", pool, trail, busy)
	}
}

func TestCandidates_FallbackToEmpty(t *testing.T) {
	tw := newTestWorld(3, 3, nil)
	a := tw.place(t, 0, grid.Position{X: 0, Y: 0})
	tw.place(t, 1, grid.Position{X: 1, Y: 1})

	pool, trail := a.Candidates(tw)
	if trail {
		t.Error("no marks exist, pool must not be a trail pool")
	}
	want := []grid.Position{{X: 0, Y: 1}, {X: 1, Y: 0}}
	if !slices.Equal(pool, want) {
		t.Errorf("pool = %v, want %v", pool, want)
	}
}

func TestStep_SurroundedStays(t *testing.T) {
	tw := newTestWorld(2, 2, nil)
	a := tw.place(t, 0, grid.Position{X: 0, Y: 0})
	tw.place(t, 1, grid.Position{X: 0, Y: 1})
	tw.place(t, 2, grid.Position{X: 1, Y: 0})
	tw.place(t, 3, grid.Position{X: 1, Y: 1})

	d, err := a.Step(tw, fixedRand(0))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if d.Action != ActionStay {
		t.Errorf("Action = %s, want %s", d.Action, ActionStay)
	}
	if a.Pos() != (grid.Position{X: 0, Y: 0}) {
		t.Errorf("surrounded ant moved to %v", a.Pos())
	}
	if len(tw.marks) != 0 || tw.env.PheromoneCount() != 0 {
		t.Errorf("surrounded ant marked cells: %v", tw.marks)
	}
}

func TestStep_MovesAndMarksDestination(t *testing.T) {
	tw := newTestWorld(4, 4, nil)
	start := grid.Position{X: 0, Y: 0}
	a := tw.place(t, 0, start)

	d, err := a.Step(tw, fixedRand(2))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	want := grid.Position{X: 1, Y: 1} // third of (0,1),(1,0),(1,1)
	if d.Action != ActionMove || d.To != want || a.Pos() != want {
		t.Errorf("decision %+v, ant at %v, want move to %v", d, a.Pos(), want)
	}
	if d.From != start {
		t.Errorf("From = %v, want %v", d.From, start)
	}
	if d.Candidates != 3 {
		t.Errorf("Candidates = %d, want 3", d.Candidates)
	}
	if !slices.Equal(tw.marks, []grid.Position{want}) {
		t.Errorf("marks = %v, want [%v]", tw.marks, want)
	}
	if tw.env.HasPheromone(start) {
		t.Error("start cell should not be marked by moving away")
	}
}

func TestStep_ObstaclesAreNotFiltered(t *testing.T) {
	tw := &testWorld{
		g:   grid.New(2, 1),
		env: environment.NewRegistry(nil, []grid.Position{{X: 1, Y: 0}}),
	}
	a := tw.place(t, 0, grid.Position{X: 0, Y: 0})

	d, err := a.Step(tw, fixedRand(0))
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != ActionMove || a.Pos() != (grid.Position{X: 1, Y: 0}) {
		t.Errorf("expected ant to walk onto the obstacle cell, got %+v", d)
	}
}

func TestStep_MoveErrorSurfaces(t *testing.T) {
	tw := newTestWorld(3, 3, nil)
	a := tw.place(t, 0, grid.Position{X: 1, Y: 1})
	want := &grid.OutOfBoundsError{Pos: grid.Position{X: 5, Y: 5}, Width: 3, Height: 3}
	tw.moveErr = want

	_, err := a.Step(tw, fixedRand(0))
	if !errors.Is(err, want) {
		t.Fatalf("Step error = %v, want %v", err, want)
	}
	if len(tw.marks) != 0 {
		t.Errorf("failed move still marked %v", tw.marks)
	}
}

func TestState_String(t *testing.T) {
	if Seeking.String() != "seeking" || Found.String() != "found" {
		t.Errorf("unexpected state names: %s %s", Seeking, Found)
	}
}
