package grid

import (
	"errors"
	"slices"
	"testing"
)

// stubAgent is a minimal Agent used to exercise grid membership.
type stubAgent struct {
	id  AgentID
	pos Position
}

func (a *stubAgent) ID() AgentID       { return a.id }
func (a *stubAgent) Pos() Position     { return a.pos }
func (a *stubAgent) SetPos(p Position) { a.pos = p }

func TestNeighborhood(t *testing.T) {
	g := New(5, 5)

	tests := []struct {
		name          string
		pos           Position
		includeCenter bool
		want          []Position
	}{
		{
			name: "interior has eight neighbors in dx-major order",
			pos:  Position{2, 2},
			want: []Position{
				{1, 1}, {1, 2}, {1, 3},
				{2, 1}, {2, 3},
				{3, 1}, {3, 2}, {3, 3},
			},
		},
		{
			name:          "interior with center",
			pos:           Position{2, 2},
			includeCenter: true,
			want: []Position{
				{1, 1}, {1, 2}, {1, 3},
				{2, 1}, {2, 2}, {2, 3},
				{3, 1}, {3, 2}, {3, 3},
			},
		},
		{
			name: "origin corner is clipped",
			pos:  Position{0, 0},
			want: []Position{{0, 1}, {1, 0}, {1, 1}},
		},
		{
			name: "far corner is clipped",
			pos:  Position{4, 4},
			want: []Position{{3, 3}, {3, 4}, {4, 3}},
		},
		{
			name: "edge has five neighbors",
			pos:  Position{0, 2},
			want: []Position{{0, 1}, {0, 3}, {1, 1}, {1, 2}, {1, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Neighborhood(tt.pos, tt.includeCenter)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Neighborhood(%v, %v) = %v, want %v", tt.pos, tt.includeCenter, got, tt.want)
			}
		})
	}
}

func TestNeighborhood_NoWraparound(t *testing.T) {
	g := New(3, 3)
	for _, p := range g.Neighborhood(Position{0, 0}, false) {
		if !g.InBounds(p) {
			t.Errorf("neighbor %v is out of bounds", p)
		}
		if p.X == 2 || p.Y == 2 {
			t.Errorf("neighbor %v wrapped around the grid", p)
		}
	}
}

func TestNeighborhood_SingleCellGrid(t *testing.T) {
	g := New(1, 1)
	if got := g.Neighborhood(Position{0, 0}, false); len(got) != 0 {
		t.Errorf("expected no neighbors on a 1x1 grid, got %v", got)
	}
}

func TestMoveAgent(t *testing.T) {
	g := New(4, 4)
	a := &stubAgent{id: 7}
	if err := g.Place(a, Position{1, 1}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if g.IsEmpty(Position{1, 1}) {
		t.Fatal("expected (1,1) to be occupied after Place")
	}

	if err := g.MoveAgent(a, Position{2, 2}); err != nil {
		t.Fatalf("MoveAgent: %v", err)
	}
	if a.Pos() != (Position{2, 2}) {
		t.Errorf("agent position = %v, want (2,2)", a.Pos())
	}
	if !g.IsEmpty(Position{1, 1}) {
		t.Error("old cell still occupied after move")
	}
	if got := g.Occupants(Position{2, 2}); !slices.Equal(got, []AgentID{7}) {
		t.Errorf("Occupants((2,2)) = %v, want [7]", got)
	}
	if g.AgentCount() != 1 {
		t.Errorf("AgentCount = %d, want 1", g.AgentCount())
	}
}

func TestMoveAgent_OutOfBounds(t *testing.T) {
	g := New(3, 3)
	a := &stubAgent{id: 1}
	if err := g.Place(a, Position{0, 0}); err != nil {
		t.Fatalf("Place: %v", err)
	}

	for _, to := range []Position{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		err := g.MoveAgent(a, to)
		var oob *OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("MoveAgent(%v) error = %v, want OutOfBoundsError", to, err)
		}
		if oob.Pos != to || oob.Width != 3 || oob.Height != 3 {
			t.Errorf("unexpected error fields: %+v", oob)
		}
		if a.Pos() != (Position{0, 0}) {
			t.Errorf("agent moved to %v despite error", a.Pos())
		}
	}
}

func TestPlace_OutOfBounds(t *testing.T) {
	g := New(2, 2)
	var oob *OutOfBoundsError
	if err := g.Place(&stubAgent{id: 1}, Position{2, 2}); !errors.As(err, &oob) {
		t.Fatalf("Place error = %v, want OutOfBoundsError", err)
	}
	if g.AgentCount() != 0 {
		t.Errorf("AgentCount = %d, want 0", g.AgentCount())
	}
}

func TestOccupancy_CoOccupiedCell(t *testing.T) {
	g := New(3, 3)
	a := &stubAgent{id: 2}
	b := &stubAgent{id: 1}
	if err := g.Place(a, Position{1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := g.Place(b, Position{1, 1}); err != nil {
		t.Fatal(err)
	}

	occ := g.Occupancy()
	if len(occ) != 1 {
		t.Fatalf("expected one occupied cell, got %d", len(occ))
	}
	if got := occ[Position{1, 1}]; !slices.Equal(got, []AgentID{1, 2}) {
		t.Errorf("occupants = %v, want [1 2]", got)
	}

	// The snapshot is a copy.
	occ[Position{1, 1}][0] = 99
	if got := g.Occupants(Position{1, 1}); got[0] != 1 {
		t.Errorf("mutating Occupancy result changed the grid: %v", got)
	}

	if err := g.MoveAgent(a, Position{0, 0}); err != nil {
		t.Fatal(err)
	}
	if got := g.Occupants(Position{1, 1}); !slices.Equal(got, []AgentID{1}) {
		t.Errorf("occupants after move = %v, want [1]", got)
	}
}

func TestSortPositions(t *testing.T) {
	ps := []Position{{2, 0}, {0, 5}, {0, 1}, {1, 1}}
	SortPositions(ps)
	want := []Position{{0, 1}, {0, 5}, {1, 1}, {2, 0}}
	if !slices.Equal(ps, want) {
		t.Errorf("SortPositions = %v, want %v", ps, want)
	}
}
