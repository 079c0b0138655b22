// Package grid implements the bounded, non-toroidal lattice the colony lives
// on. A cell may hold any number of agents; the grid only tracks membership
// and never validates moves against the environment.
package grid

import (
	"cmp"
	"fmt"
	"slices"
)

// Position is a cell coordinate. It is comparable and used as the key for
// every position-indexed registry.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String renders the position as "(x,y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Compare orders positions by X, then Y.
func Compare(a, b Position) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

// SortPositions sorts ps in place using Compare.
func SortPositions(ps []Position) {
	slices.SortFunc(ps, Compare)
}

// AgentID identifies an agent within a single run.
type AgentID int

// Agent is anything the grid can place. The grid calls SetPos after a
// successful move so the agent's recorded position and the cell membership
// never disagree.
type Agent interface {
	ID() AgentID
	Pos() Position
	SetPos(Position)
}

// OutOfBoundsError reports a position outside [0,Width)x[0,Height).
// Seeing it during a tick means a neighborhood computation is wrong.
type OutOfBoundsError struct {
	Pos    Position
	Width  int
	Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("position %s out of bounds for %dx%d grid", e.Pos, e.Width, e.Height)
}

// Grid is a bounded 2D lattice where each cell holds a set of agent IDs.
// It is not safe for concurrent use.
type Grid struct {
	width  int
	height int
	cells  map[Position]map[AgentID]struct{}
}

// New creates an empty grid of the given dimensions.
func New(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		cells:  make(map[Position]map[AgentID]struct{}),
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether pos lies inside the grid.
func (g *Grid) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < g.width && pos.Y >= 0 && pos.Y < g.height
}

// Neighborhood returns the Moore neighborhood of pos clipped to the grid.
// Cells are ordered by dx ascending, then dy ascending, so the result is
// deterministic for a given position and grid size.
func (g *Grid) Neighborhood(pos Position, includeCenter bool) []Position {
	out := make([]Position, 0, 9)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 && !includeCenter {
				continue
			}
			p := Position{X: pos.X + dx, Y: pos.Y + dy}
			if g.InBounds(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// IsEmpty reports whether no agent occupies pos.
func (g *Grid) IsEmpty(pos Position) bool {
	return len(g.cells[pos]) == 0
}

// Place puts agent on pos without removing it from anywhere else. It is
// meant for the initial placement of an agent that is not yet on the grid.
func (g *Grid) Place(agent Agent, pos Position) error {
	if !g.InBounds(pos) {
		return g.outOfBounds(pos)
	}
	g.insert(agent.ID(), pos)
	agent.SetPos(pos)
	return nil
}

// MoveAgent moves agent from its current cell to the cell at to.
func (g *Grid) MoveAgent(agent Agent, to Position) error {
	if !g.InBounds(to) {
		return g.outOfBounds(to)
	}
	g.remove(agent.ID(), agent.Pos())
	g.insert(agent.ID(), to)
	agent.SetPos(to)
	return nil
}

// Occupants returns the IDs on pos in ascending order.
func (g *Grid) Occupants(pos Position) []AgentID {
	members := g.cells[pos]
	ids := make([]AgentID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Occupancy returns a copy of every non-empty cell's membership.
func (g *Grid) Occupancy() map[Position][]AgentID {
	out := make(map[Position][]AgentID, len(g.cells))
	for pos := range g.cells {
		out[pos] = g.Occupants(pos)
	}
	return out
}

// AgentCount returns the number of placed agents.
func (g *Grid) AgentCount() int {
	n := 0
	for _, members := range g.cells {
		n += len(members)
	}
	return n
}

func (g *Grid) insert(id AgentID, pos Position) {
	members, ok := g.cells[pos]
	if !ok {
		members = make(map[AgentID]struct{})
		g.cells[pos] = members
	}
	members[id] = struct{}{}
}

func (g *Grid) remove(id AgentID, pos Position) {
	members, ok := g.cells[pos]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(g.cells, pos)
	}
}

func (g *Grid) outOfBounds(pos Position) error {
	return &OutOfBoundsError{Pos: pos, Width: g.width, Height: g.height}
}
