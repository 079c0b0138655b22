package model

import (
	"github.com/nvandessel/antsim/internal/grid"
)

// AntState is a read-only view of one ant.
type AntState struct {
	ID           grid.AgentID  `json:"id"`
	Position     grid.Position `json:"position"`
	HasFoundFood bool          `json:"has_found_food"`
}

// CellOccupancy lists the ants on one cell.
type CellOccupancy struct {
	Position grid.Position  `json:"position"`
	Ants     []grid.AgentID `json:"ants"`
}

// Snapshot is a self-contained copy of everything an outer layer may read
// after a tick. Slices are ordered (ants by ID, positions by X then Y) so
// two snapshots of the same state compare equal.
type Snapshot struct {
	Tick      int             `json:"tick"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Ants      []AntState      `json:"ants"`
	Occupancy []CellOccupancy `json:"occupancy"`
	Food      []grid.Position `json:"food"`
	Obstacles []grid.Position `json:"obstacles"`
	Pheromone []grid.Position `json:"pheromone"`
}

// FoundCount returns how many ants have found food in s.
func (s Snapshot) FoundCount() int {
	n := 0
	for _, a := range s.Ants {
		if a.HasFoundFood {
			n++
		}
	}
	return n
}

// CurrentOccupancy returns a copy of the grid's cell membership.
func (m *Model) CurrentOccupancy() map[grid.Position][]grid.AgentID {
	return m.grid.Occupancy()
}

// FoodSites, ObstacleSites and PheromoneSites expose the environment sets,
// sorted by X, then Y.
func (m *Model) FoodSites() []grid.Position      { return m.env.FoodSites() }
func (m *Model) ObstacleSites() []grid.Position  { return m.env.ObstacleSites() }
func (m *Model) PheromoneSites() []grid.Position { return m.env.PheromoneSites() }

// TickCount returns the number of completed or attempted ticks.
func (m *Model) TickCount() int { return m.tick }

// Width and Height return the grid dimensions.
func (m *Model) Width() int  { return m.grid.Width() }
func (m *Model) Height() int { return m.grid.Height() }

// Ants returns the state of every ant ordered by ID.
func (m *Model) Ants() []AntState {
	out := make([]AntState, len(m.ants))
	for i, a := range m.ants {
		out[i] = AntState{ID: a.ID(), Position: a.Pos(), HasFoundFood: a.HasFoundFood()}
	}
	return out
}

// FoundCount returns how many ants have claimed food.
func (m *Model) FoundCount() int {
	n := 0
	for _, a := range m.ants {
		if a.HasFoundFood() {
			n++
		}
	}
	return n
}

// Snapshot captures the current state.
func (m *Model) Snapshot() Snapshot {
	occ := m.grid.Occupancy()
	cells := make([]grid.Position, 0, len(occ))
	for p := range occ {
		cells = append(cells, p)
	}
	grid.SortPositions(cells)

	occupancy := make([]CellOccupancy, len(cells))
	for i, p := range cells {
		occupancy[i] = CellOccupancy{Position: p, Ants: occ[p]}
	}

	return Snapshot{
		Tick:      m.tick,
		Width:     m.grid.Width(),
		Height:    m.grid.Height(),
		Ants:      m.Ants(),
		Occupancy: occupancy,
		Food:      m.env.FoodSites(),
		Obstacles: m.env.ObstacleSites(),
		Pheromone: m.env.PheromoneSites(),
	}
}
