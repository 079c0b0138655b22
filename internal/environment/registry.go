// Package environment holds the position-indexed sets that describe the
// world around the colony: food sources, obstacles and the pheromone trail.
package environment

import "github.com/nvandessel/antsim/internal/grid"

// PositionSet is a set of grid positions.
type PositionSet struct {
	members map[grid.Position]struct{}
}

// NewPositionSet builds a set from ps. Duplicates collapse.
func NewPositionSet(ps ...grid.Position) PositionSet {
	s := PositionSet{members: make(map[grid.Position]struct{}, len(ps))}
	for _, p := range ps {
		s.members[p] = struct{}{}
	}
	return s
}

// Add inserts pos and reports whether it was not already present.
func (s *PositionSet) Add(pos grid.Position) bool {
	if s.members == nil {
		s.members = make(map[grid.Position]struct{})
	}
	if _, ok := s.members[pos]; ok {
		return false
	}
	s.members[pos] = struct{}{}
	return true
}

// Contains reports whether pos is in the set.
func (s PositionSet) Contains(pos grid.Position) bool {
	_, ok := s.members[pos]
	return ok
}

// Len returns the number of members.
func (s PositionSet) Len() int {
	return len(s.members)
}

// Members returns the members sorted by X, then Y.
func (s PositionSet) Members() []grid.Position {
	out := make([]grid.Position, 0, len(s.members))
	for p := range s.members {
		out = append(out, p)
	}
	grid.SortPositions(out)
	return out
}

// Clone returns an independent copy.
func (s PositionSet) Clone() PositionSet {
	c := PositionSet{members: make(map[grid.Position]struct{}, len(s.members))}
	for p := range s.members {
		c.members[p] = struct{}{}
	}
	return c
}

// Registry holds three disjoint-purpose sets. Food and obstacles are fixed
// at construction; the pheromone set only ever grows, and only through
// AddPheromone.
type Registry struct {
	food      PositionSet
	obstacles PositionSet
	pheromone PositionSet
}

// NewRegistry creates a registry with the given static food and obstacle
// sites and an empty pheromone trail.
func NewRegistry(food, obstacles []grid.Position) *Registry {
	return &Registry{
		food:      NewPositionSet(food...),
		obstacles: NewPositionSet(obstacles...),
		pheromone: NewPositionSet(),
	}
}

// HasFood, HasObstacle and HasPheromone report membership of pos in the
// corresponding set.
func (r *Registry) HasFood(pos grid.Position) bool      { return r.food.Contains(pos) }
func (r *Registry) HasObstacle(pos grid.Position) bool  { return r.obstacles.Contains(pos) }
func (r *Registry) HasPheromone(pos grid.Position) bool { return r.pheromone.Contains(pos) }

// FoodSites, ObstacleSites and PheromoneSites return the members of each
// set sorted by X, then Y.
func (r *Registry) FoodSites() []grid.Position      { return r.food.Members() }
func (r *Registry) ObstacleSites() []grid.Position  { return r.obstacles.Members() }
func (r *Registry) PheromoneSites() []grid.Position { return r.pheromone.Members() }

// PheromoneCount returns the number of marked cells.
func (r *Registry) PheromoneCount() int { return r.pheromone.Len() }

// AddPheromone marks pos. Re-marking is a no-op; the return value reports
// whether the cell was newly marked.
func (r *Registry) AddPheromone(pos grid.Position) bool {
	return r.pheromone.Add(pos)
}
