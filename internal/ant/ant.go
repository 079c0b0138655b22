// Package ant implements a single foraging agent and its per-step decision
// policy.
//
// An ant is in one of two states. While Seeking it wanders the grid,
// preferring cells that already carry pheromone and otherwise picking an
// unoccupied neighbor at random; every cell it steps on is marked. Once it
// stands on food it switches to Found, marks the food cell and never moves
// again.
//
// Ants hold no reference to the simulation. The world is passed to Step as
// an explicit collaborator.
package ant

import (
	"github.com/nvandessel/antsim/internal/grid"
)

// World is the view of the simulation an ant needs during its step.
// MoveAgent and PlacePheromone are the only mutations an ant may request.
type World interface {
	Neighborhood(pos grid.Position, includeCenter bool) []grid.Position
	IsEmpty(pos grid.Position) bool
	HasFood(pos grid.Position) bool
	HasPheromone(pos grid.Position) bool
	MoveAgent(a *Ant, to grid.Position) error
	PlacePheromone(pos grid.Position)
}

// Rand picks uniformly in [0,n). *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// State is the ant's position in its two-state lifecycle.
type State int

const (
	Seeking State = iota
	Found
)

func (s State) String() string {
	switch s {
	case Seeking:
		return "seeking"
	case Found:
		return "found"
	default:
		return "unknown"
	}
}

// Action describes what a step did.
type Action string

const (
	ActionMove  Action = "move"  // moved to a neighbor and marked it
	ActionClaim Action = "claim" // stood on food, switched to Found
	ActionStay  Action = "stay"  // no candidate cell, nothing changed
	ActionIdle  Action = "idle"  // already Found, step short-circuited
)

// Decision is the outcome of one step.
type Decision struct {
	Ant           grid.AgentID
	Action        Action
	From          grid.Position
	To            grid.Position
	Candidates    int  // size of the candidate pool (move/stay only)
	FollowedTrail bool // pool came from pheromone-marked cells
}

// Ant is one foraging unit.
type Ant struct {
	id           grid.AgentID
	pos          grid.Position
	hasFoundFood bool
}

// New creates a seeking ant. Its position is set when the grid places it.
func New(id grid.AgentID) *Ant {
	return &Ant{id: id}
}

// ID and Pos return the ant's identity and current cell.
func (a *Ant) ID() grid.AgentID   { return a.id }
func (a *Ant) Pos() grid.Position { return a.pos }

// SetPos records a new position. Only the grid calls it, after updating
// cell membership.
func (a *Ant) SetPos(p grid.Position) { a.pos = p }

// HasFoundFood reports whether the ant has claimed food.
func (a *Ant) HasFoundFood() bool { return a.hasFoundFood }

// State returns Found once food has been claimed, Seeking before.
func (a *Ant) State() State {
	if a.hasFoundFood {
		return Found
	}
	return Seeking
}

// Candidates returns the cells the ant would choose among from its current
// position. Pheromone-marked neighbors win outright; only when none exist
// does the pool fall back to unoccupied neighbors. trail reports which rule
// produced the pool.
func (a *Ant) Candidates(w World) (pool []grid.Position, trail bool) {
	neighbors := w.Neighborhood(a.pos, false)

	for _, c := range neighbors {
		if w.HasPheromone(c) {
			pool = append(pool, c)
		}
	}
	if len(pool) > 0 {
		return pool, true
	}

	for _, c := range neighbors {
		if w.IsEmpty(c) {
			pool = append(pool, c)
		}
	}
	return pool, false
}

// Step runs the decision policy once. The only error it can return comes
// from w.MoveAgent.
func (a *Ant) Step(w World, rng Rand) (Decision, error) {
	d := Decision{Ant: a.id, From: a.pos, To: a.pos}

	if a.hasFoundFood {
		d.Action = ActionIdle
		return d, nil
	}

	if w.HasFood(a.pos) {
		a.hasFoundFood = true
		w.PlacePheromone(a.pos)
		d.Action = ActionClaim
		return d, nil
	}

	pool, trail := a.Candidates(w)
	d.Candidates = len(pool)
	d.FollowedTrail = trail
	if len(pool) == 0 {
		d.Action = ActionStay
		return d, nil
	}

	dest := pool[rng.IntN(len(pool))]
	if err := w.MoveAgent(a, dest); err != nil {
		return d, err
	}
	w.PlacePheromone(dest)

	d.Action = ActionMove
	d.To = dest
	return d, nil
}
