// Package visualization renders colony snapshots as text, JSON and an
// interactive HTML canvas, and serves a live session over HTTP.
package visualization

import (
	"github.com/nvandessel/antsim/internal/grid"
	"github.com/nvandessel/antsim/internal/model"
)

// Format specifies the output format for snapshot rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Kind is what a portrayal depicts.
type Kind string

const (
	KindFood      Kind = "food"
	KindObstacle  Kind = "obstacle"
	KindPheromone Kind = "pheromone"
	KindAnt       Kind = "ant"
)

// drawOrder is the order in which kinds are stacked within a cell, bottom
// first. Pheromone is drawn over food so a claimed food cell shows its mark.
var drawOrder = []Kind{KindFood, KindObstacle, KindPheromone, KindAnt}

// Portrayal describes how one thing in a cell is drawn on a canvas whose
// cells are 1x1.
type Portrayal struct {
	Kind   Kind    `json:"kind"`
	Shape  string  `json:"shape"`
	Color  string  `json:"color"`
	Filled bool    `json:"filled"`
	Layer  int     `json:"layer"`
	R      float64 `json:"r,omitempty"`
	W      float64 `json:"w,omitempty"`
	H      float64 `json:"h,omitempty"`

	// Count is the number of ants in the cell. Ant portrayals only.
	Count int `json:"count,omitempty"`

	// Found is true when any ant in the cell has found food.
	Found bool `json:"found,omitempty"`
}

// Portray returns the portrayal of k.
func Portray(k Kind) Portrayal {
	switch k {
	case KindAnt:
		return Portrayal{Kind: k, Shape: "circle", Color: "red", Filled: true, Layer: 1, R: 0.8}
	case KindFood:
		return Portrayal{Kind: k, Shape: "rect", Color: "green", Filled: true, Layer: 0, W: 0.9, H: 0.9}
	case KindObstacle:
		return Portrayal{Kind: k, Shape: "rect", Color: "black", Filled: true, Layer: 0, W: 0.9, H: 0.9}
	case KindPheromone:
		return Portrayal{Kind: k, Shape: "circle", Color: "blue", Filled: true, Layer: 0, R: 0.4}
	default:
		return Portrayal{Kind: k}
	}
}

// CellView is one non-blank cell and everything drawn in it, bottom first.
type CellView struct {
	Position grid.Position `json:"pos"`
	Layers   []Portrayal   `json:"layers"`
}

// Top returns the uppermost portrayal in the cell.
func (c CellView) Top() Portrayal {
	return c.Layers[len(c.Layers)-1]
}

// Describe lists every non-blank cell of s in position order.
func Describe(s model.Snapshot) []CellView {
	kinds := make(map[grid.Position]map[Kind]bool)
	mark := func(p grid.Position, k Kind) {
		if kinds[p] == nil {
			kinds[p] = make(map[Kind]bool, 1)
		}
		kinds[p][k] = true
	}
	for _, p := range s.Food {
		mark(p, KindFood)
	}
	for _, p := range s.Obstacles {
		mark(p, KindObstacle)
	}
	for _, p := range s.Pheromone {
		mark(p, KindPheromone)
	}

	ants := make(map[grid.Position]Portrayal)
	for _, a := range s.Ants {
		mark(a.Position, KindAnt)
		pa, ok := ants[a.Position]
		if !ok {
			pa = Portray(KindAnt)
		}
		pa.Count++
		pa.Found = pa.Found || a.HasFoundFood
		ants[a.Position] = pa
	}

	positions := make([]grid.Position, 0, len(kinds))
	for p := range kinds {
		positions = append(positions, p)
	}
	grid.SortPositions(positions)

	out := make([]CellView, 0, len(positions))
	for _, p := range positions {
		cv := CellView{Position: p}
		for _, k := range drawOrder {
			if !kinds[p][k] {
				continue
			}
			if k == KindAnt {
				cv.Layers = append(cv.Layers, ants[p])
			} else {
				cv.Layers = append(cv.Layers, Portray(k))
			}
		}
		out = append(out, cv)
	}
	return out
}

// View is the serialized form of a snapshot used by the JSON renderer, the
// HTML page and the HTTP API.
type View struct {
	Tick      int              `json:"tick"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Ants      []model.AntState `json:"ants"`
	Found     int              `json:"found"`
	Pheromone int              `json:"pheromone"`
	Cells     []CellView       `json:"cells"`
}

// NewView builds the View of s.
func NewView(s model.Snapshot) View {
	return View{
		Tick:      s.Tick,
		Width:     s.Width,
		Height:    s.Height,
		Ants:      s.Ants,
		Found:     s.FoundCount(),
		Pheromone: len(s.Pheromone),
		Cells:     Describe(s),
	}
}
