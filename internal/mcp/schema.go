package mcp

import (
	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/model"
	"github.com/nvandessel/antsim/internal/visualization"
)

// StepInput defines the input for antsim_step tool.
type StepInput struct {
	Ticks int `json:"ticks,omitempty" jsonschema:"Number of ticks to advance (default 1, max 1000)"`
}

// StepOutput defines the output for antsim_step tool.
type StepOutput struct {
	Reports   []model.TickReport `json:"reports" jsonschema:"One report per executed tick"`
	Tick      int                `json:"tick" jsonschema:"Tick count after stepping"`
	Found     int                `json:"found" jsonschema:"Ants that have found food"`
	Pheromone int                `json:"pheromone" jsonschema:"Cells marked with pheromone"`
	Message   string             `json:"message" jsonschema:"Human-readable summary"`
}

// StateInput defines the input for antsim_state tool.
type StateInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: 'summary' (default), 'text' or 'json'"`
}

// StateOutput defines the output for antsim_state tool.
type StateOutput struct {
	Tick      int    `json:"tick" jsonschema:"Number of completed ticks"`
	Seed      uint64 `json:"seed" jsonschema:"Seed of the current run"`
	Width     int    `json:"width" jsonschema:"Grid width"`
	Height    int    `json:"height" jsonschema:"Grid height"`
	Ants      int    `json:"ants" jsonschema:"Number of ants"`
	Found     int    `json:"found" jsonschema:"Ants that have found food"`
	Pheromone int    `json:"pheromone" jsonschema:"Cells marked with pheromone"`

	Grid string              `json:"grid,omitempty" jsonschema:"Character grid (format 'text')"`
	View *visualization.View `json:"view,omitempty" jsonschema:"Full cell-by-cell state (format 'json')"`
}

// ResetInput defines the input for antsim_reset tool.
type ResetInput struct {
	Seed *uint64 `json:"seed,omitempty" jsonschema:"Seed for the new run (default: reuse the current seed)"`
}

// ResetOutput defines the output for antsim_reset tool.
type ResetOutput struct {
	Seed    uint64 `json:"seed" jsonschema:"Seed of the new run"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}

// RunsInput defines the input for antsim_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to list, newest first (default 20)"`
}

// RunsOutput defines the output for antsim_runs tool.
type RunsOutput struct {
	Runs  []history.Run `json:"runs" jsonschema:"Recorded runs, newest first"`
	Count int           `json:"count" jsonschema:"Number of runs returned"`
}

// ExportInput defines the input for antsim_export tool.
type ExportInput struct {
	RunID int64  `json:"run_id" jsonschema:"ID of the recorded run to export (see antsim_runs)"`
	Path  string `json:"path,omitempty" jsonschema:"Output file inside the export directory (default: run-<id>.arrow there)"`
}

// ExportOutput defines the output for antsim_export tool.
type ExportOutput struct {
	Path    string `json:"path" jsonschema:"File the Arrow IPC stream was written to"`
	Ticks   int    `json:"ticks" jsonschema:"Number of tick rows written"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}
