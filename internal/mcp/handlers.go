package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/pathutil"
	"github.com/nvandessel/antsim/internal/ratelimit"
	"github.com/nvandessel/antsim/internal/visualization"
)

const (
	stateURI = "antsim://state"

	// maxStepTicks caps a single antsim_step call.
	maxStepTicks = 1000

	defaultRunsLimit = 20
)

// registerTools registers all antsim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "antsim_step",
		Description: "Advance the ant colony simulation by a number of ticks and report what the ants did",
	}, s.handleStep)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "antsim_state",
		Description: "Describe the current colony: tick, ants that found food, pheromone trail size, optionally the full grid",
	}, s.handleState)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "antsim_reset",
		Description: "Restart the simulation from tick 0, optionally with a new seed",
	}, s.handleReset)

	if s.runs != nil {
		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "antsim_runs",
			Description: "List recorded simulation runs with their seeds and tick counts",
		}, s.handleRuns)

		if s.exportDir != "" {
			sdk.AddTool(s.server, &sdk.Tool{
				Name:        "antsim_export",
				Description: "Write the per-tick statistics of a recorded run to an Apache Arrow IPC file",
			}, s.handleExport)
		}
	}
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         stateURI,
		Name:        "antsim-state",
		Description: "Summary and character grid of the live colony simulation.",
		MIMEType:    "text/markdown",
	}, s.handleStateResource)
}

// handleStateResource returns the colony summary as markdown.
func (s *Server) handleStateResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	snap := s.sess.Snapshot()

	var b strings.Builder
	b.WriteString("# Ant Colony\n\n")
	fmt.Fprintf(&b, "- Seed: %d\n", s.sess.Seed())
	fmt.Fprintf(&b, "- Tick: %d\n", snap.Tick)
	fmt.Fprintf(&b, "- Grid: %dx%d\n", snap.Width, snap.Height)
	fmt.Fprintf(&b, "- Ants: %d (%d found food)\n", len(snap.Ants), snap.FoundCount())
	fmt.Fprintf(&b, "- Pheromone cells: %d\n\n", len(snap.Pheromone))
	b.WriteString("```\n")
	b.WriteString(visualization.RenderText(snap))
	b.WriteString("```\n\nLegend:\n")
	for _, l := range visualization.Legend() {
		b.WriteString("- " + l + "\n")
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      stateURI,
				MIMEType: "text/markdown",
				Text:     b.String(),
			},
		},
	}, nil
}

// handleStep implements the antsim_step tool.
func (s *Server) handleStep(ctx context.Context, req *sdk.CallToolRequest, args StepInput) (_ *sdk.CallToolResult, _ StepOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("antsim_step", start, retErr, map[string]string{"ticks": strconv.Itoa(args.Ticks)})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "antsim_step"); err != nil {
		return nil, StepOutput{}, err
	}

	ticks := args.Ticks
	if ticks == 0 {
		ticks = 1
	}
	if ticks < 0 || ticks > maxStepTicks {
		return nil, StepOutput{}, fmt.Errorf("ticks must be between 1 and %d, got %d", maxStepTicks, args.Ticks)
	}

	reports, err := s.sess.Advance(ctx, ticks)
	if err != nil {
		return nil, StepOutput{}, fmt.Errorf("advance simulation: %w", err)
	}

	snap := s.sess.Snapshot()
	out := StepOutput{
		Reports:   reports,
		Tick:      snap.Tick,
		Found:     snap.FoundCount(),
		Pheromone: len(snap.Pheromone),
	}

	claimed, trail := 0, 0
	for _, r := range reports {
		claimed += r.Claimed
		trail += r.Trail
	}
	out.Message = fmt.Sprintf("Advanced %d tick(s) to tick %d: %d ant(s) claimed food, %d move(s) followed the trail; %d/%d ants have found food.",
		len(reports), snap.Tick, claimed, trail, out.Found, len(snap.Ants))
	return nil, out, nil
}

// handleState implements the antsim_state tool.
func (s *Server) handleState(ctx context.Context, req *sdk.CallToolRequest, args StateInput) (_ *sdk.CallToolResult, _ StateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("antsim_state", start, retErr, map[string]string{"format": args.Format})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "antsim_state"); err != nil {
		return nil, StateOutput{}, err
	}

	snap := s.sess.Snapshot()
	out := StateOutput{
		Tick:      snap.Tick,
		Seed:      s.sess.Seed(),
		Width:     snap.Width,
		Height:    snap.Height,
		Ants:      len(snap.Ants),
		Found:     snap.FoundCount(),
		Pheromone: len(snap.Pheromone),
	}

	switch args.Format {
	case "", "summary":
	case string(visualization.FormatText):
		out.Grid = visualization.RenderText(snap)
	case string(visualization.FormatJSON):
		view := visualization.NewView(snap)
		out.View = &view
	default:
		return nil, StateOutput{}, fmt.Errorf("unsupported format %q (use 'summary', 'text', or 'json')", args.Format)
	}
	return nil, out, nil
}

// handleReset implements the antsim_reset tool.
func (s *Server) handleReset(ctx context.Context, req *sdk.CallToolRequest, args ResetInput) (_ *sdk.CallToolResult, _ ResetOutput, retErr error) {
	start := time.Now()
	params := map[string]string{}
	if args.Seed != nil {
		params["seed"] = strconv.FormatUint(*args.Seed, 10)
	}
	defer func() {
		s.auditTool("antsim_reset", start, retErr, params)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "antsim_reset"); err != nil {
		return nil, ResetOutput{}, err
	}

	seed := s.sess.Seed()
	if args.Seed != nil {
		seed = *args.Seed
	}
	if err := s.sess.Reset(ctx, seed); err != nil {
		return nil, ResetOutput{}, fmt.Errorf("reset simulation: %w", err)
	}

	return nil, ResetOutput{
		Seed:    seed,
		Message: fmt.Sprintf("Simulation reset to tick 0 with seed %d.", seed),
	}, nil
}

// handleRuns implements the antsim_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("antsim_runs", start, retErr, map[string]string{"limit": strconv.Itoa(args.Limit)})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "antsim_runs"); err != nil {
		return nil, RunsOutput{}, err
	}
	if s.runs == nil {
		return nil, RunsOutput{}, errors.New("run history is not enabled")
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	runs, err := s.runs.ListRuns(ctx)
	if err != nil {
		return nil, RunsOutput{}, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return nil, RunsOutput{Runs: runs, Count: len(runs)}, nil
}

// handleExport implements the antsim_export tool.
func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, args ExportInput) (_ *sdk.CallToolResult, _ ExportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("antsim_export", start, retErr, map[string]string{
			"run_id": strconv.FormatInt(args.RunID, 10),
			"path":   pathutil.RedactPath(args.Path),
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "antsim_export"); err != nil {
		return nil, ExportOutput{}, err
	}
	if s.runs == nil || s.exportDir == "" {
		return nil, ExportOutput{}, errors.New("export is not enabled")
	}
	if args.RunID <= 0 {
		return nil, ExportOutput{}, fmt.Errorf("run_id must be positive, got %d", args.RunID)
	}

	path := args.Path
	if path == "" {
		path = fmt.Sprintf("run-%d.arrow", args.RunID)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.exportDir, path)
	}
	if err := pathutil.ValidatePath(path, s.allowedDirs); err != nil {
		return nil, ExportOutput{}, err
	}

	ticks, err := s.runs.Ticks(ctx, args.RunID)
	if err != nil {
		return nil, ExportOutput{}, fmt.Errorf("load run %d: %w", args.RunID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, ExportOutput{}, fmt.Errorf("create %s: %w", pathutil.RedactPath(path), err)
	}
	if err := history.WriteArrow(f, ticks); err != nil {
		f.Close()
		return nil, ExportOutput{}, err
	}
	if err := f.Close(); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("close %s: %w", pathutil.RedactPath(path), err)
	}

	return nil, ExportOutput{
		Path:    path,
		Ticks:   len(ticks),
		Message: fmt.Sprintf("Exported %d tick(s) of run %d.", len(ticks), args.RunID),
	}, nil
}
