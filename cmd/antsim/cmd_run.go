package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/antsim/internal/config"
	"github.com/nvandessel/antsim/internal/model"
	"github.com/nvandessel/antsim/internal/session"
	"github.com/nvandessel/antsim/internal/visualization"
)

// runSummary is the --json output of the run command.
type runSummary struct {
	Seed      uint64              `json:"seed"`
	RunID     int64               `json:"run_id,omitempty"`
	Ticks     int                 `json:"ticks"`
	Ants      int                 `json:"ants"`
	Found     int                 `json:"found"`
	Pheromone int                 `json:"pheromone"`
	History   string              `json:"history,omitempty"`
	Reports   []model.TickReport  `json:"reports,omitempty"`
	View      *visualization.View `json:"view,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless and print the result",
		Long: `Run the colony for a number of ticks and print the final grid.

Examples:
  antsim run --ticks 100
  antsim run --ticks 500 --seed 42 --history ~/.antsim/history.db
  antsim run --ticks 50 --every 10
  antsim run --ticks 100 --json --reports`,
		RunE: runSimulation,
	}
	addSimulationFlags(cmd)
	cmd.Flags().Int("ticks", 100, "Number of ticks to run")
	cmd.Flags().Int("every", 0, "Also print the grid every N ticks (text output only)")
	cmd.Flags().String("history", "", "Record tick statistics to this SQLite database (overrides config)")
	cmd.Flags().Bool("reports", false, "Include per-tick reports in JSON output")
	cmd.Flags().Bool("quiet", false, "Print only the summary line")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	ticks, _ := cmd.Flags().GetInt("ticks")
	every, _ := cmd.Flags().GetInt("every")
	withReports, _ := cmd.Flags().GetBool("reports")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if ticks < 0 {
		return fmt.Errorf("--ticks must be non-negative, got %d", ticks)
	}
	if every < 0 {
		return fmt.Errorf("--every must be non-negative, got %d", every)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySimulationFlags(cmd, cfg); err != nil {
		return err
	}
	historyPath := cfg.History.Path
	if cmd.Flags().Changed("history") {
		historyPath, _ = cmd.Flags().GetString("history")
		historyPath = config.ExpandHome(historyPath)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sim, err := newSimulation(ctx, cmd, cfg, historyPath)
	if err != nil {
		return err
	}
	defer sim.Close()

	out := cmd.OutOrStdout()
	chunk := session.MaxTicksPerAdvance
	if every > 0 && !jsonOut {
		chunk = every
	}

	var reports []model.TickReport
	for done := 0; done < ticks; {
		n := min(chunk, ticks-done)
		batch, err := sim.sess.Advance(ctx, n)
		done += len(batch)
		if withReports {
			reports = append(reports, batch...)
		}
		if err != nil {
			if errors.Is(err, ctx.Err()) {
				sim.logger.Info("run interrupted", "tick", sim.sess.Snapshot().Tick)
				break
			}
			return err
		}
		if every > 0 && !jsonOut && !quiet && done < ticks {
			fmt.Fprintln(out, visualization.RenderText(sim.sess.Snapshot()))
		}
	}

	snap := sim.sess.Snapshot()
	if jsonOut {
		view := visualization.NewView(snap)
		return writeJSON(cmd, runSummary{
			Seed:      sim.sess.Seed(),
			RunID:     sim.sess.RunID(),
			Ticks:     snap.Tick,
			Ants:      len(snap.Ants),
			Found:     snap.FoundCount(),
			Pheromone: len(snap.Pheromone),
			History:   historyPath,
			Reports:   reports,
			View:      &view,
		})
	}

	if !quiet {
		fmt.Fprint(out, visualization.RenderText(snap))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "seed %d: %d/%d ants found food after %d ticks, %d pheromone cells\n",
		sim.sess.Seed(), snap.FoundCount(), len(snap.Ants), snap.Tick, len(snap.Pheromone))
	if sim.recorder != nil {
		fmt.Fprintf(out, "recorded as run %d in %s\n", sim.sess.RunID(), sim.recorder.Path())
	}
	return nil
}
