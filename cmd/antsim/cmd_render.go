package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/antsim/internal/visualization"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the colony grid as text, JSON or a static HTML page",
		Long: `Advance a fresh colony by --ticks and render the resulting grid.

HTML output is a self-contained page drawing the grid on a canvas. It is
written to --output (default: a temp file) and opened in the browser
unless --no-open is given.

Examples:
  antsim render --ticks 20
  antsim render --ticks 50 --format json
  antsim render --ticks 200 --format html -o colony.html --no-open`,
		RunE: runRender,
	}
	addSimulationFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Number of ticks to run before rendering")
	cmd.Flags().String("format", "text", "Output format: text, json or html")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().Bool("no-open", false, "Do not open HTML output in the browser")
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	ticks, _ := cmd.Flags().GetInt("ticks")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	noOpen, _ := cmd.Flags().GetBool("no-open")

	if ticks < 0 {
		return fmt.Errorf("--ticks must be non-negative, got %d", ticks)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySimulationFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sim, err := newSimulation(ctx, cmd, cfg, "")
	if err != nil {
		return err
	}
	defer sim.Close()

	if _, err := sim.sess.Advance(ctx, ticks); err != nil {
		return err
	}

	data, err := visualization.Render(sim.sess.Snapshot(), visualization.Format(format), visualization.PageOptions{
		Title:         cfg.Server.Title,
		FrameInterval: cfg.Server.FrameInterval,
	})
	if err != nil {
		return err
	}

	if visualization.Format(format) == visualization.FormatHTML {
		return writeStaticHTML(cmd, data, output, noOpen)
	}

	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Grid written to %s\n", output)
	return nil
}

// writeStaticHTML writes a rendered page to output (or a temp file) and
// optionally opens it.
func writeStaticHTML(cmd *cobra.Command, data []byte, output string, noOpen bool) error {
	outPath := output
	if outPath == "" {
		outPath = filepath.Join(os.TempDir(), "antsim-grid.html")
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Grid written to %s\n", outPath)

	if !noOpen {
		if err := visualization.OpenBrowser(outPath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\n", err)
		}
	}
	return nil
}
