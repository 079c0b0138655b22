package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/antsim/internal/config"
	"github.com/nvandessel/antsim/internal/visualization"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the colony live in the browser",
		Long: `Start a local HTTP server that draws the colony on a canvas and lets
you step, run and reset it from the page.

Endpoints:
  GET  /             live page
  GET  /api/state    current grid as JSON
  POST /api/step     advance ?n= ticks (default 1)
  POST /api/reset    restart, optionally with ?seed=

Examples:
  antsim serve
  antsim serve --addr localhost:9000 --seed 7 --no-open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			historyPath, _ := cmd.Flags().GetString("history")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if noOpen {
				cfg.Server.OpenBrowser = false
			}
			if cmd.Flags().Changed("history") {
				historyPath = config.ExpandHome(historyPath)
			} else {
				historyPath = cfg.History.Path
			}
			if err := applySimulationFlags(cmd, cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			sim, err := newSimulation(ctx, cmd, cfg, historyPath)
			if err != nil {
				return err
			}
			defer sim.Close()

			srv := visualization.NewServer(sim.sess,
				visualization.WithAddr(cfg.Server.Addr),
				visualization.WithTitle(cfg.Server.Title),
				visualization.WithFrameInterval(cfg.Server.FrameInterval),
				visualization.WithStepRate(cfg.Server.StepRate),
				visualization.WithServerLogger(sim.logger),
			)
			return runSimulationServer(cmd, ctx, srv, cfg.Server.OpenBrowser)
		},
	}
	addSimulationFlags(cmd)
	cmd.Flags().String("addr", visualization.DefaultAddr, "Listen address")
	cmd.Flags().Bool("no-open", false, "Don't open the browser")
	cmd.Flags().String("history", "", "Record tick statistics to this SQLite database (overrides config)")
	return cmd
}

// runSimulationServer serves srv and blocks until ctx is cancelled.
func runSimulationServer(cmd *cobra.Command, ctx context.Context, srv *visualization.Server, openBrowser bool) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Addr() != "" {
			break
		}
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}

	if srv.Addr() == "" {
		return fmt.Errorf("server failed to start")
	}

	url := srv.URL()
	fmt.Fprintf(cmd.OutOrStdout(), "Simulation server running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if openBrowser {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	// Block until server exits
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
