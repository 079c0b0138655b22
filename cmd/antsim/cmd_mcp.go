package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/antsim/internal/config"
	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/mcp"
	"github.com/nvandessel/antsim/internal/pathutil"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve a live colony over the Model Context Protocol (stdio)",
		Long: `Run an MCP server on stdin/stdout exposing a live colony simulation.

Tools:
  antsim_step    advance the simulation
  antsim_state   describe the colony, optionally with the full grid
  antsim_reset   restart, optionally with a new seed
  antsim_runs    list recorded runs (when history is enabled)
  antsim_export  write a run to ~/.antsim/exports as Arrow (when history is enabled)

Every tool call is appended to ~/.antsim/audit.jsonl.

Example client configuration:
  {"command": "antsim", "args": ["mcp-server", "--history", "~/.antsim/history.db"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			historyPath, _ := cmd.Flags().GetString("history")
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("history") {
				historyPath = config.ExpandHome(historyPath)
			} else {
				historyPath = cfg.History.Path
			}
			if err := applySimulationFlags(cmd, cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			sim, err := newSimulation(ctx, cmd, cfg, historyPath)
			if err != nil {
				return err
			}
			defer sim.Close()

			var audit *mcp.AuditLogger
			if !noAudit {
				if dir, err := antsimDir(); err == nil {
					audit = mcp.NewAuditLogger(dir)
				}
			}

			var (
				runs      history.Reader
				exportDir string
				allowed   []string
			)
			if sim.recorder != nil {
				runs = sim.recorder
				if exportDir, err = pathutil.DefaultExportDir(); err != nil {
					return err
				}
				if allowed, err = pathutil.DefaultAllowedDirs(); err != nil {
					return err
				}
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:        "antsim",
				Version:     version,
				Session:     sim.sess,
				Runs:        runs,
				ExportDir:   exportDir,
				AllowedDirs: allowed,
				AuditLogger: audit,
				Logger:      sim.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			return server.Run(ctx)
		},
	}
	addSimulationFlags(cmd)
	cmd.Flags().String("history", "", "Record tick statistics to this SQLite database (overrides config)")
	cmd.Flags().Bool("no-audit", false, "Do not write the tool-call audit log")
	return cmd
}
