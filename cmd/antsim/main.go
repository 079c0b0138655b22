package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "antsim",
		Short: "Ant colony foraging simulation",
		Long: `antsim simulates a colony of ants searching a bounded grid for food.

Ants wander the grid, prefer cells marked with pheromone, and mark every
cell they move onto. An ant that reaches food claims it and stops.

Run a simulation in the terminal, render it to HTML, watch it live in the
browser, or drive it from an assistant over MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.antsim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newRenderCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
