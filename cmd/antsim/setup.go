package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/antsim/internal/config"
	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/logging"
	"github.com/nvandessel/antsim/internal/model"
	"github.com/nvandessel/antsim/internal/session"
)

// loadConfig loads the configuration named by --config (or the default
// location) and applies --log-level. It does not validate.
func loadConfig(cmd *cobra.Command) (*config.AntSimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// addSimulationFlags registers the flags that override the simulation
// section of the config.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("seed", 0, "Random seed (0 derives one from the clock)")
	cmd.Flags().Int("ants", 0, "Number of ants (overrides config)")
	cmd.Flags().Int("width", 0, "Grid width (overrides config)")
	cmd.Flags().Int("height", 0, "Grid height (overrides config)")
}

// applySimulationFlags copies explicitly set simulation flags into cfg and
// validates the result.
func applySimulationFlags(cmd *cobra.Command, cfg *config.AntSimConfig) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("ants") {
		cfg.Simulation.NumAnts, _ = flags.GetInt("ants")
	}
	if flags.Changed("width") {
		cfg.Simulation.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		cfg.Simulation.Height, _ = flags.GetInt("height")
	}
	return cfg.Validate()
}

// newLogger builds the operational logger. Logs go to stderr so stdout
// stays clean for rendered output and the MCP protocol.
func newLogger(cmd *cobra.Command, cfg *config.AntSimConfig) *slog.Logger {
	if cfg.Logging.Format == "json" {
		return logging.NewJSONLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	}
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// antsimDir returns ~/.antsim.
func antsimDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, config.DirName), nil
}

// openDecisionLogger opens the decision trace when the log level asks for
// one. Returns nil otherwise.
func openDecisionLogger(cfg *config.AntSimConfig) *logging.DecisionLogger {
	dir := cfg.Logging.DecisionDir
	if dir == "" {
		d, err := antsimDir()
		if err != nil {
			return nil
		}
		dir = d
	}
	return logging.NewDecisionLogger(dir, cfg.Logging.Level)
}

// defaultHistoryPath returns the history database used when neither a flag
// nor the config names one.
func defaultHistoryPath() (string, error) {
	dir, err := antsimDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// simulation bundles a session with the resources it owns.
type simulation struct {
	sess      *session.Session
	recorder  *history.SQLiteRecorder
	decisions *logging.DecisionLogger
	logger    *slog.Logger
}

// newSimulation builds a session from cfg. When historyPath is non-empty
// every tick is recorded there.
func newSimulation(ctx context.Context, cmd *cobra.Command, cfg *config.AntSimConfig, historyPath string) (*simulation, error) {
	sim := &simulation{
		logger:    newLogger(cmd, cfg),
		decisions: openDecisionLogger(cfg),
	}

	opts := []session.Option{
		session.WithLogger(sim.logger),
		session.WithModelOptions(model.WithLogger(sim.logger), model.WithDecisionLogger(sim.decisions)),
	}

	if historyPath != "" {
		rec, err := history.OpenSQLite(ctx, historyPath)
		if err != nil {
			sim.decisions.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		sim.recorder = rec
		opts = append(opts, session.WithRecorder(rec))
	}

	sess, err := session.New(ctx, cfg.ModelConfig(), cfg.ResolveSeed(), opts...)
	if err != nil {
		sim.Close()
		return nil, err
	}
	sim.sess = sess
	return sim, nil
}

// Close releases the history database and decision trace.
func (s *simulation) Close() {
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.logger.Warn("closing history database", "error", err)
		}
	}
	s.decisions.Close()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// writeJSON writes v to the command's stdout as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
