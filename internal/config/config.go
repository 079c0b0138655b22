// Package config provides unified configuration loading for antsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/antsim/internal/grid"
	"github.com/nvandessel/antsim/internal/model"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".antsim"

// AntSimConfig contains all antsim configuration settings.
type AntSimConfig struct {
	// Simulation describes the colony and its environment.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Server configures the interactive visualization server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// History configures the tick statistics log.
	History HistoryConfig `json:"history" yaml:"history"`
}

// SimulationConfig is the setup input handed to the model.
type SimulationConfig struct {
	NumAnts   int             `json:"num_ants" yaml:"num_ants"`
	Width     int             `json:"width" yaml:"width"`
	Height    int             `json:"height" yaml:"height"`
	Food      []grid.Position `json:"food" yaml:"food"`
	Obstacles []grid.Position `json:"obstacles" yaml:"obstacles"`

	// Seed for the random source. 0 means "derive from the clock".
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// ServerConfig configures `antsim serve`.
type ServerConfig struct {
	// Addr is the listen address. Default: localhost:8521.
	Addr string `json:"addr" yaml:"addr"`

	// Title is shown in the page header.
	Title string `json:"title" yaml:"title"`

	// FrameInterval is the delay between ticks while the page is playing.
	FrameInterval time.Duration `json:"frame_interval" yaml:"frame_interval"`

	// OpenBrowser launches the default browser once the server is up.
	OpenBrowser bool `json:"open_browser" yaml:"open_browser"`

	// StepRate caps /api/step requests per second. 0 disables the limit.
	StepRate float64 `json:"step_rate" yaml:"step_rate"`
}

// LoggingConfig configures antsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" and "trace" enable the decision trace in DecisionDir.
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`

	// DecisionDir is where decisions.jsonl is written. Default: ~/.antsim.
	DecisionDir string `json:"decision_dir,omitempty" yaml:"decision_dir,omitempty"`
}

// HistoryConfig configures the SQLite tick statistics log.
type HistoryConfig struct {
	// Path of the SQLite database. Empty disables recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns the stock colony: five ants on a 25x25 grid with food at
// (1,1) and a 2x2 obstacle block.
func Default() *AntSimConfig {
	return &AntSimConfig{
		Simulation: SimulationConfig{
			NumAnts: 5,
			Width:   25,
			Height:  25,
			Food:    []grid.Position{{X: 1, Y: 1}},
			Obstacles: []grid.Position{
				{X: 10, Y: 14}, {X: 11, Y: 14},
				{X: 10, Y: 15}, {X: 11, Y: 15},
			},
		},
		Server: ServerConfig{
			Addr:          "localhost:8521",
			Title:         "Ant Search Model",
			FrameInterval: 200 * time.Millisecond,
			OpenBrowser:   true,
			StepRate:      50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.antsim/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.antsim/config.yaml -> environment variables
func Load() (*AntSimConfig, error) {
	config := Default()

	if path, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fileConfig, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadPath is Load with an explicit file instead of the default location.
// An empty path behaves like Load.
func LoadPath(path string) (*AntSimConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*AntSimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	config.History.Path = ExpandHome(config.History.Path)
	config.Logging.DecisionDir = ExpandHome(config.Logging.DecisionDir)
	return config, nil
}

// Save writes config to path as YAML, creating parent directories.
func (c *AntSimConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks the settings the model does not check itself.
// Grid and population checks are left to model.Config.Validate so there is
// one source of truth for them.
func (c *AntSimConfig) Validate() error {
	if err := c.ModelConfig().Validate(); err != nil {
		return err
	}

	if c.Server.FrameInterval < 0 {
		return fmt.Errorf("frame_interval must be non-negative, got %v", c.Server.FrameInterval)
	}
	if c.Server.StepRate < 0 {
		return fmt.Errorf("step_rate must be non-negative, got %v", c.Server.StepRate)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if c.Logging.Format != "" && !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// ModelConfig converts the simulation section into a model.Config.
func (c *AntSimConfig) ModelConfig() model.Config {
	return model.Config{
		NumAnts:   c.Simulation.NumAnts,
		Width:     c.Simulation.Width,
		Height:    c.Simulation.Height,
		Food:      append([]grid.Position(nil), c.Simulation.Food...),
		Obstacles: append([]grid.Position(nil), c.Simulation.Obstacles...),
	}
}

// ResolveSeed returns the configured seed, or a clock-derived one when the
// seed is 0.
func (c *AntSimConfig) ResolveSeed() uint64 {
	if c.Simulation.Seed != 0 {
		return c.Simulation.Seed
	}
	return uint64(time.Now().UnixNano())
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *AntSimConfig) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"ANTSIM_NUM_ANTS", &config.Simulation.NumAnts},
		{"ANTSIM_WIDTH", &config.Simulation.Width},
		{"ANTSIM_HEIGHT", &config.Simulation.Height},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = n
		}
	}

	if v := os.Getenv("ANTSIM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ANTSIM_SEED: %w", err)
		}
		config.Simulation.Seed = n
	}

	if v := os.Getenv("ANTSIM_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("ANTSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv("ANTSIM_HISTORY_PATH"); v != "" {
		config.History.Path = ExpandHome(v)
	}

	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
