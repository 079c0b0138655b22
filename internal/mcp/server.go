// Package mcp provides an MCP (Model Context Protocol) server that lets an
// assistant drive a live colony simulation.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/antsim/internal/history"
	"github.com/nvandessel/antsim/internal/logging"
	"github.com/nvandessel/antsim/internal/ratelimit"
	"github.com/nvandessel/antsim/internal/session"
)

// Server wraps the MCP SDK server around a simulation session.
type Server struct {
	server       *sdk.Server
	sess         *session.Session
	runs         history.Reader
	exportDir    string
	allowedDirs  []string
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "antsim")
	Version string // Server version

	// Session is the simulation the tools act on. Required.
	Session *session.Session

	// Runs, when non-nil, backs the antsim_runs tool.
	Runs history.Reader

	// ExportDir, when set together with Runs, enables antsim_export.
	// Relative paths given to the tool resolve against it.
	ExportDir string

	// AllowedDirs limits where antsim_export may write. Defaults to
	// ExportDir alone.
	AllowedDirs []string

	// AuditLogger records every tool call. May be nil.
	AuditLogger *AuditLogger

	Logger *slog.Logger
}

// NewServer creates a new MCP server with antsim tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("mcp: a session is required")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		server:       mcpServer,
		sess:         cfg.Session,
		runs:         cfg.Runs,
		exportDir:    cfg.ExportDir,
		allowedDirs:  cfg.AllowedDirs,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  cfg.AuditLogger,
		logger:       logger,
	}

	if len(s.allowedDirs) == 0 && s.exportDir != "" {
		s.allowedDirs = []string{s.exportDir}
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server started", "seed", s.sess.Seed())
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the server's resources.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
