package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nvandessel/antsim/internal/logging"
	"github.com/nvandessel/antsim/internal/model"
	"github.com/nvandessel/antsim/internal/session"
)

// DefaultAddr is the address the server listens on when none is given.
const DefaultAddr = "localhost:8521"

// MaxStepsPerRequest caps the n parameter of /api/step.
const MaxStepsPerRequest = 1000

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address. "localhost:0" lets the OS pick a port.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.listenAddr = addr }
}

// WithTitle sets the page title.
func WithTitle(title string) ServerOption {
	return func(s *Server) { s.title = title }
}

// WithFrameInterval sets the playback delay between ticks.
func WithFrameInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.frameInterval = d }
}

// WithStepRate limits /api/step to perSecond requests. Zero disables the
// limit.
func WithStepRate(perSecond float64) ServerOption {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithServerLogger sets the request logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server serves the interactive grid page and the simulation API.
type Server struct {
	sess          *session.Session
	listenAddr    string
	title         string
	frameInterval time.Duration
	limiter       *rate.Limiter
	logger        *slog.Logger

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a server for sess.
func NewServer(sess *session.Session, opts ...ServerOption) *Server {
	s := &Server{
		sess:          sess,
		listenAddr:    DefaultAddr,
		title:         "Ant Search Model",
		frameInterval: 200 * time.Millisecond,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the page URL, or empty string before the server starts.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr + "/"
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/step", s.handleStep)
	mux.HandleFunc("/api/reset", s.handleReset)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	s.logger.Info("visualization server listening", "addr", s.addr)

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// stepResponse is the body of /api/step.
type stepResponse struct {
	Reports []model.TickReport `json:"reports"`
	State   View               `json:"state"`
}

// resetResponse is the body of /api/reset.
type resetResponse struct {
	Seed  uint64 `json:"seed"`
	State View   `json:"state"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// Handler may be mounted without ListenAndServe, in which case the
	// page talks back to whichever host served it.
	host := s.Addr()
	if host == "" {
		host = r.Host
	}
	html, err := RenderHTML(s.sess.Snapshot(), PageOptions{
		Title:         s.title,
		APIBase:       "http://" + host,
		FrameInterval: s.frameInterval,
	})
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, NewView(s.sess.Snapshot()))
}

// handleStep advances the simulation by n ticks (default 1).
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "step rate exceeded", http.StatusTooManyRequests)
		return
	}

	n := 1
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > MaxStepsPerRequest {
			http.Error(w, fmt.Sprintf("'n' must be an integer between 1 and %d", MaxStepsPerRequest), http.StatusBadRequest)
			return
		}
		n = parsed
	}

	reports, err := s.sess.Advance(r.Context(), n)
	if err != nil {
		s.logger.Error("step failed", "ticks", n, "error", err)
		http.Error(w, "step error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Debug("stepped", "ticks", n)
	writeJSON(w, http.StatusOK, stepResponse{Reports: reports, State: NewView(s.sess.Snapshot())})
}

// handleReset restarts the simulation. Without a seed parameter the
// current seed is reused, which replays the same run.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	seed := s.sess.Seed()
	if v := r.URL.Query().Get("seed"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "'seed' must be a non-negative integer", http.StatusBadRequest)
			return
		}
		seed = parsed
	}

	if err := s.sess.Reset(r.Context(), seed); err != nil {
		http.Error(w, "reset error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("simulation reset", "seed", seed)
	writeJSON(w, http.StatusOK, resetResponse{Seed: seed, State: NewView(s.sess.Snapshot())})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
