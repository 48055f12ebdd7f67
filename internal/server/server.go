package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/auth"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/logging"
	"github.com/thruflo/snapview/internal/stage"
	"github.com/thruflo/snapview/web"
)

// Status is the JSON body of GET /api/status.
type Status struct {
	Stage      string                     `json:"stage"`
	Title      string                     `json:"title"`
	Classes    []string                   `json:"classes"`
	Statuses   map[string]display.Content `json:"statuses"`
	Actions    []actions.Command          `json:"actions"`
	Running    []string                   `json:"running,omitempty"`
	Verbose    bool                       `json:"verbose"`
	IntervalMS int64                      `json:"interval_ms"`
}

// Config holds server configuration options.
type Config struct {
	Port int
	// PasswordHash enables authentication when set.
	PasswordHash string
	// Interval is how often the page polls.
	Interval  time.Duration
	Commands  actions.Commands
	Runner    *actions.Runner
	Assets    fs.FS
	RateLimit RateLimitConfig
}

// Server serves the status page and implements display.Surface.
type Server struct {
	port         int
	passwordHash string
	interval     time.Duration
	commands     actions.Commands
	runner       *actions.Runner
	assets       fs.FS
	limiter      *rateLimiter
	log          *logging.Logger

	server   *http.Server
	listener net.Listener
	ctx      context.Context

	mu      sync.RWMutex
	tokens  map[string]time.Time // token -> expiry time
	status  Status
	toggles map[string]func() bool
	started bool
}

var (
	_ display.Surface = (*Server)(nil)
	_ logging.Binder  = (*Server)(nil)
)

// NewServer creates a new Server instance.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.PasswordHash != "" {
		if err := auth.Check(cfg.PasswordHash); err != nil {
			return nil, err
		}
	}

	s := &Server{
		port:         cfg.Port,
		passwordHash: cfg.PasswordHash,
		interval:     cfg.Interval,
		commands:     cfg.Commands,
		runner:       cfg.Runner,
		assets:       cfg.Assets,
		limiter:      newRateLimiter(cfg.RateLimit),
		log:          logging.With("component", "server"),
		tokens:       make(map[string]time.Time),
		toggles:      make(map[string]func() bool),
		status:       Status{Statuses: make(map[string]display.Content)},
	}
	if s.commands == nil {
		s.commands = actions.NewCommands(nil)
	}
	if s.runner == nil {
		s.runner = actions.NewRunner()
	}
	if s.assets == nil {
		s.assets = web.GetAssets("")
	}
	return s, nil
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// AuthEnabled reports whether a password is required.
func (s *Server) AuthEnabled() bool {
	return s.passwordHash != ""
}

// Start starts the HTTP server.
// The server runs until ctx is cancelled or Stop is called. Actions started
// from the page run under ctx.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.ctx = ctx

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.started = true
	s.mu.Unlock()

	s.log.Info("status page listening", "addr", listener.Addr().String(), "auth", s.AuthEnabled())

	go s.cleanup(ctx)
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	err = s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started || s.server == nil {
		s.mu.Unlock()
		return nil
	}
	srv := s.server
	s.started = false
	s.mu.Unlock()

	// Handlers take s.mu, so it must not be held while draining them.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// ListenAddr returns the actual address the server is listening on.
// Useful when port 0 is used to get an available port.
// Returns empty string if not started.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", s.handleAuth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/actions/{name}", s.withAuth(s.handleAction))
	mux.HandleFunc("POST /api/console/{name}", s.withAuth(s.handleConsole))
	mux.HandleFunc("GET /", s.handleStatic)
	return mux
}

func (s *Server) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// withAuth wraps a handler with authentication middleware. Without a
// password hash every request is let through.
func (s *Server) withAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.AuthEnabled() {
			handler(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			http.Error(w, "invalid authorization format", http.StatusUnauthorized)
			return
		}
		if !s.ValidateToken(token) {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		handler(w, r)
	}
}

// tokenExpiry is how long tokens are valid.
const tokenExpiry = 24 * time.Hour

// GenerateToken creates a new authentication token.
func (s *Server) GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(tokenExpiry)
	s.mu.Unlock()

	return token, nil
}

// ValidateToken checks if a token is valid and not expired.
func (s *Server) ValidateToken(token string) bool {
	if token == "" {
		return false
	}

	s.mu.RLock()
	expiry, exists := s.tokens[token]
	s.mu.RUnlock()

	return exists && time.Now().Before(expiry)
}

// RevokeToken removes a token from the valid tokens map.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// cleanup periodically removes expired tokens and limiter entries.
func (s *Server) cleanup(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for token, expiry := range s.tokens {
				if now.After(expiry) {
					delete(s.tokens, token)
				}
			}
			s.mu.Unlock()
			s.limiter.cleanup()
		}
	}
}

type statusTarget struct {
	server *Server
	stage  stage.Stage
}

func (t statusTarget) SetStatus(c display.Content) {
	t.server.mu.Lock()
	t.server.status.Statuses[t.stage.String()] = c
	t.server.mu.Unlock()
}

// StatusTarget returns the page section for s. Every stage has one.
func (s *Server) StatusTarget(st stage.Stage) (display.Target, bool) {
	return statusTarget{server: s, stage: st}, true
}

// SetTitle sets the document title.
func (s *Server) SetTitle(title string) {
	s.mu.Lock()
	s.status.Title = title
	s.mu.Unlock()
}

// SetStage sets the stage highlighted as current.
func (s *Server) SetStage(st stage.Stage) {
	s.mu.Lock()
	s.status.Stage = st.String()
	s.mu.Unlock()
}

// SetClasses sets the body classes.
func (s *Server) SetClasses(classes []string) {
	s.mu.Lock()
	s.status.Classes = classes
	s.mu.Unlock()
}

// SetActions sets the commands offered on the page.
func (s *Server) SetActions(cmds []actions.Command) {
	s.mu.Lock()
	s.status.Actions = slices.Clone(cmds)
	s.mu.Unlock()
}

// Bound reports whether a console toggle is bound under name.
func (s *Server) Bound(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.toggles[name]
	return ok
}

// Bind exposes fn as POST /api/console/{name}.
func (s *Server) Bind(name string, fn func() bool) {
	s.mu.Lock()
	s.toggles[name] = fn
	s.mu.Unlock()
}

// Status returns a copy of the latest frame as served to the page.
func (s *Server) Status() Status {
	s.mu.RLock()
	st := s.status
	st.Classes = slices.Clone(st.Classes)
	st.Actions = slices.Clone(st.Actions)
	statuses := make(map[string]display.Content, len(st.Statuses))
	for k, v := range st.Statuses {
		statuses[k] = v
	}
	st.Statuses = statuses
	s.mu.RUnlock()

	if st.Classes == nil {
		st.Classes = []string{}
	}
	if st.Actions == nil {
		st.Actions = []actions.Command{}
	}
	for _, name := range actions.Names {
		if s.runner.InFlight(name) {
			st.Running = append(st.Running, name)
		}
	}
	st.Verbose = logging.Verbose()
	st.IntervalMS = s.interval.Milliseconds()
	return st
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to write response", "error", err)
	}
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

// handleAction handles POST /api/actions/{name}.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.commands.Lookup(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if !s.offered(cmd.Name) {
		http.Error(w, cmd.Name+": not offered in the current stage", http.StatusConflict)
		return
	}

	id, err := s.runner.Start(s.runContext(), cmd)
	if errors.Is(err, actions.ErrInFlight) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Debug("action requested", "action", cmd.Name, "run", id, "ip", extractIP(r))
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// offered reports whether name is among the actions currently shown.
func (s *Server) offered(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := actions.Find(s.status.Actions, name)
	return err == nil
}

// handleConsole handles POST /api/console/{name}.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.RLock()
	fn := s.toggles[name]
	s.mu.RUnlock()

	if fn == nil {
		http.Error(w, "unknown console toggle", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verbose": fn()})
}

// handleAuth handles POST /auth for password authentication.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if !s.AuthEnabled() {
		http.Error(w, "authentication is not enabled", http.StatusNotFound)
		return
	}

	ip := extractIP(r)
	if res := s.limiter.check(ip); !res.Allowed {
		s.log.Warn("login rejected", "ip", ip, "reason", res.Reason)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
		http.Error(w, res.Reason, http.StatusTooManyRequests)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	password := r.FormValue("password")
	if password == "" {
		http.Error(w, "password required", http.StatusBadRequest)
		return
	}

	valid, err := auth.VerifyPassword(password, s.passwordHash)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !valid {
		s.limiter.recordFailure(ip)
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	s.limiter.recordSuccess(ip)

	token, err := s.GenerateToken()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// getContentType returns the Content-Type for an asset path.
func getContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// handleStatic serves the embedded page for GET and HEAD.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	data, err := fs.ReadFile(s.assets, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", getContentType(name))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(data)
	}
}
