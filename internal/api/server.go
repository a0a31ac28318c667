// Package api serves the chat endpoint plus health, readiness and metrics.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"task-command-router/internal/chat"
	"task-command-router/internal/common/config"
	"task-command-router/internal/common/errors"
	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/validation"
	"task-command-router/internal/journal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxBodyBytes     = 64 << 10
	defaultHistory   = 20
	maxHistory       = 100
	readinessTimeout = 2 * time.Second
)

// ChatService is the subset of *chat.Service the HTTP layer needs.
type ChatService interface {
	Handle(ctx context.Context, message string) chat.Response
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Server struct {
	cfg    config.ServerConfig
	chat   ChatService
	checks map[string]Pinger
	logger logger.Logger
	now    func() time.Time
	server *http.Server
}

type Option func(*Server)

// WithCheck registers a named readiness check.
func WithCheck(name string, p Pinger) Option {
	return func(s *Server) { s.checks[name] = p }
}

func NewServer(cfg config.ServerConfig, svc ChatService, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		chat:   svc,
		checks: make(map[string]Pinger),
		logger: log.With(map[string]interface{}{"component": "api"}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed mux wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/", s.handleChat)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return s.logRequests(mux)
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(s.cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.WriteTimeout),
	}

	s.logger.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})
	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.NewInvalidChatRequestError("method not allowed"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, errors.NewInvalidChatRequestError(err.Error()))
		return
	}

	result, err := validation.ValidateJSON(validation.ChatRequestSchema, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.NewInternalError(err))
		return
	}
	if !result.Valid {
		status := http.StatusUnprocessableEntity
		if result.HasErrors("(root)") {
			status = http.StatusBadRequest
		}
		writeError(w, status, errors.NewInvalidChatRequestError(result.Summary()).
			WithMetadata("errors", result.Errors))
		return
	}

	var req chat.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errors.NewInvalidChatRequestError(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, s.chat.Handle(r.Context(), req.Message))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, errors.NewInvalidChatRequestError("method not allowed"))
		return
	}

	limit := defaultHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.NewInvalidChatRequestError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistory)
	}

	entries, err := s.chat.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history lookup failed", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusBadGateway, errors.NewInternalError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	components := make(map[string]string, len(s.checks))
	status, code := "ready", http.StatusOK
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			components[name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
		"time":       s.now().Format(time.RFC3339),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			return
		}
		s.logger.Info("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.StandardError) {
	writeJSON(w, status, map[string]interface{}{"error": err})
}
