// Package http exposes the script host for inspection: health, script
// status, lifecycle events over SSE, Prometheus metrics, plus abort and
// reload controls.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Host is the part of the script host the server needs.
type Host interface {
	Status() []domain.ScriptStatus
	Abort(ctx context.Context, name string) error
	RequestReload()
	Watch(ctx context.Context) <-chan string
}

// Server serves the inspection API.
type Server struct {
	Host    Host
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewHandler creates the router. metrics may be nil.
func NewHandler(host Host, metrics http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Host: host, Metrics: metrics, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.GetHealth)
	r.Get("/scripts", s.ListScripts)
	r.Post("/scripts/{name}/abort", s.AbortScript)
	r.Post("/reload", s.Reload)
	r.Get("/events", s.SubscribeEvents)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	running := 0
	for _, st := range s.Host.Status() {
		if st.State == domain.StateRunning.String() {
			running++
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": running})
}

// ListScripts handles GET /scripts.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Host.Status())
}

// AbortScript handles POST /scripts/{name}/abort. The abort is carried out on
// the host at the next tick; the request waits for it.
func (s *Server) AbortScript(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err := s.Host.Abort(ctx, name)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]string{"aborted": name})
	case errors.Is(err, domain.ErrNotRunning):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDomainUnloaded):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.Logger.Warn("Abort request failed", "script", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Reload handles POST /reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	s.Host.RequestReload()
	w.WriteHeader(http.StatusAccepted)
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.Host.Watch(r.Context())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}
