package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes an Engine over HTTP.
type Server struct {
	Engine  *parley.Engine
	Streams *StreamManager

	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	sanitizer runner.Sanitizer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxInputSize rejects text variables longer than n bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.sanitizer = runner.NewSanitizer(n)
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *parley.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/scripts", func(r chi.Router) {
		r.Get("/", s.ListScripts)
		r.Get("/{name}/graph", s.GetGraph)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.EndSession)
			r.Post("/continue", s.Continue)
			r.Post("/choose", s.Choose)
			r.Put("/variables/{name}", s.SetVariable)
			r.Get("/ws", s.Stream)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Script    string `json:"script"`
	Label     string `json:"label,omitempty"`
}

// ChooseRequest is the body of POST /sessions/{id}/choose.
type ChooseRequest struct {
	Index int `json:"index"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": strings.TrimSpace(parley.Version),
	})
}

// ListScripts handles the GET /scripts request.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Scripts()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

// GetGraph handles GET /scripts/{name}/graph. It answers with Mermaid text,
// or the graph dump with ?format=json. ?session=<id> highlights that
// session's position and past choices.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Load(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, g.Dump())
		return
	}

	var overlay *graph.Overlay
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err := s.Engine.Inspect(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = &graph.Overlay{
			CurrentTextID: sess.State.TextNodeID,
			ChoicesTaken:  sess.State.ChoicesTaken,
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// StartSession handles the POST /sessions request.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "invalid request body", err)
		return
	}
	if body.Script == "" {
		s.badRequest(w, "script is required", nil)
		return
	}
	view, err := s.Engine.StartSession(r.Context(), body.SessionID, body.Script, body.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// EndSession handles the DELETE /sessions/{id} request.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Continue handles the POST /sessions/{id}/continue request.
func (s *Server) Continue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := s.Engine.Continue(r.Context(), id)
	s.respondAndBroadcast(w, id, view, err)
}

// Choose handles the POST /sessions/{id}/choose request.
func (s *Server) Choose(w http.ResponseWriter, r *http.Request) {
	var body ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "invalid request body", err)
		return
	}
	id := chi.URLParam(r, "id")
	view, err := s.Engine.Choose(r.Context(), id, body.Index)
	s.respondAndBroadcast(w, id, view, err)
}

// SetVariable handles PUT /sessions/{id}/variables/{name}. The body is a
// typed value: {"type": "int", "value": 5}.
func (s *Server) SetVariable(w http.ResponseWriter, r *http.Request) {
	var v domain.Value
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		s.badRequest(w, "invalid value", err)
		return
	}
	if v.Type() == domain.TypeText {
		clean, err := s.sanitizer.Clean(v.Text())
		if err != nil {
			s.badRequest(w, "invalid input", err)
			return
		}
		v = domain.TextValue(clean)
	}
	id := chi.URLParam(r, "id")
	view, err := s.Engine.SetVariable(r.Context(), id, chi.URLParam(r, "name"), v)
	s.respondAndBroadcast(w, id, view, err)
}

func (s *Server) respondAndBroadcast(w http.ResponseWriter, id string, view *parley.View, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Broadcast(id, view)
	s.writeJSON(w, http.StatusOK, view)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrScriptNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidChoice), errors.Is(err, domain.ErrChoiceRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCompileFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	} else {
		s.logger.Debug("Request rejected", "err", err, "status", status)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	s.logger.Warn("Bad request", "msg", msg)
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
