package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Station is the control surface the server exposes. registry.Registry implements it.
type Station interface {
	Axes() []string
	Snapshots() []runner.Snapshot
	Snapshot(axis string) (runner.Snapshot, error)
	Recipes(axis string) ([]string, error)
	Preview(ctx context.Context, axis, recipe string, origin float64) ([]domain.Point, error)
	Start(ctx context.Context, axis, recipe string) error
	Stop(ctx context.Context, axis string) error
}

// Server serves the station over HTTP.
type Server struct {
	Station Station
	Streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts h (typically promhttp.Handler()) on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams sets the stream manager feeding /events. Its Hooks must be
// registered on the drivers for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

type startRequest struct {
	Recipe string `json:"recipe"`
}

type previewResponse struct {
	Axis   string         `json:"axis"`
	Recipe string         `json:"recipe"`
	Points []domain.Point `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the HTTP handler for station.
func NewHandler(station Station, opts ...Option) http.Handler {
	s := &Server{
		Station: station,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/axes", func(r chi.Router) {
		r.Get("/", s.ListAxes)
		r.Route("/{axis}", func(r chi.Router) {
			r.Get("/", s.GetAxis)
			r.Get("/recipes", s.ListRecipes)
			r.Get("/preview", s.Preview)
			r.Post("/start", s.Start)
			r.Post("/stop", s.Stop)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     "setpoint-http",
		"version": strings.TrimSpace(setpoint.Version),
	})
}

// ListAxes handles GET /axes.
func (s *Server) ListAxes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Station.Snapshots())
}

// GetAxis handles GET /axes/{axis}.
func (s *Server) GetAxis(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Station.Snapshot(chi.URLParam(r, "axis"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// ListRecipes handles GET /axes/{axis}/recipes.
func (s *Server) ListRecipes(w http.ResponseWriter, r *http.Request) {
	names, err := s.Station.Recipes(chi.URLParam(r, "axis"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// Preview handles GET /axes/{axis}/preview?recipe=NAME[&origin=SECONDS].
func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	axis := chi.URLParam(r, "axis")
	recipe := r.URL.Query().Get("recipe")
	if recipe == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing recipe parameter"})
		return
	}

	origin := 0.0
	if raw := r.URL.Query().Get("origin"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid origin %q", raw)})
			return
		}
		origin = v
	}

	points, err := s.Station.Preview(r.Context(), axis, recipe, origin)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, previewResponse{Axis: axis, Recipe: recipe, Points: points})
}

// Start handles POST /axes/{axis}/start with body {"recipe": NAME}.
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	axis := chi.URLParam(r, "axis")
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Recipe == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		s.logger.Warn("start: invalid request body", "axis", axis, "err", err)
		return
	}

	if err := s.Station.Start(r.Context(), axis, body.Recipe); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("recipe started over http", "axis", axis, "recipe", body.Recipe)

	snap, err := s.Station.Snapshot(axis)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, snap)
}

// Stop handles POST /axes/{axis}/stop.
func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	axis := chi.URLParam(r, "axis")
	if err := s.Station.Stop(r.Context(), axis); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.Station.Snapshot(axis)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// SubscribeEvents handles GET /events[?axis=NAME] as a server-sent event stream
// of run and step events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(r.URL.Query().Get("axis"))
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}

// StatusFor maps engine and station errors to HTTP status codes.
func StatusFor(err error) int {
	var perr *domain.ParseError
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrAxisNotFound), errors.Is(err, domain.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEngineBusy), errors.Is(err, domain.ErrNotRunning):
		return http.StatusConflict
	case errors.As(err, &perr), errors.As(err, &verr),
		errors.Is(err, domain.ErrEmptyRecipe), errors.Is(err, domain.ErrNoBaselineMeasurement),
		errors.Is(err, domain.ErrTooManySteps):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
