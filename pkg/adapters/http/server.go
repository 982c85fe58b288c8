package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/bake/internal/dto"
	"github.com/aretw0/bake/internal/logging"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/ports"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// Engine is the part of bake.Engine the HTTP surface drives.
type Engine interface {
	Tasks() []*domain.Definition
	Resolve(name string) (*domain.Definition, error)
	Plan(reqs []domain.Request) ([]*domain.Instance, error)
	Run(ctx context.Context, reqs []domain.Request) (*domain.RunReport, error)
	History() ports.HistoryStore
}

// RunRequest is the body of POST /runs and POST /plan.
type RunRequest struct {
	Requests []domain.Request `json:"requests"`
}

// Server serves the task catalog, triggers runs and reads run history.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Version string

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStreams serves GET /events from sm. The same manager's Hooks must be
// registered with the engine for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = strings.TrimSpace(v) }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/tasks", server.ListTasks)
	r.Get("/tasks/{name}", server.DescribeTask)
	r.Post("/plan", server.Plan)
	r.Post("/runs", server.Run)
	r.Get("/runs", server.ListRuns)
	r.Get("/runs/{id}", server.GetRun)
	if server.Streams != nil {
		r.Get("/events", server.SubscribeEvents)
	}
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	return enableCORS(r)
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

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "bake-http",
		"version": s.Version,
		"tasks":   len(s.Engine.Tasks()),
		"history": s.Engine.History() != nil,
	})
}

// ListTasks handles the GET /tasks request.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, dto.TaskInfos(s.Engine.Tasks()))
}

// DescribeTask handles the GET /tasks/{name} request.
func (s *Server) DescribeTask(w http.ResponseWriter, r *http.Request) {
	def, err := s.Engine.Resolve(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.NewTaskInfo(def))
}

// Plan handles the POST /plan request: the schedule is built but nothing runs.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}
	seq, err := s.Engine.Plan(body.Requests)
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.NewSchedule(seq))
}

// Run handles the POST /runs request. The response is sent once the run has
// finished; task failures are part of the report, not an HTTP error.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}
	report, err := s.Engine.Run(r.Context(), body.Requests)
	if err != nil && report == nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	if err != nil {
		s.logger.Warn("run finished with error", "run_id", report.ID, "err", err)
	}
	s.writeJSON(w, http.StatusCreated, report)
}

// ListRuns handles the GET /runs request.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	store := s.Engine.History()
	if store == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("run history is disabled"))
		return
	}
	ids, err := store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetRun handles the GET /runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	store := s.Engine.History()
	if store == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("run history is disabled"))
		return
	}
	report, err := store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// SubscribeEvents handles the GET /events request (SSE). Every lifecycle
// event of every run is forwarded as one JSON data line.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) decodeRunRequest(w http.ResponseWriter, r *http.Request) (RunRequest, bool) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return body, false
	}
	if len(body.Requests) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("no task requested"))
		return body, false
	}
	for _, req := range body.Requests {
		for key, value := range req.Params {
			text, ok := value.(string)
			if !ok {
				continue
			}
			clean, err := runner.SanitizeValue(text)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, fmt.Errorf("parameter %s: %w", key, err))
				return body, false
			}
			req.Params[key] = clean
		}
	}
	return body, true
}

func statusOf(err error) int {
	var (
		unknown   *domain.UnknownTaskError
		ambiguous *domain.AmbiguousTaskError
		cycle     *domain.CycleError
	)
	switch {
	case errors.As(err, &unknown), errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.As(err, &ambiguous):
		return http.StatusConflict
	case errors.As(err, &cycle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
