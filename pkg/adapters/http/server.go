package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/aretw0/fitcoach/pkg/session"
)

// Server exposes the dispatcher and the orchestrator over REST.
type Server struct {
	dispatcher *session.Dispatcher
	generator  *generation.Orchestrator
	streams    *StreamManager
	metrics    http.Handler
	logger     *slog.Logger
	version    string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts a handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a Server.
func NewServer(dispatcher *session.Dispatcher, generator *generation.Orchestrator, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		generator:  generator,
		logger:     logging.NewNop(),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// Streams returns the diff broadcaster.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/graph", s.getGraph)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/subjects/{subject}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Delete("/", s.deleteSession)
		r.Post("/events", s.postEvent)
		r.Get("/stream", s.subscribe)
		r.Get("/artifacts", s.listArtifacts)
		r.Get("/artifacts/{kind}", s.getArtifact)
		r.Post("/artifacts/{kind}", s.generate)
	})
	return r
}

// NewHandler is a shortcut for NewServer(...).Handler().
func NewHandler(dispatcher *session.Dispatcher, generator *generation.Orchestrator, opts ...Option) http.Handler {
	return NewServer(dispatcher, generator, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EventResponse is the body returned by POST /subjects/{subject}/events.
type EventResponse struct {
	Outcome      domain.StepOutcome   `json:"outcome"`
	Instructions []domain.Instruction `json:"instructions"`
	Session      *domain.Session      `json:"session,omitempty"`
	Diff         *domain.SessionDiff  `json:"diff,omitempty"`
}

// GenerateResponse is the body returned by POST /subjects/{subject}/artifacts/{kind}.
type GenerateResponse struct {
	RequestID   string             `json:"request_id"`
	Instruction domain.Instruction `json:"instruction"`
	Attempts    int                `json:"attempts"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "fitcoach-http",
		"version": s.version,
	})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	g := s.dispatcher.Engine().Graph()
	prompts := make([]domain.Instruction, 0, len(g.States()))
	for _, st := range g.States() {
		prompts = append(prompts, s.dispatcher.Engine().Prompt(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"initial": g.Initial,
		"steps":   prompts,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")
	sess, err := s.dispatcher.Session(r.Context(), subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, domain.Event{Kind: domain.EventCancel})
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Event: Invalid request body", "err", err)
		return
	}
	if ev.Kind == domain.EventGenerate {
		s.runGeneration(w, r, ev.Artifact)
		return
	}
	s.dispatch(w, r, ev)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev domain.Event) {
	subject := chi.URLParam(r, "subject")
	out, err := s.dispatcher.Handle(r.Context(), subject, ev)

	if out.Diff != nil {
		if payload, mErr := json.Marshal(out.Diff); mErr == nil {
			s.streams.Broadcast(subject, string(payload))
		}
	}

	status := statusForOutcome(out.Result)
	if err != nil {
		s.logger.Warn("Event failed", "subject", subject, "kind", ev.Kind, "err", err)
	}
	writeJSON(w, status, EventResponse{
		Outcome:      out.Result,
		Instructions: out.Instructions,
		Session:      out.Session,
		Diff:         out.Diff,
	})
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	s.runGeneration(w, r, domain.ArtifactKind(chi.URLParam(r, "kind")))
}

func (s *Server) runGeneration(w http.ResponseWriter, r *http.Request, kind domain.ArtifactKind) {
	subject := chi.URLParam(r, "subject")
	report, err := s.generator.Generate(r.Context(), subject, kind)
	if err != nil {
		var ge *domain.GenerationError
		if !errors.As(err, &ge) {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, GenerateResponse{
			RequestID:   report.RequestID,
			Instruction: report.Instruction(),
			Attempts:    report.Attempts,
		})
		return
	}

	diff := domain.SessionDiff{
		SubjectID: subject,
		Artifacts: map[domain.ArtifactKind]domain.Artifact{kind: {
			Kind:       kind,
			Content:    report.Content,
			Generation: report.Generation,
			Persist:    report.Persist,
			RequestID:  report.RequestID,
		}},
	}
	if payload, mErr := json.Marshal(diff); mErr == nil {
		s.streams.Broadcast(subject, string(payload))
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		RequestID:   report.RequestID,
		Instruction: report.Instruction(),
		Attempts:    report.Attempts,
	})
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")
	sess, err := s.dispatcher.Session(r.Context(), subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]domain.Artifact, 0, len(domain.ArtifactKinds()))
	for _, kind := range domain.ArtifactKinds() {
		out = append(out, sess.Artifact(kind))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")
	kind := domain.ArtifactKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		s.writeError(w, r, &domain.UnknownEventError{Reason: fmt.Sprintf("unknown artifact %q", kind)})
		return
	}
	a, err := s.generator.Artifact(r.Context(), subject, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if a.Generation != domain.GenerationDone {
		writeJSON(w, http.StatusNotFound, a)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// subscribe streams session diffs of one subject (SSE).
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	subject := chi.URLParam(r, "subject")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(subject)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "subject", subject)
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

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

// statusForError maps the domain error taxonomy to HTTP status codes.
func statusForError(err error) (int, string) {
	var (
		ve *domain.ValidationError
		ue *domain.UnknownEventError
		pe *domain.PersistenceError
		ge *domain.GenerationError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, "validation"
	case errors.As(err, &ue):
		return http.StatusConflict, "unknown_event"
	case errors.As(err, &pe):
		return http.StatusServiceUnavailable, "persistence"
	case errors.As(err, &ge):
		return http.StatusBadGateway, "generation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func statusForOutcome(o domain.StepOutcome) int {
	switch o {
	case domain.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case domain.OutcomeUnknown:
		return http.StatusConflict
	case domain.OutcomeNoSession:
		return http.StatusNotFound
	case domain.OutcomePersistFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
