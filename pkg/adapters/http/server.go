// Package http exposes the storefront engine as a small JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/storefront"
	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRequestTimeout bounds POST /events.
const DefaultRequestTimeout = 20 * time.Second

// Engine is what the HTTP transport needs from the storefront.
type Engine interface {
	HandleEvent(ctx context.Context, userID string, ev domain.Event) (domain.Reply, error)
	Session(ctx context.Context, userID string) (*domain.Session, error)
}

// Server holds the handlers of the API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Logger  *slog.Logger

	gatherer prometheus.Gatherer
	timeout  time.Duration
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithGatherer serves /metrics from g. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	if s.Streams.logger == nil {
		s.Streams.logger = s.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.With(middleware.Timeout(s.timeout)).Post("/events", s.PostEvent)
		r.Get("/session", s.GetSession)
		r.Get("/stream", s.SubscribeReplies)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EventRequest is the body of POST /v1/users/{userID}/events.
type EventRequest struct {
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind"`
	Command string `json:"command,omitempty"`
	Token   string `json:"token,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (req EventRequest) toDomain() (domain.Event, error) {
	var ev domain.Event
	switch domain.EventKind(req.Kind) {
	case domain.EventCommand:
		if strings.TrimSpace(req.Command) == "" {
			return ev, errors.New("command is required")
		}
		ev = domain.Command(strings.TrimSpace(req.Command))
	case domain.EventCallback:
		if req.Token == "" {
			return ev, errors.New("token is required")
		}
		ev = domain.Callback(req.Token)
	case domain.EventText:
		text, err := runner.SanitizeInput(req.Text)
		if err != nil {
			return ev, err
		}
		ev = domain.Text(text)
	default:
		return ev, fmt.Errorf("unknown event kind %q", req.Kind)
	}
	return ev.WithID(req.ID), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// PostEvent handles POST /v1/users/{userID}/events.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body EventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		s.Logger.Warn("PostEvent: invalid request body", "user_id", userID, "err", err)
		return
	}
	ev, err := body.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.Engine.HandleEvent(r.Context(), userID, ev)
	switch {
	case errors.Is(err, storefront.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !reply.NoOp {
		if raw, err := json.Marshal(reply); err == nil {
			s.Streams.Broadcast(userID, string(raw))
		}
	}
	writeJSON(w, http.StatusOK, reply)
}

// SessionResponse is the body of GET /v1/users/{userID}/session.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetSession handles GET /v1/users/{userID}/session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sess, err := s.Engine.Session(r.Context(), userID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "no conversation")
		return
	case err != nil:
		s.Logger.Error("GetSession failed", "user_id", userID, "err", err)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{UserID: sess.UserID, State: string(sess.State), UpdatedAt: sess.UpdatedAt})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "storefront-http",
		"version": strings.TrimSpace(storefront.Version),
	})
}
