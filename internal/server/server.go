package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openclaw/agentlink/internal/config"
	"github.com/openclaw/agentlink/internal/delivery"
	"github.com/openclaw/agentlink/internal/metrics"
	"github.com/openclaw/agentlink/internal/trigger"
)

const maxBodySize = 1 << 20 // 1 MB

// Server is the push listener: a single authenticated webhook route that
// synchronously invokes the agent, plus health, metrics, and admin routes.
type Server struct {
	cfg        *config.Config
	trigger    trigger.Invoker
	deliveries delivery.Store
	router     chi.Router
	logger     *slog.Logger
}

// pushRequest is the JSON body of a push webhook call.
type pushRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Agent     string `json:"agent"`
}

// New creates a Server wired with the given dependencies.
func New(cfg *config.Config, trig trigger.Invoker, deliveries delivery.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		trigger:    trig,
		deliveries: deliveries,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Recovery(logger))

	r.Post(cfg.Server.Path, s.handlePush)
	r.Get("/health", s.handleHealth)
	r.Get("/admin/deliveries", s.handleAdminDeliveries)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Anything else, including wrong methods on known paths, is 404.
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handlePush processes POST <configured path>.
// Pipeline: authenticate → parse → invoke agent → record → respond.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.respondPush(w, http.StatusUnauthorized, map[string]string{
			"error": "invalid or missing token",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		s.respondPush(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read request body",
		})
		return
	}
	if len(body) > maxBodySize {
		s.respondPush(w, http.StatusInternalServerError, map[string]string{
			"error": "request body exceeds 1MB limit",
		})
		return
	}

	var req pushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondPush(w, http.StatusInternalServerError, map[string]string{
			"error": "request body is not valid JSON",
		})
		return
	}
	if req.Message == "" {
		s.respondPush(w, http.StatusBadRequest, map[string]string{
			"error": "message is required",
		})
		return
	}

	// A request that names no agent falls back to the configured default.
	agent := req.Agent
	if agent == "" {
		agent = s.cfg.Agent.Name
	}

	rec := delivery.Record{
		ID:        uuid.New(),
		Source:    delivery.SourcePush,
		SessionID: req.SessionID,
		Agent:     agent,
		Status:    delivery.StatusOK,
		Timestamp: time.Now(),
	}

	metrics.TriggerInvocations.WithLabelValues(string(delivery.SourcePush)).Inc()
	result, err := s.trigger.Invoke(r.Context(), trigger.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		Agent:     agent,
	})
	if err != nil {
		metrics.TriggerFailures.WithLabelValues(string(delivery.SourcePush)).Inc()
		rec.Status = delivery.StatusFailed
		rec.Error = err.Error()
		_ = s.deliveries.Save(rec)
		s.logger.Error("agent invocation failed",
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		s.respondPush(w, http.StatusInternalServerError, map[string]string{
			"error": "agent invocation failed",
		})
		return
	}

	_ = s.deliveries.Save(rec)
	metrics.PushRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()

	// Pass the agent's JSON result through untouched.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

// authorized checks the shared secret via either the bearer scheme or the
// dedicated token header.
func (s *Server) authorized(r *http.Request) bool {
	token := s.cfg.Server.PushToken
	if token == "" {
		return false
	}
	if r.Header.Get("Authorization") == "Bearer "+token {
		return true
	}
	return r.Header.Get("X-AgentLink-Token") == token
}

// respondPush writes an error-shaped response and counts it.
func (s *Server) respondPush(w http.ResponseWriter, status int, v any) {
	metrics.PushRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	writeJSON(w, status, v)
}

// handleHealth responds to GET /health with a simple liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAdminDeliveries responds to GET /admin/deliveries with recent
// agent invocations from both bridge paths.
func (s *Server) handleAdminDeliveries(w http.ResponseWriter, _ *http.Request) {
	recs, err := s.deliveries.List(50, 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list deliveries",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deliveries": recs,
		"count":      len(recs),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
