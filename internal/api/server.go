// Package api exposes the administrative and ingest HTTP surface.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kestrel-labs/ragscore/internal/cost"
	"github.com/kestrel-labs/ragscore/internal/model"
	"github.com/kestrel-labs/ragscore/internal/sampler"
	"github.com/kestrel-labs/ragscore/internal/scheduler"
	"github.com/kestrel-labs/ragscore/internal/store"
)

// Server wires the evaluation pipeline into HTTP handlers.
type Server struct {
	store *store.Store
	sched *scheduler.Scheduler
	gate  *sampler.Gate
	costs *cost.Tracker
}

// NewServer creates the HTTP server facade. costs may be nil.
func NewServer(st *store.Store, sched *scheduler.Scheduler, gate *sampler.Gate, costs *cost.Tracker) *Server {
	return &Server{store: st, sched: sched, gate: gate, costs: costs}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/evaluations", s.handleListEvaluations)
		r.Get("/evaluations/flagged", s.handleListFlagged)
		r.Get("/evaluations/stats", s.handleStats)
		r.Get("/evaluations/config", s.handleGetConfig)
		r.Patch("/evaluations/config", s.handlePatchConfig)
	})
	return r
}

type evaluateRequest struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Context  string `json:"context"`
	Force    bool   `json:"force"`
}

// handleEvaluate is the inbound path used by the chat-serving collaborator.
// It consults the sampling gate, enqueues without waiting for the consumer,
// and acknowledges immediately.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" || req.Response == "" {
		writeError(w, http.StatusBadRequest, "query and response are required")
		return
	}

	if !s.gate.ShouldEvaluate(r.Context(), req.Force) {
		writeJSON(w, http.StatusAccepted, map[string]any{"sampled": false, "queued": false})
		return
	}

	queued := s.sched.Enqueue(scheduler.Request{
		Query:    req.Query,
		Response: req.Response,
		Context:  req.Context,
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"sampled": true, "queued": queued})
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	results := s.store.GetEvaluations(r.Context())
	if len(results) > limit {
		results = results[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": results,
		"count":       len(results),
	})
}

func (s *Server) handleListFlagged(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	results := s.store.GetFlagged(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": results,
		"count":       len(results),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.GetStats(r.Context()))
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.GetConfig(r.Context()))
}

// handlePatchConfig applies a partial config update. Unknown fields and
// out-of-range values are rejected whole; nothing is applied on error.
func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var patch model.ConfigPatch
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config update: "+err.Error())
		return
	}

	updated, err := s.store.SaveConfig(r.Context(), patch)
	if err != nil {
		if eris.Is(err, model.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.L().Error("api: config update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist config")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.store.GetStats(r.Context())
	payload := map[string]any{
		"status": model.HealthFromStats(stats),
		"queue":  s.sched.Status(),
	}
	if s.costs != nil {
		payload["judge_spend"] = s.costs.Summary()
	}
	writeJSON(w, http.StatusOK, payload)
}

func parseLimit(raw string) int {
	limit := store.DefaultListLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > store.MaxListLimit {
		limit = store.MaxListLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
