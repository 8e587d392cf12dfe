// ABOUTME: HTTP API exposing analysis submission, job polling, and cached report lookup.
// ABOUTME: Maps validation errors to 400, unknown resources to 404, everything else to 500.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tbraun92/contract-sentinel/internal/engine"
	"github.com/tbraun92/contract-sentinel/internal/jobs"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Router serves the analysis API on top of the engine.
type Router struct {
	engine *engine.Engine
	logger *logrus.Logger
}

// NewRouter builds the chi handler tree for the analysis API.
func NewRouter(e *engine.Engine, logger *logrus.Logger) http.Handler {
	r := &Router{engine: e, logger: logger}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(securityHeaders)

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses", r.handleSubmit)
		rt.Get("/analyses/{id}", r.handleGetJob)
		rt.Get("/reports/{fingerprint}", r.handleGetReport)
	})

	return mux
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, req)
	})
}

// POST /v1/analyses
// Body: {"contract_address": "0x...", "network": "ethereum", "analysis_kinds": ["static","dynamic"]}
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) {
	var request types.AnalysisRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	jobID, err := r.engine.Submit(request)
	if err != nil {
		// Submit only fails on validation; the orchestration run itself
		// never surfaces errors through this path.
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.logger.WithFields(logrus.Fields{
		"job_id":  jobID,
		"address": request.ContractAddress,
	}).Debug("Accepted analysis submission")

	r.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// GET /v1/analyses/{id}
func (r *Router) handleGetJob(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	job, err := r.engine.Registry().Get(id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			r.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		r.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	r.writeJSON(w, http.StatusOK, job)
}

// GET /v1/reports/{fingerprint}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) {
	fp := strings.ToLower(chi.URLParam(req, "fingerprint"))

	report := r.engine.CachedReport(fp)
	if report == nil {
		r.writeError(w, http.StatusNotFound, "no cached report for fingerprint")
		return
	}

	r.writeJSON(w, http.StatusOK, report)
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.logger.WithError(err).Error("Failed to encode response")
	}
}

func (r *Router) writeError(w http.ResponseWriter, status int, message string) {
	r.writeJSON(w, status, map[string]string{"error": message})
}
