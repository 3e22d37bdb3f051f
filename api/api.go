// Package api exposes the campaign engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mirage/core"
	"mirage/runner"
	"mirage/storage"
)

// API holds the HTTP server
type API struct {
	router   *mux.Router
	server   *http.Server
	runner   *runner.Runner
	registry *storage.RunRegistry
	cache    *storage.ResultCache
	archiver *storage.Archiver
	logger   *zap.SugaredLogger
}

// NewAPI creates a new API server. Registry, cache, and archiver may be nil.
func NewAPI(r *runner.Runner, registry *storage.RunRegistry, cache *storage.ResultCache, archiver *storage.Archiver, logger *zap.SugaredLogger) *API {
	a := &API{
		router:   mux.NewRouter(),
		runner:   r,
		registry: registry,
		cache:    cache,
		archiver: archiver,
		logger:   logger,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/api/campaigns", a.runCampaign).Methods("POST")
	a.router.HandleFunc("/api/campaigns/recent", a.recentRuns).Methods("GET")
	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the API server
func (a *API) Start(addr string) error {
	a.server = &http.Server{
		Addr:    addr,
		Handler: a.router,
	}
	return a.server.ListenAndServe()
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}

// campaignRequest is the POST /api/campaigns body
type campaignRequest struct {
	Scenario   string `json:"scenario"`
	Complexity string `json:"complexity"`
	Pattern    string `json:"pattern"`
	Seed       int64  `json:"seed"`
	// DetectionRate is a pointer so an explicit 0.0 survives decoding;
	// nil means the caller did not set one
	DetectionRate *float64 `json:"detectionRate"`
	LogsPerStage  int      `json:"logsPerStage"`
	TargetCount   int      `json:"targetCount"`
	EventCount    int      `json:"eventCount"`
	Space         string   `json:"space"`
}

func (a *API) runCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	complexity := core.Complexity(req.Complexity)
	if req.Complexity == "" {
		complexity = core.ComplexityMedium
	} else if !complexity.IsValid() {
		a.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid complexity %q", req.Complexity))
		return
	}
	pattern := core.TimePattern(req.Pattern)
	if req.Pattern == "" {
		pattern = core.PatternAttackSimulation
	} else if !pattern.IsValid() {
		a.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid time pattern %q", req.Pattern))
		return
	}
	detectionRate := -1.0 // let the simulator pick its default
	if req.DetectionRate != nil {
		detectionRate = *req.DetectionRate
	}

	started := time.Now()
	result, err := a.runner.Run(r.Context(), runner.Request{
		Scenario:      core.ScenarioType(req.Scenario),
		Complexity:    complexity,
		Pattern:       pattern,
		Seed:          req.Seed,
		DetectionRate: detectionRate,
		LogsPerStage:  req.LogsPerStage,
		TargetCount:   req.TargetCount,
		EventCount:    req.EventCount,
		Space:         req.Space,
	})
	if err != nil {
		if core.IsUnknownScenario(err) {
			a.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if a.registry != nil {
		if err := a.registry.RecordResult(r.Context(), result, req.Seed, started); err != nil {
			a.logger.Warnw("Failed to record run", "error", err)
		}
	}
	if a.cache != nil && req.Seed != 0 {
		if err := a.cache.Put(r.Context(), req.Seed, result); err != nil {
			a.logger.Warnw("Failed to cache result summary", "error", err)
		}
	}
	if a.archiver != nil {
		if _, err := a.archiver.Archive(r.Context(), result); err != nil {
			a.logger.Warnw("Failed to archive campaign result", "error", err)
		}
	}

	a.respondJSON(w, result, http.StatusOK)
}

func (a *API) recentRuns(w http.ResponseWriter, r *http.Request) {
	if a.registry == nil {
		a.respondError(w, http.StatusServiceUnavailable, "run registry not configured")
		return
	}
	records, err := a.registry.Recent(r.Context(), 50)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.respondJSON(w, records, http.StatusOK)
}

func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
	}
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, msg string) {
	a.respondJSON(w, map[string]string{"error": msg}, statusCode)
}
