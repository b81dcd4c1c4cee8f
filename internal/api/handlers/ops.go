package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/bazaar/internal/runlog"
	"github.com/wonny/bazaar/internal/scheduler"
	"github.com/wonny/bazaar/pkg/logger"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = runlog.DefaultCapacity
)

// RunLister lists recorded refresh cycles
type RunLister interface {
	List(ctx context.Context, limit int) ([]runlog.Run, error)
}

// JobController reports on scheduler jobs and runs them on demand
type JobController interface {
	GetJobStats() map[string]scheduler.JobStats
	GetJobHistory(name string) ([]scheduler.Execution, error)
	RunJob(name string) error
}

// OpsHandler serves operational endpoints
type OpsHandler struct {
	runs   RunLister
	jobs   JobController
	logger *logger.Logger
}

// NewOpsHandler creates a new ops handler. jobs may be nil when no scheduler runs.
func NewOpsHandler(runs RunLister, jobs JobController, log *logger.Logger) *OpsHandler {
	return &OpsHandler{
		runs:   runs,
		jobs:   jobs,
		logger: log,
	}
}

// GetRuns returns recent refresh cycles, newest first
// GET /api/runs?limit=
func (h *OpsHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxRunsLimit))
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// GetJobs returns scheduler job statistics
// GET /api/scheduler/jobs
func (h *OpsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	stats := map[string]scheduler.JobStats{}
	if h.jobs != nil {
		stats = h.jobs.GetJobStats()
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetJobHistory returns a job's executions, oldest first
// GET /api/scheduler/jobs/{name}/history
func (h *OpsHandler) GetJobHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if h.jobs == nil {
		respondError(w, http.StatusNotFound, "Job not found: "+name)
		return
	}

	executions, err := h.jobs.GetJobHistory(name)
	if err != nil {
		h.jobError(w, name, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":        name,
		"count":      len(executions),
		"executions": executions,
	})
}

// RunJob starts a job outside its schedule and returns immediately.
// Its outcome shows up in the job history.
// POST /api/scheduler/jobs/{name}/run
func (h *OpsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if h.jobs == nil {
		respondError(w, http.StatusNotFound, "Job not found: "+name)
		return
	}

	if err := h.jobs.RunJob(name); err != nil {
		h.jobError(w, name, err)
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "started",
	})
}

func (h *OpsHandler) jobError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Job not found: "+name)
		return
	}
	h.logger.WithError(err).WithField("job", name).Error("Job request failed")
	respondError(w, http.StatusInternalServerError, "Job request failed")
}
