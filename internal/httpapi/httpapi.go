// Package httpapi is the thin net/http surface over the job orchestrator:
// trigger a run, inspect resolved schedules (§2, §6). No auth, no rate
// limiting — out of scope per the Non-goals.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/orchestrator"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/store"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// Handler serves the analytics job-trigger and schedule-inspection
// endpoints. JobFactory builds a fresh Job per request so every request
// gets its own Now/Logger without sharing mutable state.
type Handler struct {
	Logger     *slog.Logger
	Schedules  store.ScheduleStore
	Bindings   store.BindingStore
	Zone       *time.Location // reference zone for schedule resolution (§9); nil defaults to UTC
	JobFactory func(strictSameDayContainment bool) *orchestrator.Job
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) zone() *time.Location {
	if h.Zone != nil {
		return h.Zone
	}
	return time.UTC
}

// RegisterRoutes wires the three endpoints named in §6 onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /jobs", h.handleCreateJob)
	mux.HandleFunc("GET /schedules/{user_id}", h.handleGetSchedule)
	mux.HandleFunc("GET /schedules", h.handleListSchedules)
}

// jobRequest is the POST /jobs body (§6): user_id triggers the lifetime
// pipeline for that user, org_id is accepted but currently informational,
// use_simple maps to workinghours.Options.StrictSameDayContainment.
type jobRequest struct {
	UserID    int64 `json:"user_id"`
	OrgID     int64 `json:"org_id"`
	UseSimple bool  `json:"use_simple"`
}

func (h *Handler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	job := h.JobFactory(req.UseSimple)

	if req.UserID != 0 {
		report, err := job.RunLifetime(r.Context(), req.UserID)
		if err != nil {
			writeJobError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := job.RunDaily(r.Context())
	if err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id must be an integer"})
		return
	}

	resolved, err := h.resolveAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	for _, res := range resolved {
		if res.Binding.UserID == userID {
			writeJSON(w, http.StatusOK, res)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no binding for user_id"})
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.resolveAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": resolved})
}

func (h *Handler) resolveAll(ctx context.Context) ([]workinghours.Resolved, error) {
	entries, err := h.Schedules.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	bindings, err := h.Bindings.ListBindings(ctx)
	if err != nil {
		return nil, err
	}
	resolved, _ := workinghours.ResolveSchedules(h.logger(), bindings, entries, workinghours.DefaultSchedule(h.zone()), h.zone())
	return resolved, nil
}

// writeJobError maps the orchestrator's error taxonomy onto HTTP statuses
// (§7): a ConfigError is the caller's fault, everything else is ours.
func writeJobError(w http.ResponseWriter, err error) {
	if _, ok := err.(*orchestrator.ConfigError); ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
