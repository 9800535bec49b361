// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/cardwatch/internal/scheduler"
)

// JobsHandler serves the scheduled job registry.
type JobsHandler struct {
	registry *scheduler.Registry
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(registry *scheduler.Registry) *JobsHandler {
	return &JobsHandler{registry: registry}
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSONSuccess(w, map[string]any{"jobs": h.registry.List()})
}

// Run handles POST /api/jobs/{name}/run. The job runs before the response
// is written.
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.registry.TriggerNow(name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"job": name})
}

// UpdateSchedule handles PUT /api/jobs/{name}/schedule.
func (h *JobsHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schedule string `json:"schedule"`
	}
	if !decodeJSON(w, r, &req, false) {
		return
	}
	name := chi.URLParam(r, "name")
	schedule := strings.TrimSpace(req.Schedule)
	if err := scheduler.ValidateSchedule(schedule); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.registry.UpdateSchedule(name, schedule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"job": name, "schedule": schedule})
}

// ResetSchedule handles DELETE /api/jobs/{name}/schedule.
func (h *JobsHandler) ResetSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.registry.ResetSchedule(name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"job": name})
}
