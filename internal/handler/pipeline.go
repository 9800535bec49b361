// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/cardwatch/internal/dashboard"
)

// PipelineHandler serves backend pipeline jobs and feed reloads.
type PipelineHandler struct {
	hub     *dashboard.Hub
	actions *dashboard.Actions
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(hub *dashboard.Hub, actions *dashboard.Actions) *PipelineHandler {
	return &PipelineHandler{hub: hub, actions: actions}
}

// Trigger handles POST /api/pipeline/{job}. The optional body names the
// company a full or ingest job is limited to.
func (h *PipelineHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Company string `json:"company"`
	}
	if !decodeJSON(w, r, &req, true) {
		return
	}
	job := chi.URLParam(r, "job")
	res, err := h.actions.TriggerPipeline(r.Context(), job, strings.TrimSpace(req.Company))
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Started {
		status = http.StatusAccepted
	}
	writeJSONStatus(w, status, map[string]any{
		"job":     job,
		"started": res.Started,
		"message": res.Message,
	})
}

// Progress handles GET /api/pipeline/progress.
func (h *PipelineHandler) Progress(w http.ResponseWriter, _ *http.Request) {
	m := h.hub.Monitor()
	writeJSONSuccess(w, map[string]any{
		"active": m.Active(),
		"jobs":   m.Statuses(),
	})
}

// StopProgress handles DELETE /api/pipeline/progress/{job}. Only local
// polling stops; the backend job keeps running.
func (h *PipelineHandler) StopProgress(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	if !h.hub.Monitor().Stop(job) {
		writeJSONError(w, http.StatusNotFound, "no progress polling for job: "+job)
		return
	}
	writeJSONSuccess(w, map[string]any{"job": job})
}

// Refresh handles POST /api/refresh.
func (h *PipelineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.hub.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data := map[string]any{
		"events":     len(snap.Events),
		"fetched_at": snap.FetchedAt,
	}
	if snap.Feeds != nil && len(snap.Feeds.Errors) > 0 {
		data["unavailable"] = snap.Feeds.Errors
	}
	writeJSONSuccess(w, data)
}

// ForceFeed handles POST /api/feeds/{feed}/refresh.
func (h *PipelineHandler) ForceFeed(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	if err := h.hub.ForceFeed(r.Context(), feed); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"feed": feed})
}
