// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/model"
)

// EventsHandler serves analyst actions on single backend events.
type EventsHandler struct {
	actions *dashboard.Actions
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(actions *dashboard.Actions) *EventsHandler {
	return &EventsHandler{actions: actions}
}

func mutationResponse(res *model.MutationResult) map[string]any {
	data := map[string]any{"message": res.Message}
	if res.Detail != "" {
		data["detail"] = res.Detail
	}
	if res.Locked != nil {
		data["locked"] = *res.Locked
	}
	return data
}

// ManualUpdate handles POST /api/events/{id}/manual-update.
func (h *EventsHandler) ManualUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req model.ManualUpdate
	if !decodeJSON(w, r, &req, false) {
		return
	}
	res, err := h.actions.ManualUpdate(r.Context(), id, req.Fields, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, mutationResponse(res))
}

// ToggleLock handles POST /api/events/{id}/lock.
func (h *EventsHandler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.actions.ToggleLock(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, mutationResponse(res))
}

// Extract handles POST /api/events/{id}/extract.
func (h *EventsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.actions.ExtractDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, mutationResponse(res))
}

// History handles GET /api/events/{id}/history.
func (h *EventsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	recs, err := h.actions.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.EditRecord{}
	}
	writeJSONSuccess(w, map[string]any{"history": recs})
}
