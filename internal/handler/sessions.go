// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/export"
	"github.com/olegiv/cardwatch/internal/filter"
	"github.com/olegiv/cardwatch/internal/model"
)

// SessionsHandler serves the per-session dashboard routes. Every mutating
// route answers with the views it re-rendered.
type SessionsHandler struct {
	sessions *dashboard.Sessions
	hub      *dashboard.Hub
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(hub *dashboard.Hub) *SessionsHandler {
	return &SessionsHandler{sessions: hub.Sessions(), hub: hub}
}

// viewsResponse is the body of every view-returning route.
type viewsResponse struct {
	Success  bool                   `json:"success"`
	Session  string                 `json:"session"`
	Revision uint64                 `json:"revision"`
	Views    []dashboard.ViewResult `json:"views"`
}

func (h *SessionsHandler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return s, true
}

// mutate runs fn against the session and answers with the views it changed.
func (h *SessionsHandler) mutate(w http.ResponseWriter, s *dashboard.Session, fn func(c *dashboard.Coordinator)) {
	before := s.Revision()
	s.Do(fn)
	h.writeViews(w, http.StatusOK, s, before)
}

func (h *SessionsHandler) writeViews(w http.ResponseWriter, status int, s *dashboard.Session, since uint64) {
	views := s.Views(since)
	writeJSON(w, status, viewsResponse{
		Success:  true,
		Session:  s.ID,
		Revision: s.Revision(),
		Views:    views,
	})
}

// Create handles POST /api/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(h.hub.Latest)
	slog.Info("dashboard session opened", "session", s.ID, "live", h.sessions.Len())
	h.writeViews(w, http.StatusCreated, s, 0)
}

// Close handles DELETE /api/sessions/{sid}.
func (h *SessionsHandler) Close(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Close(chi.URLParam(r, "sid")) {
		writeError(w, r, dashboard.ErrSessionNotFound)
		return
	}
	writeJSONSuccess(w, nil)
}

// Views handles GET /api/sessions/{sid}/views. With ?since=rev only views
// rendered after that revision are returned.
func (h *SessionsHandler) Views(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid since")
			return
		}
		since = n
	}
	h.writeViews(w, http.StatusOK, s, since)
}

// View handles GET /api/sessions/{sid}/views/{view}.
func (h *SessionsHandler) View(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "view")
	if !dashboard.IsView(name) {
		writeJSONError(w, http.StatusNotFound, "unknown view: "+name)
		return
	}
	v, ok := s.View(name)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "view not rendered yet: "+name)
		return
	}
	writeJSONSuccess(w, map[string]any{"view": v})
}

// SetFilters handles PUT /api/sessions/{sid}/filters.
func (h *SessionsHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var crit filter.Criteria
	if !decodeJSON(w, r, &crit, false) {
		return
	}
	h.mutate(w, s, func(c *dashboard.Coordinator) { c.SetCriteria(crit) })
}

// SetPage handles PUT /api/sessions/{sid}/page.
func (h *SessionsHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Page int `json:"page"`
	}
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Page < 1 {
		writeJSONError(w, http.StatusBadRequest, "page must be at least 1")
		return
	}
	h.mutate(w, s, func(c *dashboard.Coordinator) { c.SetPage(req.Page) })
}

// SetPageSize handles PUT /api/sessions/{sid}/page-size.
func (h *SessionsHandler) SetPageSize(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		PageSize int `json:"page_size"`
	}
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.PageSize < 1 || req.PageSize > maxPageSize {
		writeJSONError(w, http.StatusBadRequest, "page_size must be between 1 and "+strconv.Itoa(maxPageSize))
		return
	}
	h.mutate(w, s, func(c *dashboard.Coordinator) { c.SetPageSize(req.PageSize) })
}

// Reset handles POST /api/sessions/{sid}/reset.
func (h *SessionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.mutate(w, s, func(c *dashboard.Coordinator) { c.Reset() })
}

// Toggle handles PUT /api/sessions/{sid}/compare/{id}.
func (h *SessionsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Included *bool `json:"included"`
	}
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Included == nil {
		writeJSONError(w, http.StatusBadRequest, "included is required")
		return
	}

	before := s.Revision()
	s.Do(func(c *dashboard.Coordinator) { c.Toggle(id, *req.Included) })
	h.hub.LoadCompareDetails(r.Context(), s)
	h.writeViews(w, http.StatusOK, s, before)
}

// SelectVisible handles POST /api/sessions/{sid}/compare/select-visible.
func (h *SessionsHandler) SelectVisible(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	before := s.Revision()
	s.Do(func(c *dashboard.Coordinator) { c.SelectAllVisible() })
	h.hub.LoadCompareDetails(r.Context(), s)
	h.writeViews(w, http.StatusOK, s, before)
}

// ClearCompare handles DELETE /api/sessions/{sid}/compare.
func (h *SessionsHandler) ClearCompare(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.mutate(w, s, func(c *dashboard.Coordinator) { c.ClearCompare() })
}

// CompareTable handles GET /api/sessions/{sid}/compare/table.
func (h *SessionsHandler) CompareTable(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.hub.LoadCompareDetails(r.Context(), s)
	v, _ := s.View(dashboard.ViewCompare)
	writeJSONSuccess(w, map[string]any{"view": v})
}

// Export handles GET /api/sessions/{sid}/export.xlsx: the filtered list,
// unpaged, in the session's current order.
func (h *SessionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var (
		events []model.Event
		now    time.Time
	)
	s.Do(func(c *dashboard.Coordinator) {
		events = c.Filtered()
		now = c.Now()
	})
	if len(events) == 0 {
		writeJSONError(w, http.StatusNotFound, "no events match the current filters")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, events); err != nil {
		writeError(w, r, errors.Join(errors.New("exporting events"), err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.FileName(now),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
