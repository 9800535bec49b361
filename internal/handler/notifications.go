// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/olegiv/cardwatch/internal/logging"
)

// NotificationsHandler serves the notification feed.
type NotificationsHandler struct {
	feed *logging.Feed
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(feed *logging.Feed) *NotificationsHandler {
	return &NotificationsHandler{feed: feed}
}

// List handles GET /api/notifications. Clients pass the last id they saw
// as ?after= to receive only newer entries.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid after")
			return
		}
		after = n
	}
	items := h.feed.Since(after)
	if items == nil {
		items = []logging.Notification{}
	}
	writeJSONSuccess(w, map[string]any{
		"notifications": items,
		"last":          h.feed.Last(),
	})
}
