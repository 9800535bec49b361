// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/cardwatch/internal/client"
	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/scheduler"
	"github.com/olegiv/cardwatch/internal/store"
)

// statusFor maps a domain error to an HTTP status and a client message.
func statusFor(err error) (int, string) {
	var se *client.StatusError
	switch {
	case errors.Is(err, dashboard.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, dashboard.ErrEmptyEdit),
		errors.Is(err, dashboard.ErrImmutableEdit),
		errors.Is(err, dashboard.ErrUnknownJob),
		errors.Is(err, dashboard.ErrUnknownFeed),
		errors.Is(err, store.ErrImmutableField),
		errors.Is(err, scheduler.ErrTriggerDisabled):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, scheduler.ErrTriggerLimited):
		return http.StatusTooManyRequests, err.Error()
	case errors.As(err, &se):
		if se.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, "not found on backend"
		}
		if se.Detail != "" {
			return http.StatusBadGateway, "backend error: " + se.Detail
		}
		return http.StatusBadGateway, "backend error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "backend did not respond in time"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// writeError writes the JSON response for err. Server-side failures are
// logged; client errors are not.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSONError(w, status, msg)
}
