// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/version"
)

// staleAfter is the snapshot age at which the backend check degrades.
const staleAfter = time.Hour

// cacheProbeKey is written and read back by the cache check.
const cacheProbeKey = "health:probe"

// HealthHandler handles health check requests.
type HealthHandler struct {
	hub       *dashboard.Hub
	cache     cache.Cache
	version   version.Info
	startTime time.Time
	now       func() time.Time
}

// NewHealthHandler creates a new health handler. c may be nil when no cache
// is configured.
func NewHealthHandler(hub *dashboard.Hub, c cache.Cache, info version.Info) *HealthHandler {
	return &HealthHandler{
		hub:       hub,
		cache:     c,
		version:   info,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// StartTime returns when the handler (and application) was started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Sessions  int              `json:"sessions"`
	Jobs      int              `json:"active_jobs"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health requests. ?verbose=true adds cache statistics
// and runtime information.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	backendCheck := h.checkBackend()
	cacheCheck := h.checkCache(r.Context())

	overallStatus := "healthy"
	code := http.StatusOK
	switch {
	case backendCheck.Status == "unhealthy":
		overallStatus = "unhealthy"
		code = http.StatusServiceUnavailable
	case backendCheck.Status != "healthy" || cacheCheck.Status != "healthy":
		overallStatus = "degraded"
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: h.now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.String(),
		Sessions:  h.hub.Sessions().Len(),
		Jobs:      h.hub.Monitor().Active(),
		Checks: map[string]Check{
			"backend": backendCheck,
			"cache":   cacheCheck,
		},
	}

	if r.URL.Query().Get("verbose") == "true" {
		if sp, ok := h.cache.(cache.StatsProvider); ok {
			st := sp.Stats()
			status.Cache = &st
		}
		status.System = h.getSystemInfo()
	}

	writeJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

// Readiness handles GET /health/ready. The service is ready once the first
// backend snapshot has been published.
func (h *HealthHandler) Readiness(w http.ResponseWriter, _ *http.Request) {
	if h.hub.Latest() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "no backend snapshot loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// checkBackend reports on the age and completeness of the latest snapshot.
func (h *HealthHandler) checkBackend() Check {
	snap := h.hub.Latest()
	if snap == nil {
		return Check{Status: "unhealthy", Message: "no backend snapshot loaded"}
	}

	age := h.now().Sub(snap.FetchedAt).Round(time.Second)
	msg := fmt.Sprintf("%d events, fetched %s ago", len(snap.Events), age)
	switch {
	case age > staleAfter:
		return Check{Status: "degraded", Message: "stale snapshot: " + msg}
	case snap.Feeds != nil && len(snap.Feeds.Errors) > 0:
		return Check{Status: "degraded", Message: fmt.Sprintf("%s, %d feeds unavailable", msg, len(snap.Feeds.Errors))}
	}
	return Check{Status: "healthy", Message: msg}
}

// checkCache writes and reads back a probe key.
func (h *HealthHandler) checkCache(ctx context.Context) Check {
	if h.cache == nil {
		return Check{Status: "healthy", Message: "disabled"}
	}

	start := time.Now()
	probe := []byte(h.now().UTC().Format(time.RFC3339Nano))
	if err := h.cache.Set(ctx, cacheProbeKey, probe, time.Minute); err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: time.Since(start).String()}
	}
	got, err := h.cache.Get(ctx, cacheProbeKey)
	latency := time.Since(start)
	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	if !bytes.Equal(got, probe) {
		return Check{Status: "degraded", Message: "probe value mismatch", Latency: latency.String()}
	}
	return Check{Status: "healthy", Message: "Connected", Latency: latency.String()}
}

// getSystemInfo returns system-level metrics.
func (h *HealthHandler) getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
