// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the JSON HTTP surface of the dashboard.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/logging"
	"github.com/olegiv/cardwatch/internal/scheduler"
	"github.com/olegiv/cardwatch/internal/version"
)

// Deps are the services the routes are built from.
type Deps struct {
	Hub     *dashboard.Hub
	Actions *dashboard.Actions
	Notices *logging.Feed
	Jobs    *scheduler.Registry
	Cache   cache.Cache
	Version version.Info
	// Clock dates health checks. Defaults to time.Now.
	Clock func() time.Time

	// Throttle, when set, wraps the routes that start backend work.
	Throttle func(http.Handler) http.Handler
}

// Register mounts every route on r.
func Register(r chi.Router, d Deps) {
	sessions := NewSessionsHandler(d.Hub)
	events := NewEventsHandler(d.Actions)
	pipeline := NewPipelineHandler(d.Hub, d.Actions)
	notices := NewNotificationsHandler(d.Notices)
	health := NewHealthHandler(d.Hub, d.Cache, d.Version)
	if d.Clock != nil {
		health.now = d.Clock
	}

	throttle := d.Throttle
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get(RouteHealth, health.Health)
	r.Get(RouteHealth+"/live", health.Liveness)
	r.Get(RouteHealth+"/ready", health.Readiness)

	r.Route(RouteAPI, func(r chi.Router) {
		r.Post(RouteSessions, sessions.Create)
		r.Route(RouteSessionID, func(r chi.Router) {
			r.Delete("/", sessions.Close)
			r.Get(routeViews, sessions.Views)
			r.Get(routeViewName, sessions.View)
			r.Put(routeFilters, sessions.SetFilters)
			r.Put(routePage, sessions.SetPage)
			r.Put(routePageSize, sessions.SetPageSize)
			r.Post(routeReset, sessions.Reset)
			r.Delete(routeCompare, sessions.ClearCompare)
			r.Post(routeSelectVisible, sessions.SelectVisible)
			r.Get(routeCompareTable, sessions.CompareTable)
			r.Put(routeCompareID, sessions.Toggle)
			r.Get(routeExport, sessions.Export)
		})

		r.Get(RouteEventID+"/history", events.History)
		r.Get(RoutePipelineProgress, pipeline.Progress)
		r.Delete(RoutePipelineProgress+"/{job}", pipeline.StopProgress)
		r.Get(RouteNotifications, notices.List)

		r.Group(func(r chi.Router) {
			r.Use(throttle)
			r.Post(RouteEventID+"/manual-update", events.ManualUpdate)
			r.Post(RouteEventID+"/lock", events.ToggleLock)
			r.Post(RouteEventID+"/extract", events.Extract)
			r.Post(RoutePipeline+"/{job}", pipeline.Trigger)
			r.Post(RouteRefresh, pipeline.Refresh)
			r.Post(RouteFeedRefresh, pipeline.ForceFeed)
		})

		if d.Jobs != nil {
			jobs := NewJobsHandler(d.Jobs)
			r.Get(RouteJobs, jobs.List)
			r.With(throttle).Post(RouteJobName+"/run", jobs.Run)
			r.Put(RouteJobName+"/schedule", jobs.UpdateSchedule)
			r.Delete(RouteJobName+"/schedule", jobs.ResetSchedule)
		}
	})

}
