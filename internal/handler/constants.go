// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteAPI is the prefix of every JSON route.
	RouteAPI = "/api"

	// RouteSessions is the dashboard sessions route.
	RouteSessions = "/sessions"
	// RouteSessionID is the session route pattern.
	RouteSessionID = RouteSessions + "/{sid}"

	// RouteEventID is the backend event route pattern.
	RouteEventID = "/events/{id}"

	// RoutePipeline is the pipeline route.
	RoutePipeline = "/pipeline"
	// RoutePipelineProgress is the pipeline progress route.
	RoutePipelineProgress = RoutePipeline + "/progress"

	// RouteRefresh reloads every backend feed.
	RouteRefresh = "/refresh"
	// RouteFeedRefresh forces regeneration of one feed.
	RouteFeedRefresh = "/feeds/{feed}/refresh"

	// RouteNotifications is the notification feed route.
	RouteNotifications = "/notifications"

	// RouteJobs is the scheduled jobs route.
	RouteJobs = "/jobs"
	// RouteJobName is the scheduled job route pattern.
	RouteJobName = RouteJobs + "/{name}"

	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

// Session sub-routes.
const (
	routeViews         = "/views"
	routeViewName      = routeViews + "/{view}"
	routeFilters       = "/filters"
	routePage          = "/page"
	routePageSize      = "/page-size"
	routeReset         = "/reset"
	routeCompare       = "/compare"
	routeCompareID     = routeCompare + "/{id}"
	routeSelectVisible = routeCompare + "/select-visible"
	routeCompareTable  = routeCompare + "/table"
	routeExport        = "/export.xlsx"
)

// maxPageSize bounds the page size a client can request.
const maxPageSize = 200
