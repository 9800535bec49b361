// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/logging"
	"github.com/olegiv/cardwatch/internal/scheduler"
	"github.com/olegiv/cardwatch/internal/version"
)

// testEnv is a router wired to an in-memory backend.
type testEnv struct {
	backend *fakeBackend
	hub     *dashboard.Hub
	notices *logging.Feed
	jobs    *scheduler.Scheduler
	cache   cache.Cache
	router  chi.Router
}

// newTestEnv builds the routes without loading a snapshot.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	notices := logging.NewFeed(50)
	logger := slog.New(logging.NewFeedHandler(slog.NewTextHandler(io.Discard, nil), notices))
	clock := func() time.Time { return refNow }
	mc := cache.NewSimpleMemoryCache(time.Hour)
	t.Cleanup(func() { _ = mc.Close() })

	b := newFakeBackend()
	sessions := dashboard.NewSessions(dashboard.SessionOptions{
		PageSize: 2,
		Cache:    mc,
		Logger:   logger,
		Clock:    clock,
	})
	hub := dashboard.NewHub(b, sessions, dashboard.HubOptions{
		Cache:        mc,
		PollInterval: time.Hour,
		Notices:      notices,
		Logger:       logger,
		Clock:        clock,
	})
	t.Cleanup(hub.Close)

	sched := scheduler.New(logger, kst)
	if err := sched.Add(scheduler.JobRefresh, "reload backend feeds", "*/10 * * * *", true, func(ctx context.Context) error {
		_, err := hub.Refresh(ctx)
		return err
	}); err != nil {
		t.Fatalf("adding refresh job: %v", err)
	}

	r := chi.NewRouter()
	Register(r, Deps{
		Hub:     hub,
		Actions: dashboard.NewActions(b, hub, notices, logger),
		Notices: notices,
		Jobs:    sched.Registry(),
		Cache:   mc,
		Version: version.Info{Version: "v1.0.0", GitCommit: "abc1234"},
		Clock:   clock,
	})

	return &testEnv{backend: b, hub: hub, notices: notices, jobs: sched, cache: mc, router: r}
}

// newLoadedEnv builds the routes and publishes one backend snapshot.
func newLoadedEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	if _, err := env.hub.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	return env
}

// do sends a request with an optional JSON body through the router.
func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// viewsBody is the decoded form of viewsResponse.
type viewsBody struct {
	Success  bool   `json:"success"`
	Session  string `json:"session"`
	Revision uint64 `json:"revision"`
	Views    []struct {
		Name     string          `json:"name"`
		Revision uint64          `json:"revision"`
		Data     json.RawMessage `json:"data"`
		Empty    bool            `json:"empty"`
		Error    string          `json:"error"`
	} `json:"views"`
}

func decodeViews(t *testing.T, w *httptest.ResponseRecorder) viewsBody {
	t.Helper()
	var vb viewsBody
	if err := json.Unmarshal(w.Body.Bytes(), &vb); err != nil {
		t.Fatalf("decoding views %q: %v", w.Body.String(), err)
	}
	return vb
}

func (vb viewsBody) names() []string {
	out := make([]string, len(vb.Views))
	for i, v := range vb.Views {
		out[i] = v.Name
	}
	return out
}

// eventsView decodes the events view of a response, failing if absent.
func (vb viewsBody) eventsView(t *testing.T) dashboard.EventList {
	t.Helper()
	for _, v := range vb.Views {
		if v.Name == dashboard.ViewEvents {
			var list dashboard.EventList
			if err := json.Unmarshal(v.Data, &list); err != nil {
				t.Fatalf("decoding events view: %v", err)
			}
			return list
		}
	}
	t.Fatalf("events view missing from %v", vb.names())
	return dashboard.EventList{}
}

// createSession opens a session and returns its id.
func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", w.Code, w.Body.String())
	}
	return decodeViews(t, w).Session
}
