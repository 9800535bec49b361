// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/client"
	"github.com/olegiv/cardwatch/internal/config"
	"github.com/olegiv/cardwatch/internal/dashboard"
	"github.com/olegiv/cardwatch/internal/handler"
	"github.com/olegiv/cardwatch/internal/logging"
	"github.com/olegiv/cardwatch/internal/middleware"
	"github.com/olegiv/cardwatch/internal/scheduler"
	"github.com/olegiv/cardwatch/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// requestTimeout bounds every request except workbook downloads.
const requestTimeout = 30 * time.Second

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "cardwatch - competitor card event dashboard\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARDWATCH_BACKEND_URL        Backend API base URL (default: http://localhost:8000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARDWATCH_SERVER_PORT        Server port (default: 8090)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARDWATCH_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARDWATCH_REDIS_URL          Redis URL for shared caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARDWATCH_REFRESH_SCHEDULE   Cron schedule of backend reloads, \"off\" to disable\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARDWATCH_OWN_ISSUER         Issuer the dashboard is built for (default: 신한카드)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
	if *showVersion {
		_, _ = fmt.Println(info.Banner("cardwatch"))
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// WARN and ERROR records also go to the notification feed.
	notices := logging.NewFeed(logging.DefaultFeedSize)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(logging.NewFeedHandler(textHandler, notices))
	slog.SetDefault(logger)

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	clock := func() time.Time { return time.Now().In(loc) }

	appCache := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	backend, err := client.New(client.Options{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	sessions := dashboard.NewSessions(dashboard.SessionOptions{
		Issuers:     cfg.Issuers(),
		PageSize:    cfg.PageSize,
		IdleTimeout: cfg.IdleTimeout,
		Cache:       appCache,
		MemoTTL:     cfg.MemoTTL,
		Logger:      logger,
		Clock:       clock,
	})
	hub := dashboard.NewHub(backend, sessions, dashboard.HubOptions{
		Cache:        appCache,
		SnapshotTTL:  cfg.CacheTTL,
		DetailTTL:    cfg.DetailTTL,
		TrendsDays:   cfg.TrendsDays,
		PollInterval: cfg.PollInterval,
		Notices:      notices,
		Logger:       logger,
		Clock:        clock,
	})
	actions := dashboard.NewActions(backend, hub, notices, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	hub.Start(ctx)
	defer hub.Close()

	if hub.Warm(ctx) {
		slog.Info("serving cached snapshot until the first reload completes")
	}
	go func() {
		if _, err := hub.Refresh(ctx); err != nil {
			slog.Warn("initial backend load failed", "backend", backend.BaseURL(), "error", err)
		}
	}()

	sched := scheduler.New(logger, loc)
	if cfg.RefreshEnabled() {
		if err := sched.Add(scheduler.JobRefresh, "Reload every backend feed", cfg.RefreshSchedule, true,
			func(ctx context.Context) error {
				_, err := hub.Refresh(ctx)
				return err
			}); err != nil {
			return err
		}
	}
	if err := sched.Add(scheduler.JobSweep, "Close idle dashboard sessions", "@every 1m", false,
		func(context.Context) error {
			sessions.Sweep(time.Now())
			return nil
		}); err != nil {
		return err
	}
	if err := sched.Add(scheduler.JobClock, "Advance session clocks across midnight", "@every 1m", false,
		func(context.Context) error {
			sessions.Tick(clock())
			return nil
		}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(requestTimeout, "/api/sessions/"))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	handler.Register(r, handler.Deps{
		Hub:      hub,
		Actions:  actions,
		Notices:  notices,
		Jobs:     sched.Registry(),
		Cache:    appCache,
		Version:  info,
		Clock:    clock,
		Throttle: middleware.RateLimit(1, 5),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second, // Workbook exports of the full list
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env,
			"backend", backend.BaseURL(), "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
