// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"

	"github.com/olegiv/cardwatch/internal/predicate"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ServerHost string `env:"CARDWATCH_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"CARDWATCH_SERVER_PORT" envDefault:"8090"`
	Env        string `env:"CARDWATCH_ENV" envDefault:"development"`
	LogLevel   string `env:"CARDWATCH_LOG_LEVEL" envDefault:"info"`

	// Backend API
	BackendURL     string        `env:"CARDWATCH_BACKEND_URL" envDefault:"http://localhost:8000"`
	BackendTimeout time.Duration `env:"CARDWATCH_BACKEND_TIMEOUT" envDefault:"15s"`
	BackendRPS     float64       `env:"CARDWATCH_BACKEND_RPS" envDefault:"20"`
	BackendBurst   int           `env:"CARDWATCH_BACKEND_BURST" envDefault:"10"`

	// Cache configuration
	RedisURL     string        `env:"CARDWATCH_REDIS_URL"`                            // Optional Redis URL for shared caching
	CachePrefix  string        `env:"CARDWATCH_CACHE_PREFIX" envDefault:"cardwatch:"` // Redis key prefix
	CacheTTL     time.Duration `env:"CARDWATCH_CACHE_TTL" envDefault:"24h"`           // Snapshot TTL
	CacheMaxSize int           `env:"CARDWATCH_CACHE_MAX_SIZE" envDefault:"10000"`    // Max memory cache entries
	DetailTTL    time.Duration `env:"CARDWATCH_DETAIL_TTL" envDefault:"30m"`          // Per-event intelligence TTL
	MemoTTL      time.Duration `env:"CARDWATCH_MEMO_TTL" envDefault:"1h"`             // Aggregate memo TTL

	// Dashboard
	PageSize     int           `env:"CARDWATCH_PAGE_SIZE" envDefault:"30"`
	IdleTimeout  time.Duration `env:"CARDWATCH_SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	PollInterval time.Duration `env:"CARDWATCH_POLL_INTERVAL" envDefault:"800ms"`
	TrendsDays   int           `env:"CARDWATCH_TRENDS_DAYS" envDefault:"90"`
	// RefreshSchedule is a cron expression for the periodic backend reload.
	// "off" disables it.
	RefreshSchedule string `env:"CARDWATCH_REFRESH_SCHEDULE" envDefault:"*/10 * * * *"`

	// Issuer identity
	OwnIssuer      string   `env:"CARDWATCH_OWN_ISSUER" envDefault:"신한카드"`
	IssuerMarker   string   `env:"CARDWATCH_ISSUER_MARKER" envDefault:"신한"`
	IssuerPriority []string `env:"CARDWATCH_ISSUER_PRIORITY" envSeparator:"," envDefault:"신한카드,KB국민카드,삼성카드,현대카드"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// RefreshEnabled returns true if periodic backend reloads are scheduled.
func (c Config) RefreshEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.RefreshSchedule)) {
	case "", "-", "off":
		return false
	}
	return true
}

// Issuers returns the issuer identity used by the aggregates.
func (c Config) Issuers() predicate.Issuers {
	priority := make([]string, 0, len(c.IssuerPriority))
	for _, p := range c.IssuerPriority {
		if p = strings.TrimSpace(p); p != "" {
			priority = append(priority, p)
		}
	}
	return predicate.Issuers{
		Own:      strings.TrimSpace(c.OwnIssuer),
		Marker:   strings.TrimSpace(c.IssuerMarker),
		Priority: priority,
	}
}

// SlogLevel maps LogLevel to a slog level. Unknown values select info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CARDWATCH_BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("CARDWATCH_SERVER_PORT out of range: %d", c.ServerPort)
	}
	if c.BackendRPS <= 0 {
		return fmt.Errorf("CARDWATCH_BACKEND_RPS must be positive, got %v", c.BackendRPS)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("CARDWATCH_PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("CARDWATCH_POLL_INTERVAL must be at least 100ms, got %s", c.PollInterval)
	}
	if strings.TrimSpace(c.OwnIssuer) == "" {
		return fmt.Errorf("CARDWATCH_OWN_ISSUER must not be empty")
	}
	if c.RefreshEnabled() {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid CARDWATCH_REFRESH_SCHEDULE %q: %w", c.RefreshSchedule, err)
		}
	}

	if is := c.Issuers(); !slices.Contains(is.Priority, is.Own) {
		slog.Warn("own issuer missing from CARDWATCH_ISSUER_PRIORITY; it will be ordered after listed companies",
			"own", is.Own)
	}
	return nil
}
