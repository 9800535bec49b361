// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestFeedHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string
		wantCount int
	}{
		{"debug skipped", func(l *slog.Logger) { l.Debug("noise") }, "", 0},
		{"info skipped", func(l *slog.Logger) { l.Info("loaded events") }, "", 0},
		{"warn forwarded", func(l *slog.Logger) { l.Warn("feed unavailable") }, LevelWarning, 1},
		{"error forwarded", func(l *slog.Logger) { l.Error("manual update failed") }, LevelError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := NewFeed(10)
			logger := slog.New(NewFeedHandler(discardHandler{}, feed))

			tt.log(logger)

			got := feed.Since(0)
			require.Len(t, got, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantLevel, got[0].Level)
			}
		})
	}
}

func TestFeedHandler_Category(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []any
		want string
	}{
		{"explicit", "something odd", []any{"category", CategoryEdit}, CategoryEdit},
		{"pipeline", "pipeline job failed", nil, CategoryPipeline},
		{"edit", "lock toggle rejected", nil, CategoryEdit},
		{"backend", "optional feed unavailable", nil, CategoryBackend},
		{"cache", "redis cache unavailable", nil, CategoryCache},
		{"session", "session expired", nil, CategorySession},
		{"fallback", "disk is full", nil, CategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := NewFeed(10)
			slog.New(NewFeedHandler(discardHandler{}, feed)).Warn(tt.msg, tt.args...)

			got := feed.Since(0)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Category)
			assert.NotContains(t, got[0].Metadata, "category")
		})
	}
}

func TestFeedHandler_Metadata(t *testing.T) {
	feed := NewFeed(10)
	logger := slog.New(NewFeedHandler(discardHandler{}, feed)).
		With("session", "abc").
		WithGroup("req")

	logger.Warn("feed unavailable", "feed", "briefings", "status", 502)

	got := feed.Since(0)
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].Metadata["session"])
	assert.Equal(t, "briefings", got[0].Metadata["req.feed"])
	assert.Equal(t, "502", got[0].Metadata["req.status"])
	assert.False(t, got[0].Time.IsZero())
}

func TestFeedHandler_ForwardsToInner(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})
	feed := NewFeed(10)
	logger := slog.New(NewFeedHandler(inner, feed))

	logger.Warn("feed unavailable")
	logger.Error("pipeline job failed")

	assert.NotContains(t, buf.String(), "feed unavailable")
	assert.Contains(t, buf.String(), "pipeline job failed")
	assert.Equal(t, 2, feed.Len(), "the feed level is independent of the inner handler level")
}

func TestFeedHandler_CustomLevel(t *testing.T) {
	feed := NewFeed(10)
	logger := slog.New(NewFeedHandlerWithLevel(discardHandler{}, feed, slog.LevelError))

	logger.Warn("feed unavailable")
	logger.Error("pipeline job failed")

	got := feed.Since(0)
	require.Len(t, got, 1)
	assert.Equal(t, "pipeline job failed", got[0].Message)
}

func TestFeed_RingAndSince(t *testing.T) {
	feed := NewFeed(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		feed.Notify(LevelInfo, CategorySystem, msg)
	}

	assert.Equal(t, 3, feed.Len())
	assert.Equal(t, uint64(5), feed.Last())

	all := feed.Since(0)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Message)
	assert.Equal(t, "e", all[2].Message)
	assert.Equal(t, uint64(3), all[0].ID)

	newer := feed.Since(4)
	require.Len(t, newer, 1)
	assert.Equal(t, "e", newer[0].Message)

	assert.Empty(t, feed.Since(5))
}

func TestFeed_DefaultSize(t *testing.T) {
	feed := NewFeed(0)
	for i := 0; i < DefaultFeedSize+5; i++ {
		feed.Notify(LevelInfo, CategorySystem, "x")
	}
	assert.Equal(t, DefaultFeedSize, feed.Len())
}
