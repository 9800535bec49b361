// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the user-visible notification feed.
package logging

import (
	"context"
	"log/slog"
	"strings"
)

// FeedHandler is a slog.Handler that wraps another handler and also pushes
// WARN and ERROR records into a Feed.
type FeedHandler struct {
	inner slog.Handler
	feed  *Feed
	level slog.Level // minimum level forwarded to the feed
	attrs []slog.Attr
	group string
}

// NewFeedHandler creates a FeedHandler forwarding WARN and above to feed.
func NewFeedHandler(inner slog.Handler, feed *Feed) *FeedHandler {
	return NewFeedHandlerWithLevel(inner, feed, slog.LevelWarn)
}

// NewFeedHandlerWithLevel creates a FeedHandler with a custom minimum level.
func NewFeedHandlerWithLevel(inner slog.Handler, feed *Feed, level slog.Level) *FeedHandler {
	return &FeedHandler{
		inner: inner,
		feed:  feed,
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *FeedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *FeedHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level >= h.level && h.feed != nil {
		h.feed.Push(h.notification(r))
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *FeedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *FeedHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	if name != "" {
		if clone.group != "" {
			clone.group += "." + name
		} else {
			clone.group = name
		}
	}
	return &clone
}

func (h *FeedHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *FeedHandler) notification(r slog.Record) Notification {
	n := Notification{
		Level:   levelName(r.Level),
		Message: r.Message,
		Time:    r.Time,
	}

	all := append([]slog.Attr(nil), h.attrs...)
	var own []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)
		return true
	})
	all = append(all, h.qualify(own)...)

	for _, a := range all {
		if a.Key == "category" {
			n.Category = a.Value.String()
			continue
		}
		if n.Metadata == nil {
			n.Metadata = make(map[string]string, len(all))
		}
		n.Metadata[a.Key] = a.Value.String()
	}
	if n.Category == "" {
		n.Category = inferCategory(r.Message)
	}
	return n
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// inferCategory guesses a category from the log message.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "pipeline") || strings.Contains(msg, "job") || strings.Contains(msg, "progress"):
		return CategoryPipeline
	case strings.Contains(msg, "edit") || strings.Contains(msg, "lock") || strings.Contains(msg, "update"):
		return CategoryEdit
	case strings.Contains(msg, "feed") || strings.Contains(msg, "backend") || strings.Contains(msg, "fetch"):
		return CategoryBackend
	case strings.Contains(msg, "cache"):
		return CategoryCache
	case strings.Contains(msg, "session"):
		return CategorySession
	default:
		return CategorySystem
	}
}
