// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/predicate"
)

// Memo memoizes aggregate results in the cache layer. Entries are keyed by
// view, store generation and calendar day, so a store mutation or a day
// rollover never serves a stale result.
type Memo struct {
	cache  cache.Cache
	prefix string
	ttl    time.Duration
}

// NewMemo creates a memo whose keys live under "memo:<namespace>:".
func NewMemo(c cache.Cache, namespace string, ttl time.Duration) *Memo {
	return &Memo{cache: c, prefix: "memo:" + namespace + ":", ttl: ttl}
}

func (m *Memo) key(view string, generation uint64, now time.Time) string {
	return fmt.Sprintf("%s:%d:%s", view, generation, predicate.Today(now).Format(time.DateOnly))
}

// Invalidate drops every memoized entry of this namespace.
func (m *Memo) Invalidate(ctx context.Context) {
	if m == nil {
		return
	}
	if err := m.cache.DeleteByPrefix(ctx, m.prefix); err != nil {
		slog.Warn("failed to invalidate aggregate memo", "prefix", m.prefix, "error", err)
	}
}

// Memoize returns the cached result of compute for (view, generation, day),
// computing and storing it on a miss. A nil memo always computes.
func Memoize[T any](ctx context.Context, m *Memo, view string, generation uint64, now time.Time, compute func() T) T {
	if m == nil {
		return compute()
	}
	tc := cache.NewTypedCache[T](m.cache, m.prefix, m.ttl)
	v, err := tc.GetOrSet(ctx, m.key(view, generation, now), func() (*T, error) {
		r := compute()
		return &r, nil
	})
	if err != nil || v == nil {
		return compute()
	}
	return *v
}
