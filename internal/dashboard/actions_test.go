// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/cardwatch/internal/logging"
	"github.com/olegiv/cardwatch/internal/progress"
)

func newTestActions(t *testing.T) (*Actions, *hubFixture) {
	t.Helper()
	f := newHubFixture(t)
	_, err := f.hub.Refresh(context.Background())
	require.NoError(t, err)
	logger := f.hub.logger
	return NewActions(f.backend, f.hub, f.notices, logger), f
}

func lastNotice(f *hubFixture) logging.Notification {
	all := f.notices.Since(0)
	if len(all) == 0 {
		return logging.Notification{}
	}
	return all[len(all)-1]
}

func TestManualUpdate(t *testing.T) {
	a, f := newTestActions(t)
	s := f.sessions.Create(f.hub.Latest)

	res, err := a.ManualUpdate(context.Background(), 2, map[string]any{"title": "현대 여행 특가"}, "  오타  ")
	require.NoError(t, err)
	assert.Equal(t, "저장되었습니다", res.Message)

	var title string
	s.Do(func(c *Coordinator) {
		e, _ := c.Event(2)
		title = e.Title
	})
	assert.Equal(t, "현대 여행 특가", title)
	assert.Equal(t, 2, f.backend.eventCalls, "a confirmed edit reloads the collection")
	assert.Equal(t, "현대 여행 특가", f.hub.Latest().Events[1].Title)

	n := lastNotice(f)
	assert.Equal(t, logging.CategoryEdit, n.Category)
	assert.Equal(t, "저장되었습니다", n.Message)
}

func TestManualUpdateValidation(t *testing.T) {
	a, f := newTestActions(t)

	_, err := a.ManualUpdate(context.Background(), 2, nil, "")
	assert.ErrorIs(t, err, ErrEmptyEdit)

	_, err = a.ManualUpdate(context.Background(), 2, map[string]any{"id": 9}, "")
	assert.ErrorIs(t, err, ErrImmutableEdit)

	assert.Equal(t, 1, f.backend.eventCalls)
}

func TestManualUpdateFailure(t *testing.T) {
	a, f := newTestActions(t)
	s := f.sessions.Create(f.hub.Latest)
	f.backend.mutateErr = errBackendDown

	_, err := a.ManualUpdate(context.Background(), 2, map[string]any{"title": "변경"}, "")
	require.ErrorIs(t, err, errBackendDown)

	var title string
	s.Do(func(c *Coordinator) {
		e, _ := c.Event(2)
		title = e.Title
	})
	assert.Equal(t, "현대 여행 할인", title, "local state is untouched when the backend rejects")
	assert.Equal(t, 1, f.backend.eventCalls)

	n := lastNotice(f)
	assert.Equal(t, "manual update failed", n.Message)
	assert.Equal(t, logging.LevelWarning, n.Level)
	assert.Equal(t, logging.CategoryEdit, n.Category)
	assert.Equal(t, "2", n.Metadata["event_id"])
}

func TestToggleLock(t *testing.T) {
	a, f := newTestActions(t)
	s := f.sessions.Create(f.hub.Latest)

	res, err := a.ToggleLock(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, res.Locked)
	assert.True(t, *res.Locked)

	var locked bool
	s.Do(func(c *Coordinator) {
		e, _ := c.Event(1)
		locked = e.Locked
	})
	assert.True(t, locked)
	assert.Equal(t, "이벤트 1 잠금 변경", lastNotice(f).Message)

	f.backend.mutateErr = errBackendDown
	_, err = a.ToggleLock(context.Background(), 1)
	assert.ErrorIs(t, err, errBackendDown)
}

func TestHistory(t *testing.T) {
	a, f := newTestActions(t)

	recs, err := a.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "5", recs[0].NewValue)

	f.backend.mutateErr = errBackendDown
	_, err = a.History(context.Background(), 5)
	assert.ErrorIs(t, err, errBackendDown)
}

func TestExtractDetail(t *testing.T) {
	a, f := newTestActions(t)

	res, err := a.ExtractDetail(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "추출 완료 3", res.Message)
	assert.Equal(t, 2, f.backend.eventCalls)
	assert.Equal(t, logging.CategoryPipeline, lastNotice(f).Category)
}

func TestTriggerPipeline(t *testing.T) {
	t.Run("unknown job", func(t *testing.T) {
		a, f := newTestActions(t)
		_, err := a.TriggerPipeline(context.Background(), "reindex", "")
		assert.ErrorIs(t, err, ErrUnknownJob)
		assert.Empty(t, f.backend.triggered)
	})

	t.Run("not started is not polled", func(t *testing.T) {
		a, f := newTestActions(t)
		f.backend.started = false

		res, err := a.TriggerPipeline(context.Background(), progress.JobFull, "현대카드")
		require.NoError(t, err)
		assert.False(t, res.Started)
		_, ok := f.hub.Monitor().Get(progress.JobFull)
		assert.False(t, ok)
		assert.Equal(t, "작업이 이미 실행 중입니다", lastNotice(f).Message)
	})

	t.Run("backend error", func(t *testing.T) {
		a, f := newTestActions(t)
		f.backend.mutateErr = errBackendDown
		_, err := a.TriggerPipeline(context.Background(), progress.JobIngest, "")
		assert.ErrorIs(t, err, errBackendDown)
	})

	jobs := []string{progress.JobFull, progress.JobIngest, progress.JobExtract}
	for _, job := range jobs {
		t.Run("completes and reloads "+job, func(t *testing.T) {
			a, f := newTestActions(t)
			f.hub.Start(context.Background())

			res, err := a.TriggerPipeline(context.Background(), job, "")
			require.NoError(t, err)
			assert.True(t, res.Started)
			assert.Equal(t, []string{job}, f.backend.triggered)

			p, ok := f.hub.Monitor().Get(job)
			require.True(t, ok)
			select {
			case <-p.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("poller did not finish")
			}

			assert.Equal(t, progress.StateCompleted, p.State())
			assert.Eventually(t, func() bool {
				f.backend.mu.Lock()
				defer f.backend.mu.Unlock()
				return f.backend.eventCalls == 2
			}, 5*time.Second, 5*time.Millisecond)
			assert.Equal(t, "파이프라인 작업 완료: "+job, lastNotice(f).Message)
		})
	}
}

func TestMessageOr(t *testing.T) {
	assert.Equal(t, "fallback", messageOr("  ", "fallback"))
	assert.Equal(t, "msg", messageOr(" msg ", "fallback"))
}
