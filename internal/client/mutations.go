// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/olegiv/cardwatch/internal/model"
)

// Pipeline job kinds accepted by the backend trigger endpoints.
const (
	JobFull   = "full"
	JobIngest = "ingest"
)

// TriggerPipeline starts a backend pipeline job. company narrows the run to
// one issuer when non-empty.
func (c *Client) TriggerPipeline(ctx context.Context, job, company string) (*model.TriggerResult, error) {
	q := url.Values{}
	if company != "" {
		q.Set("company", company)
	}
	var raw map[string]json.RawMessage
	if err := c.post(ctx, "/api/pipeline/"+job, q, nil, &raw); err != nil {
		return nil, err
	}
	res := &model.TriggerResult{Started: true}
	if v, ok := raw["started"]; ok {
		_ = json.Unmarshal(v, &res.Started)
	}
	if v, ok := raw["message"]; ok {
		_ = json.Unmarshal(v, &res.Message)
	}
	return res, nil
}

// ExtractDetail asks the backend to re-extract one event's detail page.
func (c *Client) ExtractDetail(ctx context.Context, id int64) (*model.MutationResult, error) {
	var res model.MutationResult
	if err := c.post(ctx, eventPath(id, "extract-detail"), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ManualUpdate submits an analyst correction of event fields.
func (c *Client) ManualUpdate(ctx context.Context, id int64, upd model.ManualUpdate) (*model.MutationResult, error) {
	var res model.MutationResult
	if err := c.post(ctx, eventPath(id, "manual-update"), nil, upd, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ToggleLock flips the event's lock against automatic re-extraction.
func (c *Client) ToggleLock(ctx context.Context, id int64) (*model.MutationResult, error) {
	var res model.MutationResult
	if err := c.post(ctx, eventPath(id, "lock"), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EditHistory fetches the event's manual edit log, newest first as the
// backend orders it.
func (c *Client) EditHistory(ctx context.Context, id int64) ([]model.EditRecord, error) {
	var recs []model.EditRecord
	if err := c.get(ctx, eventPath(id, "edit-history"), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ExtractPending asks the backend to extract up to limit events that have no
// detail text yet. The backend accepts 1 to 50.
func (c *Client) ExtractPending(ctx context.Context, limit int) (*model.TriggerResult, error) {
	limit = min(max(limit, 1), 50)
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var res model.TriggerResult
	if err := c.post(ctx, "/api/events/extract-pending", q, nil, &res); err != nil {
		return nil, err
	}
	res.Started = true
	return &res, nil
}
