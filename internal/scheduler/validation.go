// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard five-field expressions and descriptors
// such as "@hourly" or "@every 5m".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// minEvery is the shortest accepted "@every" interval.
const minEvery = 30 * time.Second

// ValidateSchedule checks that expr is a cron expression the scheduler can run.
func ValidateSchedule(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("schedule is required")
	}

	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	if every, ok := sched.(cron.ConstantDelaySchedule); ok && every.Delay < minEvery {
		return fmt.Errorf("schedule %q runs more often than every %s", expr, minEvery)
	}
	return nil
}
