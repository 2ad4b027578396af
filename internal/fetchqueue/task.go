// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetchqueue // import "lettre.app/internal/fetchqueue"

import "time"

// Priority orders pending fetches. Manual refreshes outrank scheduled ones,
// which outrank background backfills. The numeric mapping stays internal;
// callers use the named constants.
type Priority int

const (
	PriorityHigh Priority = iota + 1
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Task is one unit of work: fetch new emails for one newsletter.
type Task struct {
	NewsletterID  int64     `json:"newsletter_id"`
	Priority      Priority  `json:"priority"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	EmailsFetched int       `json:"emails_fetched"`
}

// Before reports whether t should be served before other: lower priority
// value first, creation time breaks ties.
func (t *Task) Before(other *Task) bool {
	if t.Priority != other.Priority {
		return t.Priority < other.Priority
	}
	return t.CreatedAt.Before(other.CreatedAt)
}

// Status is a point in time snapshot of the queue. It's rebuilt on every
// call, never mutated in place.
type Status struct {
	IsRunning      bool   `json:"is_running"`
	QueueLength    int    `json:"queue_length"`
	CurrentTask    *int64 `json:"current_task"`
	CompletedCount int    `json:"completed_count"`
	FailedCount    int    `json:"failed_count"`
}
