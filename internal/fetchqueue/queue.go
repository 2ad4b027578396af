// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetchqueue // import "lettre.app/internal/fetchqueue"

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"lettre.app/internal/logging"
	"lettre.app/internal/metric"
)

// FetchFunc fetches new emails for one newsletter and returns how many were
// stored. "Nothing new" is 0 and nil, not an error.
type FetchFunc func(ctx context.Context, newsletterID int64) (int, error)

// New creates a fetch queue. The worker goroutine isn't started until the
// first Push; it exits when the queue drains and is restarted on demand.
func New(ctx context.Context, fetch FetchFunc, delay time.Duration) *Queue {
	return &Queue{
		ctx:   ctx,
		fetch: fetch,
		delay: delay,
	}
}

// Queue serializes newsletter fetches: one at a time, ordered by (priority,
// created at), with a cool-down between consecutive fetches to stay under
// the Gmail API rate limits.
type Queue struct {
	ctx   context.Context
	fetch FetchFunc
	delay time.Duration

	mu        sync.Mutex
	pending   []*Task
	current   *Task
	running   bool
	completed int
	failed    int

	cancel context.CancelFunc
	done   chan struct{}
}

// Push adds a newsletter to the queue. It returns false without queueing
// when the newsletter is already pending or being fetched right now. The
// worker is started if it's not running.
func (q *Queue) Push(newsletterID int64, priority Priority) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if slices.ContainsFunc(q.pending, func(t *Task) bool {
		return t.NewsletterID == newsletterID
	}) {
		return false
	}
	if q.current != nil && q.current.NewsletterID == newsletterID {
		return false
	}

	q.pending = append(q.pending, &Task{
		NewsletterID: newsletterID,
		Priority:     priority,
		CreatedAt:    time.Now(),
		Status:       StatusPending,
	})
	slices.SortStableFunc(q.pending, func(a, b *Task) int {
		if a.Before(b) {
			return -1
		} else if b.Before(a) {
			return 1
		}
		return 0
	})

	logging.FromContext(q.ctx).Debug("fetchqueue: queued newsletter",
		slog.Int64("newsletter_id", newsletterID),
		slog.String("priority", priority.String()),
		slog.Int("queue_length", len(q.pending)))

	if !q.running {
		q.startWorker()
	}
	return true
}

// PushAll queues multiple newsletters and returns how many were newly
// queued. Duplicates are skipped silently.
func (q *Queue) PushAll(newsletterIDs []int64, priority Priority) int {
	var queued int
	for _, id := range newsletterIDs {
		if q.Push(id, priority) {
			queued++
		}
	}
	return queued
}

// Status returns a snapshot of the queue. It never blocks on in-flight
// fetches.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	status := Status{
		IsRunning:      q.running,
		QueueLength:    len(q.pending),
		CompletedCount: q.completed,
		FailedCount:    q.failed,
	}
	if q.current != nil {
		id := q.current.NewsletterID
		status.CurrentTask = &id
	}
	return status
}

// Clear drops all pending tasks. The task currently being fetched, if any,
// runs to completion.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
	logging.FromContext(q.ctx).Info("fetchqueue: cleared pending tasks")
}

// Stop clears pending tasks and cancels the worker, waiting for it to exit.
// An in-flight fetch gets its context canceled, so it's interrupted at its
// next I/O rather than left to finish.
func (q *Queue) Stop() {
	q.Clear()

	q.mu.Lock()
	cancel, done := q.cancel, q.done
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// ResetStats zeroes the completed and failed counters.
func (q *Queue) ResetStats() {
	q.mu.Lock()
	q.completed, q.failed = 0, 0
	q.mu.Unlock()
}

func (q *Queue) startWorker() {
	ctx, cancel := context.WithCancel(q.ctx)
	done := make(chan struct{})
	q.cancel, q.done = cancel, done
	q.running = true

	go func() {
		defer close(done)
		defer cancel()
		q.run(ctx, done)
	}()
}

func (q *Queue) run(ctx context.Context, done chan struct{}) {
	log := logging.FromContext(ctx)
	log.Info("fetchqueue: worker started")
	defer q.finish(done)

	for {
		select {
		case <-ctx.Done():
			log.Info("fetchqueue: worker stopped",
				slog.Any("reason", context.Cause(ctx)))
			return
		default:
		}

		task := q.next()
		if task == nil {
			log.Info("fetchqueue: queue drained, worker exiting")
			return
		}
		q.process(ctx, task)

		if q.hasPending() {
			select {
			case <-ctx.Done():
			case <-time.After(q.delay):
			}
		}
	}
}

// next pops the highest priority pending task. When the queue is empty it
// flips running to false under the same lock, so a concurrent Push either
// sees the task list before the pop or restarts the worker afterwards;
// either way no task is lost.
func (q *Queue) next() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		q.running = false
		q.cancel, q.done = nil, nil
		return nil
	}

	task := q.pending[0]
	q.pending = q.pending[1:]
	task.Status = StatusInProgress
	q.current = task
	return task
}

func (q *Queue) process(ctx context.Context, task *Task) {
	log := logging.FromContext(ctx).With(
		slog.Int64("newsletter_id", task.NewsletterID))
	startTime := time.Now()
	count, err := q.fetch(ctx, task.NewsletterID)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = nil

	switch {
	case err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Interrupted by Stop, not a fetch failure.
		task.Status = StatusFailed
		task.Error = err.Error()
	case err != nil:
		task.Status = StatusFailed
		task.Error = err.Error()
		q.failed++
		log.Error("fetchqueue: fetch failed", slog.Any("error", err))
		observeFetch("error", startTime)
	default:
		task.Status = StatusCompleted
		task.EmailsFetched = count
		q.completed++
		log.Info("fetchqueue: fetch completed",
			slog.Int("emails_fetched", count))
		observeFetch("success", startTime)
	}
}

func (q *Queue) hasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0
}

// finish resets the running flag after a canceled worker. The drained-queue
// exit path already reset it in next; the ownership check keeps an old
// worker from clobbering the state of a newly started one.
func (q *Queue) finish(done chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done != done {
		return
	}
	q.running = false
	q.current = nil
	q.cancel, q.done = nil, nil

	// A Push that landed between the cancellation and this cleanup saw the
	// old worker as running and queued its task without starting a new one.
	if len(q.pending) > 0 && q.ctx.Err() == nil {
		q.startWorker()
	}
}

func observeFetch(status string, startTime time.Time) {
	if metric.Enabled() {
		metric.NewsletterFetchDuration.
			WithLabelValues(status).
			Observe(time.Since(startTime).Seconds())
	}
}
