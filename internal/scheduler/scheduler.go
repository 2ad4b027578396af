// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package scheduler // import "lettre.app/internal/scheduler"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"lettre.app/internal/logging"
)

// ErrNotInitialized is returned by operations invoked before Initialize.
// That ordering is a wiring bug in the composing application, so it fails
// loudly instead of being silently ignored.
var ErrNotInitialized = errors.New("scheduler: not initialized")

// FireFunc is invoked when a newsletter's auto-fetch timer fires. In the
// composed application it enqueues into the fetch queue rather than fetching
// directly, so scheduled and manual fetches share one serialization point.
type FireFunc func(ctx context.Context, newsletterID int64) error

// JobInfo describes one scheduled job for introspection.
type JobInfo struct {
	ID           string    `json:"id"`
	NewsletterID int64     `json:"newsletter_id"`
	NextRunTime  time.Time `json:"next_run_time"`
	Trigger      string    `json:"trigger"`
}

// New creates a Scheduler. It does nothing until Initialize and Start are
// called.
func New(ctx context.Context, misfireGrace time.Duration) *Scheduler {
	return &Scheduler{ctx: ctx, misfireGrace: misfireGrace}
}

// Scheduler owns one recurring timer per newsletter. On firing it delegates
// to the fire callback; it never fetches anything itself.
type Scheduler struct {
	ctx          context.Context
	misfireGrace time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	fire    FireFunc
	jobs    map[int64]*job
	started bool

	// runs tracks jobs fired by RunNow. They run outside the cron loop, so
	// Shutdown has to wait for them separately.
	runs sync.WaitGroup

	paused atomic.Bool
}

// Initialize stores the fire callback and builds the underlying cron
// runner. It's idempotent: every call after the first is ignored.
func (s *Scheduler) Initialize(fire FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	log := logging.FromContext(s.ctx)
	s.fire = fire
	s.jobs = make(map[int64]*job)
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{log}),
		cron.SkipIfStillRunning(cronLogger{log}),
	))
	log.Info("scheduler: initialized")
}

// Start begins firing scheduled jobs. It fails if Initialize was never
// called.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return ErrNotInitialized
	}
	if !s.started {
		s.cron.Start()
		s.started = true
		logging.FromContext(s.ctx).Info("scheduler: started")
	}
	return nil
}

// Shutdown stops firing new jobs and waits for any in-flight job to finish,
// or for ctx to expire. It's safe to call even if the scheduler was never
// started.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.started = false
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-c.Stop().Done()
		s.runs.Wait()
	}()

	select {
	case <-done:
		logging.FromContext(s.ctx).Info("scheduler: shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: shutdown: %w", context.Cause(ctx))
	}
}

// ScheduleNewsletterFetch installs a recurring fetch for the newsletter. An
// existing job for the same newsletter is replaced, never duplicated.
func (s *Scheduler) ScheduleNewsletterFetch(newsletterID int64,
	intervalMinutes int,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return ErrNotInitialized
	}

	if j, ok := s.jobs[newsletterID]; ok {
		s.cron.Remove(j.entryID)
		delete(s.jobs, newsletterID)
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	j := &job{
		scheduler:    s,
		newsletterID: newsletterID,
		interval:     interval,
	}
	j.expected.Store(time.Now().Add(interval))
	j.entryID = s.cron.Schedule(cron.Every(interval), j)
	s.jobs[newsletterID] = j

	logging.FromContext(s.ctx).Info("scheduler: scheduled newsletter fetch",
		slog.Int64("newsletter_id", newsletterID),
		slog.Duration("interval", interval))
	return nil
}

// UnscheduleNewsletterFetch removes the job for the newsletter. Unknown ids
// are a no-op.
func (s *Scheduler) UnscheduleNewsletterFetch(newsletterID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[newsletterID]
	if !ok {
		return
	}

	s.cron.Remove(j.entryID)
	delete(s.jobs, newsletterID)
	logging.FromContext(s.ctx).Info("scheduler: unscheduled newsletter fetch",
		slog.Int64("newsletter_id", newsletterID))
}

// UpdateNewsletterSchedule is the single entry point for auto-fetch setting
// changes: enabled installs or replaces the job, disabled removes it.
func (s *Scheduler) UpdateNewsletterSchedule(newsletterID int64,
	intervalMinutes int, enabled bool,
) error {
	if enabled {
		return s.ScheduleNewsletterFetch(newsletterID, intervalMinutes)
	}
	s.UnscheduleNewsletterFetch(newsletterID)
	return nil
}

// RunNow fires the newsletter's job immediately without touching its
// recurring interval. Unknown ids and a stopped scheduler are a no-op.
func (s *Scheduler) RunNow(newsletterID int64) {
	s.mu.Lock()
	var entry cron.Entry
	j, ok := s.jobs[newsletterID]
	tracked := ok && s.started
	if tracked {
		entry = s.cron.Entry(j.entryID)
		s.runs.Add(1)
	}
	s.mu.Unlock()

	if entry.WrappedJob == nil {
		if tracked {
			s.runs.Done()
		}
		return
	}

	// WrappedJob keeps the skip-if-still-running guarantee for manual runs.
	go func() {
		defer s.runs.Done()
		entry.WrappedJob.Run()
	}()
}

// Pause suspends firing without removing job definitions.
func (s *Scheduler) Pause() {
	s.paused.Store(true)
	logging.FromContext(s.ctx).Info("scheduler: paused")
}

// Resume reverses Pause.
func (s *Scheduler) Resume() {
	s.paused.Store(false)
	logging.FromContext(s.ctx).Info("scheduler: resumed")
}

// Jobs returns a snapshot of all scheduled jobs, ordered by newsletter id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, id := range slices.Sorted(maps.Keys(s.jobs)) {
		j := s.jobs[id]
		infos = append(infos, JobInfo{
			ID:           j.jobID(),
			NewsletterID: id,
			NextRunTime:  s.cron.Entry(j.entryID).Next,
			Trigger:      fmt.Sprintf("interval[%s]", j.interval),
		})
	}
	return infos
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// job is one newsletter's recurring trigger.
type job struct {
	scheduler    *Scheduler
	newsletterID int64
	interval     time.Duration
	entryID      cron.EntryID

	// expected holds the planned fire time (time.Time), used to detect
	// misfires when the process was asleep or busy.
	expected atomic.Value
}

func (j *job) jobID() string {
	return fmt.Sprintf("newsletter_fetch_%d", j.newsletterID)
}

func (j *job) Run() {
	s := j.scheduler
	now := time.Now()
	missed := j.misfired(now, s.misfireGrace)
	j.expected.Store(now.Add(j.interval))

	log := logging.FromContext(s.ctx).With(
		slog.String("job", j.jobID()),
		slog.Int64("newsletter_id", j.newsletterID))

	switch {
	case missed:
		log.Warn("scheduler: run missed beyond grace period, skipping")
		return
	case s.paused.Load():
		log.Debug("scheduler: paused, skipping run")
		return
	}

	log.Debug("scheduler: job fired")
	if err := s.fire(s.ctx, j.newsletterID); err != nil {
		// A failed run must never crash the scheduler or drop the job.
		log.Error("scheduler: fetch callback failed", slog.Any("error", err))
	}
}

// misfired reports whether this firing is later than the planned time plus
// the grace period. Grace zero or below disables the check.
func (j *job) misfired(now time.Time, grace time.Duration) bool {
	if grace <= 0 {
		return false
	}
	expected, ok := j.expected.Load().(time.Time)
	if !ok || expected.IsZero() {
		return false
	}
	return now.Sub(expected) > grace
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct{ log *slog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("scheduler: "+msg, slog.Any("args", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("scheduler: "+msg, slog.Any("error", err),
		slog.Any("args", keysAndValues))
}
