package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFire struct {
	mu    sync.Mutex
	calls []int64
	err   error
	gate  chan struct{}
}

func (f *fakeFire) fire(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	err := f.err
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeFire) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newStarted(t *testing.T, fire FireFunc) *Scheduler {
	t.Helper()
	s := New(t.Context(), 0)
	s.Initialize(fire)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown(context.Background()))
	})
	return s
}

func TestStartBeforeInitialize(t *testing.T) {
	s := New(t.Context(), 0)
	require.ErrorIs(t, s.Start(), ErrNotInitialized)
	require.ErrorIs(t, s.ScheduleNewsletterFetch(1, 60), ErrNotInitialized)
	assert.False(t, s.IsRunning())
}

func TestInitializeIdempotent(t *testing.T) {
	first := &fakeFire{}
	second := &fakeFire{}

	s := newStarted(t, first.fire)
	s.Initialize(second.fire) // ignored

	require.NoError(t, s.ScheduleNewsletterFetch(1, 60))
	s.RunNow(1)

	assert.Eventually(t, func() bool { return first.count() == 1 },
		time.Second, time.Millisecond)
	assert.Zero(t, second.count())
}

func TestScheduleIsIdempotentPerNewsletter(t *testing.T) {
	f := &fakeFire{}
	s := newStarted(t, f.fire)

	require.NoError(t, s.ScheduleNewsletterFetch(42, 60))
	require.NoError(t, s.ScheduleNewsletterFetch(42, 30))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "newsletter_fetch_42", jobs[0].ID)
	assert.Equal(t, int64(42), jobs[0].NewsletterID)
	assert.Equal(t, "interval[30m0s]", jobs[0].Trigger)

	assert.Eventually(t, func() bool {
		return !s.Jobs()[0].NextRunTime.IsZero()
	}, time.Second, time.Millisecond)
}

func TestUnscheduleUnknownNewsletter(t *testing.T) {
	f := &fakeFire{}
	s := newStarted(t, f.fire)
	s.UnscheduleNewsletterFetch(999) // must not panic
	assert.Empty(t, s.Jobs())
}

func TestUpdateNewsletterSchedule(t *testing.T) {
	f := &fakeFire{}
	s := newStarted(t, f.fire)

	require.NoError(t, s.UpdateNewsletterSchedule(7, 15, true))
	require.Len(t, s.Jobs(), 1)

	require.NoError(t, s.UpdateNewsletterSchedule(7, 15, false))
	assert.Empty(t, s.Jobs())

	// Disabling an unknown newsletter is a no-op.
	require.NoError(t, s.UpdateNewsletterSchedule(8, 15, false))
}

func TestFireFailureKeepsJobScheduled(t *testing.T) {
	f := &fakeFire{err: errors.New("boom")}
	s := newStarted(t, f.fire)

	require.NoError(t, s.ScheduleNewsletterFetch(1, 60))
	s.RunNow(1)

	require.Eventually(t, func() bool { return f.count() == 1 },
		time.Second, time.Millisecond)
	assert.True(t, s.IsRunning(),
		"a failed run must not stop the scheduler")
	require.Len(t, s.Jobs(), 1,
		"a failed run must not deregister the job")
}

func TestRunNowUnknownNewsletter(t *testing.T) {
	f := &fakeFire{}
	s := newStarted(t, f.fire)
	s.RunNow(999) // no-op

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, f.count())
}

func TestPauseAndResume(t *testing.T) {
	f := &fakeFire{}
	s := newStarted(t, f.fire)
	require.NoError(t, s.ScheduleNewsletterFetch(1, 60))

	s.Pause()
	s.RunNow(1)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, f.count(), "paused scheduler must not fire")
	require.Len(t, s.Jobs(), 1, "pause keeps job definitions")

	s.Resume()
	s.RunNow(1)
	assert.Eventually(t, func() bool { return f.count() == 1 },
		time.Second, time.Millisecond)
}

func TestShutdownWaitsForInFlightJob(t *testing.T) {
	f := &fakeFire{gate: make(chan struct{})}

	s := New(t.Context(), 0)
	s.Initialize(f.fire)
	require.NoError(t, s.Start())
	require.NoError(t, s.ScheduleNewsletterFetch(1, 60))

	s.RunNow(1)
	require.Eventually(t, func() bool { return f.count() == 1 },
		time.Second, time.Millisecond)

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- s.Shutdown(context.Background()) }()

	select {
	case err := <-shutdownDone:
		t.Fatalf("Shutdown returned while the job was still running: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(f.gate)
	select {
	case err := <-shutdownDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return after the job finished")
	}
	assert.False(t, s.IsRunning())
}

func TestShutdownNeverStarted(t *testing.T) {
	s := New(t.Context(), 0)
	require.NoError(t, s.Shutdown(context.Background()))

	s.Initialize((&fakeFire{}).fire)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestMisfired(t *testing.T) {
	now := time.Now()
	j := &job{interval: time.Hour}

	t.Run("no expected time", func(t *testing.T) {
		assert.False(t, j.misfired(now, 5*time.Minute))
	})

	j.expected.Store(now.Add(-10 * time.Minute))
	tests := []struct {
		name  string
		grace time.Duration
		want  bool
	}{
		{name: "late beyond grace", grace: 5 * time.Minute, want: true},
		{name: "late within grace", grace: 15 * time.Minute, want: false},
		{name: "grace disabled", grace: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, j.misfired(now, tt.grace))
		})
	}
}
