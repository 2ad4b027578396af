package fetchqueue

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher records callback invocations in order. Ids present in blocked
// wait for release before returning, ids present in failures return an
// error.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    []int64
	failures map[int64]error
	blocked  map[int64]chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		failures: make(map[int64]error),
		blocked:  make(map[int64]chan struct{}),
	}
}

func (f *fakeFetcher) fetch(ctx context.Context, id int64) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	release := f.blocked[id]
	err := f.failures[id]
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (f *fakeFetcher) block(id int64) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.blocked[id] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeFetcher) fail(id int64, err error) {
	f.mu.Lock()
	f.failures[id] = err
	f.mu.Unlock()
}

func (f *fakeFetcher) callOrder() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.calls...)
}

func (f *fakeFetcher) called(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, got := range f.calls {
		if got == id {
			return true
		}
	}
	return false
}

func waitIdle(t *testing.T, q *Queue) {
	t.Helper()
	assert.Eventually(t, func() bool {
		status := q.Status()
		return !status.IsRunning && status.QueueLength == 0
	}, time.Second, time.Millisecond)
}

func waitInProgress(t *testing.T, q *Queue, id int64) {
	t.Helper()
	assert.Eventually(t, func() bool {
		current := q.Status().CurrentTask
		return current != nil && *current == id
	}, time.Second, time.Millisecond)
}

func TestPushDeduplicatesPending(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	// Keep the worker busy so pushed tasks stay pending.
	release := f.block(99)
	require.True(t, q.Push(99, PriorityNormal))
	waitInProgress(t, q, 99)

	assert.True(t, q.Push(5, PriorityNormal))
	assert.False(t, q.Push(5, PriorityNormal))
	assert.False(t, q.Push(5, PriorityHigh))
	assert.Equal(t, 1, q.Status().QueueLength)

	close(release)
	waitIdle(t, q)
	assert.Equal(t, []int64{99, 5}, f.callOrder())
}

func TestPushDeduplicatesInProgress(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	release := f.block(7)
	require.True(t, q.Push(7, PriorityNormal))
	waitInProgress(t, q, 7)

	assert.False(t, q.Push(7, PriorityHigh),
		"must not queue a newsletter that is being fetched right now")

	close(release)
	waitIdle(t, q)
	assert.Equal(t, []int64{7}, f.callOrder())
}

func TestPriorityOrdering(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	release := f.block(99)
	require.True(t, q.Push(99, PriorityHigh))
	waitInProgress(t, q, 99)

	require.True(t, q.Push(1, PriorityNormal))
	require.True(t, q.Push(2, PriorityHigh))
	require.True(t, q.Push(3, PriorityLow))

	close(release)
	waitIdle(t, q)
	assert.Equal(t, []int64{99, 2, 1, 3}, f.callOrder())
}

func TestEqualPriorityIsFIFO(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	release := f.block(99)
	require.True(t, q.Push(99, PriorityNormal))
	waitInProgress(t, q, 99)

	for id := int64(1); id <= 5; id++ {
		require.True(t, q.Push(id, PriorityNormal))
	}

	close(release)
	waitIdle(t, q)
	assert.Equal(t, []int64{99, 1, 2, 3, 4, 5}, f.callOrder())
}

func TestFailureDoesNotStopWorker(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)
	f.fail(1, errors.New("boom"))

	release := f.block(99)
	require.True(t, q.Push(99, PriorityNormal))
	waitInProgress(t, q, 99)

	require.True(t, q.Push(1, PriorityNormal))
	require.True(t, q.Push(2, PriorityNormal))

	close(release)
	waitIdle(t, q)

	status := q.Status()
	assert.Equal(t, 1, status.FailedCount)
	assert.Equal(t, 2, status.CompletedCount, "99 and 2 completed")
	assert.Equal(t, []int64{99, 1, 2}, f.callOrder())
}

func TestClearPreservesInFlightTask(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	release := f.block(1)
	require.True(t, q.Push(1, PriorityNormal))
	waitInProgress(t, q, 1)
	require.True(t, q.Push(2, PriorityNormal))

	q.Clear()
	assert.Equal(t, 0, q.Status().QueueLength)
	current := q.Status().CurrentTask
	require.NotNil(t, current)
	assert.Equal(t, int64(1), *current)

	close(release)
	waitIdle(t, q)
	assert.Equal(t, 1, q.Status().CompletedCount)
	assert.False(t, f.called(2), "cleared task must not run")
}

func TestStopCancelsInFlightFetch(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	f.block(1) // released only by context cancellation
	require.True(t, q.Push(1, PriorityNormal))
	waitInProgress(t, q, 1)
	require.True(t, q.Push(2, PriorityNormal))

	q.Stop()

	status := q.Status()
	assert.False(t, status.IsRunning)
	assert.Equal(t, 0, status.QueueLength)
	assert.Nil(t, status.CurrentTask)
	assert.Equal(t, 0, status.FailedCount,
		"a fetch interrupted by Stop is not a failure")
	assert.False(t, f.called(2))
}

func TestPushDuringStopIsNotStranded(t *testing.T) {
	var mu sync.Mutex
	var calls []int64
	canceled := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context, id int64) (int, error) {
		mu.Lock()
		calls = append(calls, id)
		mu.Unlock()
		if id == 1 {
			<-ctx.Done()
			close(canceled)
			<-release
		}
		return 1, nil
	}

	q := New(t.Context(), fetch, 0)
	require.True(t, q.Push(1, PriorityNormal))
	waitInProgress(t, q, 1)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		q.Stop()
	}()

	// Stop has cleared the queue and canceled the worker, which is still
	// blocked inside its fetch.
	<-canceled
	require.True(t, q.Push(2, PriorityNormal))

	close(release)
	<-stopped

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return slices.Contains(calls, 2)
	}, time.Second, time.Millisecond, "task queued during Stop must still run")
	waitIdle(t, q)
}

func TestStopWithoutWorker(t *testing.T) {
	q := New(t.Context(), newFakeFetcher().fetch, 0)
	q.Stop() // must not hang or panic
	assert.False(t, q.Status().IsRunning)
}

func TestWorkerRestartsAfterDrain(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	require.True(t, q.Push(1, PriorityNormal))
	waitIdle(t, q)

	require.True(t, q.Push(1, PriorityNormal),
		"completed newsletter can be queued again")
	waitIdle(t, q)
	assert.Equal(t, []int64{1, 1}, f.callOrder())
	assert.Equal(t, 2, q.Status().CompletedCount)
}

func TestPushAllSkipsDuplicates(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)

	release := f.block(99)
	require.True(t, q.Push(99, PriorityNormal))
	waitInProgress(t, q, 99)

	queued := q.PushAll([]int64{1, 2, 1, 99}, PriorityLow)
	assert.Equal(t, 2, queued)

	close(release)
	waitIdle(t, q)
}

func TestResetStats(t *testing.T) {
	f := newFakeFetcher()
	q := New(t.Context(), f.fetch, 0)
	f.fail(2, errors.New("boom"))

	require.True(t, q.Push(1, PriorityNormal))
	waitIdle(t, q)
	require.True(t, q.Push(2, PriorityNormal))
	waitIdle(t, q)

	status := q.Status()
	require.Equal(t, 1, status.CompletedCount)
	require.Equal(t, 1, status.FailedCount)

	q.ResetStats()
	status = q.Status()
	assert.Zero(t, status.CompletedCount)
	assert.Zero(t, status.FailedCount)
}

func TestTaskOrdering(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b Task
		want bool
	}{
		{
			name: "high before normal",
			a:    Task{Priority: PriorityHigh, CreatedAt: now},
			b:    Task{Priority: PriorityNormal, CreatedAt: now.Add(-time.Hour)},
			want: true,
		},
		{
			name: "normal before low",
			a:    Task{Priority: PriorityNormal, CreatedAt: now},
			b:    Task{Priority: PriorityLow, CreatedAt: now.Add(-time.Hour)},
			want: true,
		},
		{
			name: "same priority older first",
			a:    Task{Priority: PriorityNormal, CreatedAt: now.Add(-time.Second)},
			b:    Task{Priority: PriorityNormal, CreatedAt: now},
			want: true,
		},
		{
			name: "same priority newer last",
			a:    Task{Priority: PriorityNormal, CreatedAt: now},
			b:    Task{Priority: PriorityNormal, CreatedAt: now.Add(-time.Second)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Before(&tt.b))
		})
	}
}
