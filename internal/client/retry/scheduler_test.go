package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/forkful/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, maxAttempts int) *Scheduler {
	t.Helper()

	s := NewScheduler(Config{BaseDelay: 5 * time.Millisecond, MaxAttempts: maxAttempts}, testLogger())
	t.Cleanup(s.Close)
	return s
}

// outcome собирает результат задачи
type outcome struct {
	err       error
	mu        sync.Mutex
	succeeded bool
	exhausted bool
}

func (o *outcome) task(m *models.PendingMutation, replay func(ctx context.Context) error) Task {
	return Task{
		Mutation: m,
		Replay:   replay,
		OnSuccess: func() {
			o.mu.Lock()
			o.succeeded = true
			o.mu.Unlock()
		},
		OnExhausted: func(err error) {
			o.mu.Lock()
			o.exhausted = true
			o.err = err
			o.mu.Unlock()
		},
	}
}

func (o *outcome) done() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.succeeded || o.exhausted
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultBaseDelay, cfg.BaseDelay)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultMaxDelay, cfg.MaxDelay)
}

func TestLinearBackoff(t *testing.T) {
	m := &models.PendingMutation{}
	b := linearBackoff(10*time.Millisecond, m)

	for i := 1; i <= 3; i++ {
		d, stop := b.Next()
		assert.False(t, stop)
		assert.Equal(t, time.Duration(i)*10*time.Millisecond, d)
		m.RetryCount++
	}
}

func TestScheduler_RetrySucceeds(t *testing.T) {
	s := newTestScheduler(t, 3)
	m := models.NewPendingMutation(models.MutationLike, "post-1", "actor-1", nil)

	var calls atomic.Int32
	o := &outcome{}
	require.NoError(t, s.Enqueue(o.task(m, func(ctx context.Context) error {
		if calls.Add(1) < 2 {
			return errors.New("network down")
		}
		return nil
	})))

	assert.Eventually(t, o.done, time.Second, 5*time.Millisecond)
	assert.True(t, o.succeeded)
	assert.False(t, o.exhausted)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, m.RetryCount)
	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, s.Idle, time.Second, 5*time.Millisecond)
}

func TestScheduler_ExhaustsAfterMaxAttempts(t *testing.T) {
	s := newTestScheduler(t, 3)
	m := models.NewPendingMutation(models.MutationLike, "post-1", "actor-1", nil)

	var calls atomic.Int32
	netErr := errors.New("network down")
	o := &outcome{}
	require.NoError(t, s.Enqueue(o.task(m, func(ctx context.Context) error {
		calls.Add(1)
		return netErr
	})))

	assert.Eventually(t, o.done, time.Second, 5*time.Millisecond)
	assert.True(t, o.exhausted)
	assert.False(t, o.succeeded)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, m.RetryCount)
	assert.ErrorIs(t, o.err, ErrExhausted)
	assert.ErrorIs(t, o.err, netErr)
}

func TestScheduler_NonRetryableStopsImmediately(t *testing.T) {
	s := newTestScheduler(t, 3)
	m := models.NewPendingMutation(models.MutationSave, "post-1", "actor-1", nil)

	permanent := errors.New("validation failed")
	var calls atomic.Int32
	o := &outcome{}
	task := o.task(m, func(ctx context.Context) error {
		calls.Add(1)
		return permanent
	})
	task.Retryable = func(err error) bool { return !errors.Is(err, permanent) }
	require.NoError(t, s.Enqueue(task))

	assert.Eventually(t, o.done, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, o.err, permanent)
	assert.NotErrorIs(t, o.err, ErrExhausted)
}

func TestScheduler_AlreadyExhausted(t *testing.T) {
	s := newTestScheduler(t, 3)
	m := models.NewPendingMutation(models.MutationLike, "post-1", "actor-1", nil)
	m.RetryCount = 3

	o := &outcome{}
	require.NoError(t, s.Enqueue(o.task(m, func(ctx context.Context) error {
		t.Error("replay must not run")
		return nil
	})))

	assert.True(t, o.exhausted)
	assert.ErrorIs(t, o.err, ErrExhausted)
}

func TestScheduler_SerializedOrder(t *testing.T) {
	s := newTestScheduler(t, 3)

	var (
		mu    sync.Mutex
		order []string
	)
	var inFlight atomic.Int32
	outcomes := make([]*outcome, 0, 3)
	for _, id := range []string{"a", "b", "c"} {
		m := models.NewPendingMutation(models.MutationLike, id, "actor-1", nil)
		o := &outcome{}
		outcomes = append(outcomes, o)
		require.NoError(t, s.Enqueue(o.task(m, func(ctx context.Context) error {
			assert.Equal(t, int32(1), inFlight.Add(1), "replays must not overlap")
			defer inFlight.Add(-1)

			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		})))
	}

	assert.Eventually(t, func() bool {
		for _, o := range outcomes {
			if !o.done() {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestScheduler_FailedEntryMovesToTail(t *testing.T) {
	s := newTestScheduler(t, 3)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(id string) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	}

	var firstCalls atomic.Int32
	first := &outcome{}
	second := &outcome{}
	require.NoError(t, s.Enqueue(first.task(
		models.NewPendingMutation(models.MutationLike, "a", "actor-1", nil),
		func(ctx context.Context) error {
			record("a")
			if firstCalls.Add(1) == 1 {
				return errors.New("timeout")
			}
			return nil
		})))
	require.NoError(t, s.Enqueue(second.task(
		models.NewPendingMutation(models.MutationLike, "b", "actor-1", nil),
		func(ctx context.Context) error {
			record("b")
			return nil
		})))

	assert.Eventually(t, func() bool { return first.done() && second.done() }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "a"}, order)
}

func TestScheduler_CloseRollsBackPending(t *testing.T) {
	s := NewScheduler(Config{BaseDelay: time.Hour, MaxAttempts: 3}, testLogger())

	o := &outcome{}
	m := models.NewPendingMutation(models.MutationLike, "post-1", "actor-1", nil)
	require.NoError(t, s.Enqueue(o.task(m, func(ctx context.Context) error {
		t.Error("replay must not run")
		return nil
	})))
	assert.Equal(t, 1, s.Len())

	s.Close()

	assert.True(t, o.exhausted)
	assert.ErrorIs(t, o.err, ErrSchedulerClosed)
	assert.Equal(t, 0, s.Len())

	// После закрытия новые записи отклоняются без вызова callback'ов
	late := &outcome{}
	err := s.Enqueue(late.task(models.NewPendingMutation(models.MutationLike, "post-2", "actor-1", nil),
		func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrSchedulerClosed)
	assert.False(t, late.done())

	// Повторный Close безопасен
	s.Close()
}

func TestScheduler_EnqueueInvalidTask(t *testing.T) {
	s := newTestScheduler(t, 3)

	assert.Error(t, s.Enqueue(Task{}))
	assert.Error(t, s.Enqueue(Task{Mutation: &models.PendingMutation{}}))
}

func TestScheduler_Idle(t *testing.T) {
	s := NewScheduler(Config{BaseDelay: time.Hour, MaxDelay: time.Hour}, testLogger())
	assert.True(t, s.Idle())

	m := models.NewPendingMutation(models.MutationSave, "post-1", "actor-1", nil)
	o := &outcome{}
	require.NoError(t, s.Enqueue(o.task(m, func(ctx context.Context) error { return nil })))
	assert.False(t, s.Idle())

	s.Close()
	assert.True(t, o.exhausted)
	assert.True(t, s.Idle())
}
