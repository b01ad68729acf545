// Package retry implements the delayed re-invocation queue for mutations that
// failed with a transient error. Entries are replayed one at a time with a
// linear backoff and a small attempt ceiling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/iudanet/forkful/internal/client/metrics"
	"github.com/iudanet/forkful/internal/models"
)

var (
	// ErrExhausted оборачивает последнюю ошибку записи, исчерпавшей попытки
	ErrExhausted = errors.New("retry attempts exhausted")

	// ErrSchedulerClosed возвращается для записей, не выполненных до Close
	ErrSchedulerClosed = errors.New("retry scheduler closed")
)

const (
	DefaultBaseDelay   = time.Second
	DefaultMaxAttempts = 3
	DefaultMaxDelay    = 30 * time.Second
)

// Config параметры планировщика
type Config struct {
	BaseDelay   time.Duration // BaseDelay задержка перед первым повтором
	MaxDelay    time.Duration // MaxDelay верхняя граница одной задержки
	MaxAttempts int           // MaxAttempts максимальное число повторов одной записи
}

func (c Config) withDefaults() Config {
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Task is one failed mutation handed over for replay. Replay must be
// idempotent. Exactly one of OnSuccess or OnExhausted is called.
type Task struct {
	Mutation *models.PendingMutation

	// Replay повторяет удаленный вызов
	Replay func(ctx context.Context) error

	// Retryable решает, стоит ли повторять после ошибки. nil = всегда.
	Retryable func(err error) bool

	// OnSuccess вызывается после успешного повтора
	OnSuccess func()

	// OnExhausted вызывается при исчерпании попыток, неповторяемой ошибке
	// или закрытии планировщика; запись должна быть откачена
	OnExhausted func(err error)
}

type entry struct {
	task    Task
	backoff goretry.Backoff
	delay   time.Duration
}

// Scheduler is a serialized replay queue. A worker goroutine is started when
// the queue becomes non-empty and exits once it has drained.
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	queue   []*entry
	cfg     Config
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	closed  bool
}

// NewScheduler создает планировщик повторов
func NewScheduler(cfg Config, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// linearBackoff returns base × n for the n-th replay, counted from the
// mutation's RetryCount so the delay follows the mutation, not the backoff value.
func linearBackoff(base time.Duration, m *models.PendingMutation) goretry.Backoff {
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		return base * time.Duration(m.RetryCount+1), false
	})
}

// Enqueue adds a failed mutation to the tail of the queue.
// Returns ErrSchedulerClosed after Close; no callback is invoked then.
func (s *Scheduler) Enqueue(task Task) error {
	if task.Mutation == nil || task.Replay == nil {
		return fmt.Errorf("retry task requires a mutation and a replay function")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.mu.Unlock()

	remaining := s.cfg.MaxAttempts - task.Mutation.RetryCount
	if remaining <= 0 {
		s.exhaust(&entry{task: task}, fmt.Errorf("%w: mutation %s already at %d attempts",
			ErrExhausted, task.Mutation.ID, task.Mutation.RetryCount))
		return nil
	}

	backoff := goretry.WithMaxRetries(
		uint64(remaining),
		goretry.WithCappedDuration(s.cfg.MaxDelay, linearBackoff(s.cfg.BaseDelay, task.Mutation)),
	)
	delay, _ := backoff.Next()
	e := &entry{task: task, backoff: backoff, delay: delay}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.queue = append(s.queue, e)
	if !s.running {
		s.running = true
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()

	s.logger.Debug("Mutation queued for retry",
		"mutation_id", task.Mutation.ID,
		"kind", task.Mutation.Kind,
		"item_id", task.Mutation.ItemID,
		"delay", delay,
	)
	return nil
}

// Len returns the number of entries waiting for replay.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

// Idle reports whether nothing is queued and no replay or callback is running.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.running && len(s.queue) == 0
}

// Close stops the worker and rolls back every entry still queued with
// ErrSchedulerClosed. Safe to call more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, e := range pending {
		s.exhaust(e, ErrSchedulerClosed)
	}
}

func (s *Scheduler) drain() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.closed {
			s.running = false
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.mu.Unlock()

		if !s.wait(e.delay) {
			// Close: запись остается в очереди и будет откачена в Close
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.attempt(e)
	}
}

func (s *Scheduler) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) attempt(e *entry) {
	m := e.task.Mutation
	metrics.MutationRetries.WithLabelValues(string(m.Kind)).Inc()

	err := e.task.Replay(s.ctx)
	m.RetryCount++

	if err == nil {
		s.logger.Info("Mutation retry succeeded",
			"mutation_id", m.ID,
			"kind", m.Kind,
			"item_id", m.ItemID,
			"retry_count", m.RetryCount,
		)
		if e.task.OnSuccess != nil {
			e.task.OnSuccess()
		}
		return
	}

	if s.ctx.Err() != nil {
		s.exhaust(e, ErrSchedulerClosed)
		return
	}

	if e.task.Retryable != nil && !e.task.Retryable(err) {
		s.logger.Warn("Mutation retry failed permanently",
			"mutation_id", m.ID,
			"kind", m.Kind,
			"item_id", m.ItemID,
			"error", err,
		)
		s.exhaust(e, err)
		return
	}

	delay, stop := e.backoff.Next()
	if stop {
		s.exhaust(e, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, m.RetryCount, err))
		return
	}
	e.delay = delay

	s.logger.Debug("Mutation retry failed, requeued",
		"mutation_id", m.ID,
		"kind", m.Kind,
		"retry_count", m.RetryCount,
		"delay", delay,
		"error", err,
	)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.exhaust(e, ErrSchedulerClosed)
		return
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()
}

func (s *Scheduler) exhaust(e *entry, err error) {
	m := e.task.Mutation
	s.logger.Warn("Mutation dropped from retry queue",
		"mutation_id", m.ID,
		"kind", m.Kind,
		"item_id", m.ItemID,
		"retry_count", m.RetryCount,
		"error", err,
	)
	if e.task.OnExhausted != nil {
		e.task.OnExhausted(err)
	}
}
