package engagement

import (
	"context"
	"fmt"

	"github.com/iudanet/forkful/internal/client/cache"
	"github.com/iudanet/forkful/internal/client/metrics"
	"github.com/iudanet/forkful/internal/client/retry"
	"github.com/iudanet/forkful/internal/models"
)

// transaction is one optimistic mutation: an optimistic cache write, a remote
// call, then either commit of the server response or rollback. Like, save and
// comment are all expressed as a transaction.
//
// superseded, when set, is checked before every replay: a mutation whose intent
// was replaced by a later one is dropped without calling the server.
//
// commit and revert receive snapshot=true when a realtime snapshot was applied
// to the item after the optimistic write; the snapshot's counters then stay.
type transaction struct {
	mutation   *models.PendingMutation
	apply      func(tx *cache.Tx)
	call       func(ctx context.Context) error
	commit     func(tx *cache.Tx, snapshot bool)
	revert     func(tx *cache.Tx, snapshot bool)
	superseded func() bool
	seq        uint64 // SnapshotSeq в момент оптимистичной записи
	skipped    bool   // повтор отменен более поздней мутацией
}

// run executes t. It returns pending=true when the remote call failed with a
// transient error and t was handed to the retry scheduler; the optimistic
// value then stays in the cache. A non-nil error means t was rolled back.
func (c *Coordinator) run(ctx context.Context, t *transaction) (pending bool, err error) {
	m := t.mutation

	// Оптимистичная запись; watchers уведомляются синхронно
	c.cache.Update(m.ItemID, func(tx *cache.Tx) {
		t.seq = tx.SnapshotSeq()
		t.apply(tx)
	})

	err = t.call(ctx)
	if err == nil {
		c.commit(t)
		return false, nil
	}

	kind := Classify(err)
	if !kind.Retryable() {
		return false, c.rollback(t, err)
	}

	qerr := c.retry.Enqueue(retry.Task{
		Mutation: m,
		Replay: func(ctx context.Context) error {
			if t.superseded != nil && t.superseded() {
				t.skipped = true
				return nil
			}
			return t.call(ctx)
		},
		Retryable: func(err error) bool {
			return Classify(err).Retryable()
		},
		OnSuccess: func() {
			if t.skipped {
				c.drop(t)
				return
			}
			c.commit(t)
		},
		OnExhausted: func(err error) {
			// Намерение уже заменено более поздней мутацией: откатывать нечего
			if t.superseded != nil && t.superseded() {
				c.drop(t)
				return
			}
			_ = c.rollback(t, err)
		},
	})
	if qerr != nil {
		return false, c.rollback(t, fmt.Errorf("failed to queue retry after %v: %w", err, qerr))
	}

	metrics.MutationsTotal.WithLabelValues(string(m.Kind), metrics.ResultQueued).Inc()
	c.logger.Info("Mutation queued for retry",
		"mutation_id", m.ID,
		"kind", m.Kind,
		"item_id", m.ItemID,
		"error", err,
	)
	return true, nil
}

func (c *Coordinator) commit(t *transaction) {
	m := t.mutation
	c.cache.Update(m.ItemID, func(tx *cache.Tx) {
		t.commit(tx, tx.SnapshotSeq() != t.seq)
	})

	metrics.MutationsTotal.WithLabelValues(string(m.Kind), metrics.ResultSuccess).Inc()
	c.logger.Debug("Mutation confirmed",
		"mutation_id", m.ID,
		"kind", m.Kind,
		"item_id", m.ItemID,
		"retry_count", m.RetryCount,
	)
}

// drop finishes a queued mutation replaced by a later one. The cache already
// shows the later intent.
func (c *Coordinator) drop(t *transaction) {
	m := t.mutation
	metrics.MutationsTotal.WithLabelValues(string(m.Kind), metrics.ResultSuperseded).Inc()
	c.logger.Debug("Mutation superseded, replay skipped",
		"mutation_id", m.ID,
		"kind", m.Kind,
		"item_id", m.ItemID,
		"retry_count", m.RetryCount,
	)
}

// rollback restores the pre-optimistic values, reports the failure to the
// item's listeners and returns err.
func (c *Coordinator) rollback(t *transaction, err error) error {
	m := t.mutation
	c.cache.Update(m.ItemID, func(tx *cache.Tx) {
		t.revert(tx, tx.SnapshotSeq() != t.seq)
	})

	kind := Classify(err)
	result := metrics.ResultRejected
	if kind == KindRetryExhausted {
		result = metrics.ResultExhausted
	}
	metrics.MutationsTotal.WithLabelValues(string(m.Kind), result).Inc()
	metrics.Rollbacks.WithLabelValues(string(m.Kind), kind.String()).Inc()

	c.logger.Warn("Mutation rolled back",
		"mutation_id", m.ID,
		"kind", m.Kind,
		"item_id", m.ItemID,
		"reason", kind.String(),
		"retry_count", m.RetryCount,
		"error", err,
	)

	c.notifyFailure(Failure{Mutation: *m, Err: err, Kind: kind})
	return err
}
