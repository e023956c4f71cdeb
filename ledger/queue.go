/*
queue.go - Recompute queue capability

PURPOSE:
  The posting engine must not know how recompute jobs travel; it only needs
  an Enqueue it can fire and forget. The queue is an injected capability so
  posting correctness tests run against Nop and the worker consumes a real
  channel-backed queue. Delivery is at-least-once and consumers are
  idempotent, so dropped or duplicated jobs cost freshness, never
  correctness.
*/
package ledger

import (
	"context"
	"errors"
	"time"
)

// RecomputeJob asks the worker to refresh one report for one tenant.
type RecomputeJob struct {
	TenantID   TenantID
	Report     ReportType
	Period     Period
	EnqueuedAt time.Time
}

// RecomputeQueue is the capability the posting engine depends on.
type RecomputeQueue interface {
	// Enqueue submits a job. Implementations must not block the caller;
	// posting success never depends on this succeeding.
	Enqueue(ctx context.Context, job RecomputeJob) error
}

// ErrQueueFull is returned when a bounded queue cannot accept a job.
// Producers treat it as a dropped trigger; the scheduled refresh self-heals.
var ErrQueueFull = errors.New("recompute queue full")

// =============================================================================
// NOP QUEUE - Test double / disabled async refresh
// =============================================================================

type NopQueue struct{}

func (NopQueue) Enqueue(context.Context, RecomputeJob) error { return nil }

// =============================================================================
// CHANNEL QUEUE - In-process buffered queue consumed by the worker
// =============================================================================

type ChannelQueue struct {
	ch chan RecomputeJob
}

func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 64
	}
	return &ChannelQueue{ch: make(chan RecomputeJob, size)}
}

// Enqueue is non-blocking: a full buffer drops the job rather than stalling
// the posting path.
func (q *ChannelQueue) Enqueue(_ context.Context, job RecomputeJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	select {
	case q.ch <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Jobs exposes the consumer side for the worker.
func (q *ChannelQueue) Jobs() <-chan RecomputeJob { return q.ch }

// Close stops the queue. Enqueue must not be called after Close.
func (q *ChannelQueue) Close() { close(q.ch) }
