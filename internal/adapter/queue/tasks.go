// Package queue runs background ledger jobs on asynq.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeReconcilePending settles transactions the webhook never resolved.
	TypeReconcilePending = "ledger:reconcile_pending"

	// QueueLedger holds every ledger maintenance task.
	QueueLedger = "ledger"

	reconcileTimeout = 10 * time.Minute
)

// NewReconcilePendingTask builds the reconciliation task. Unique keeps a
// manual trigger from stacking on top of the scheduled run.
func NewReconcilePendingTask() *asynq.Task {
	return asynq.NewTask(TypeReconcilePending, nil,
		asynq.Queue(QueueLedger),
		asynq.MaxRetry(1),
		asynq.Timeout(reconcileTimeout),
		asynq.Unique(reconcileTimeout),
	)
}

// Enqueuer pushes ledger tasks for the worker.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an Enqueuer over an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueReconcile asks the worker for an immediate reconciliation sweep.
func (e *Enqueuer) EnqueueReconcile(ctx context.Context) (string, error) {
	info, err := e.client.EnqueueContext(ctx, NewReconcilePendingTask())
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeReconcilePending, err)
	}
	return info.ID, nil
}
