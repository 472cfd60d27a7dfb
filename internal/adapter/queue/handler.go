package queue

import (
	"context"
	"fmt"

	"seller-gateway/internal/core/ports"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// ReconcileHandler runs one reconciliation sweep per task.
type ReconcileHandler struct {
	svc ports.ReconcileService
	log zerolog.Logger
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(svc ports.ReconcileService, log zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{svc: svc, log: log}
}

// ProcessTask implements asynq.Handler.
func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	h.log.Info().Str("task", t.Type()).Msg("starting reconciliation sweep")

	report, err := h.svc.ReconcilePending(ctx)
	if err != nil {
		return fmt.Errorf("reconcile pending: %w", err)
	}

	h.log.Info().
		Str("task", t.Type()).
		Int("checked", report.Checked).
		Int("applied", report.Applied).
		Int("failed", report.Failed).
		Msg("reconciliation sweep completed")
	return nil
}

// NewServeMux routes ledger task types to their handlers.
func NewServeMux(reconcile *ReconcileHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeReconcilePending, reconcile)
	return mux
}
