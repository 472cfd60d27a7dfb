package service

import (
	"context"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// ReconcileServiceImpl implements ports.ReconcileService.
type ReconcileServiceImpl struct {
	txRepo    ports.TransactionRepository
	processor ports.PaymentProcessor
	ledger    ports.LedgerService
	after     time.Duration
	batchSize int
	now       func() time.Time
	log       zerolog.Logger
}

// NewReconcileService creates a reconciler for transactions left pending
// longer than after.
func NewReconcileService(
	txRepo ports.TransactionRepository,
	processor ports.PaymentProcessor,
	ledger ports.LedgerService,
	after time.Duration,
	batchSize int,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		txRepo:    txRepo,
		processor: processor,
		ledger:    ledger,
		after:     after,
		batchSize: batchSize,
		now:       time.Now,
		log:       log,
	}
}

// ReconcilePending asks the processor about stale pending invoices and
// applies whatever final state it reports. One bad invoice never stops the
// sweep.
func (s *ReconcileServiceImpl) ReconcilePending(ctx context.Context) (*ports.ReconcileReport, error) {
	cutoff := s.now().UTC().Add(-s.after)
	txns, err := s.txRepo.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	report := &ports.ReconcileReport{Checked: len(txns)}
	for _, txn := range txns {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		logger := s.log.With().Str("invoice_id", txn.InvoiceID).Logger()

		inv, err := s.processor.GetInvoice(ctx, txn.InvoiceID)
		if err != nil {
			logger.Warn().Err(err).Msg("reconcile: fetch invoice failed")
			report.Failed++
			continue
		}

		var applied bool
		switch inv.LedgerStatus() {
		case domain.TransactionStatusCompleted:
			applied, err = s.ledger.MarkCompleted(ctx, txn.InvoiceID)
		case domain.TransactionStatusRefunded:
			applied, err = s.ledger.MarkRefunded(ctx, txn.InvoiceID)
		case domain.TransactionStatusFailed:
			applied, err = s.ledger.MarkFailed(ctx, txn.InvoiceID)
		default:
			continue
		}
		if err != nil {
			logger.Error().Err(err).Str("processor_status", inv.Status).Msg("reconcile: ledger update failed")
			report.Failed++
			continue
		}
		if applied {
			logger.Info().Str("processor_status", inv.Status).Msg("reconcile: invoice settled")
			report.Applied++
		}
	}

	s.log.Info().
		Int("checked", report.Checked).
		Int("applied", report.Applied).
		Int("failed", report.Failed).
		Msg("reconcile sweep finished")

	return report, nil
}
