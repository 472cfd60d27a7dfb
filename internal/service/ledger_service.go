package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const autoSyncDescription = "Auto-synced from webhook"

var (
	refundableSources = []domain.TransactionStatus{domain.TransactionStatusCompleted}
	reservedSources   = []domain.TransactionStatus{domain.TransactionStatusRefunded}
)

// LedgerServiceImpl implements ports.LedgerService. Every status change and
// its balance delta commit together, with the transaction row locked and the
// status moved by compare-and-swap, so a repeated event is a no-op.
type LedgerServiceImpl struct {
	sellerRepo ports.SellerRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	sellerRepo ports.SellerRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		sellerRepo: sellerRepo,
		txRepo:     txRepo,
		transactor: transactor,
		log:        log,
	}
}

// MarkCompleted moves a pending transaction to completed and credits the
// seller its net amount.
func (s *LedgerServiceImpl) MarkCompleted(ctx context.Context, invoiceID string) (bool, error) {
	return s.apply(ctx, invoiceID, domain.TransactionStatusCompleted)
}

// MarkRefunded moves a transaction to refunded. A completed one is debited
// its net amount, clamped to the available balance.
func (s *LedgerServiceImpl) MarkRefunded(ctx context.Context, invoiceID string) (bool, error) {
	return s.apply(ctx, invoiceID, domain.TransactionStatusRefunded)
}

// MarkFailed moves a pending transaction to failed.
func (s *LedgerServiceImpl) MarkFailed(ctx context.Context, invoiceID string) (bool, error) {
	return s.apply(ctx, invoiceID, domain.TransactionStatusFailed)
}

func (s *LedgerServiceImpl) apply(ctx context.Context, invoiceID string, target domain.TransactionStatus) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByInvoiceIDForUpdate(ctx, dbTx, invoiceID)
	if err != nil {
		return false, apperror.ErrDatabaseError(err)
	}
	if txn == nil {
		return false, apperror.ErrNotFound("Transaction")
	}

	sources := domain.TransitionSources(target)
	if !slices.Contains(sources, txn.Status) {
		s.log.Debug().
			Str("invoice_id", invoiceID).
			Str("status", string(txn.Status)).
			Str("target", string(target)).
			Msg("transition skipped")
		return false, nil
	}

	ok, err := s.txRepo.TransitionStatus(ctx, dbTx, invoiceID, sources, target)
	if err != nil {
		return false, apperror.ErrDatabaseError(err)
	}
	if !ok {
		return false, nil
	}

	switch {
	case target == domain.TransactionStatusCompleted:
		if err := s.sellerRepo.IncrementBalance(ctx, dbTx, txn.SellerID, txn.NetToSeller); err != nil {
			return false, apperror.ErrDatabaseError(err)
		}
	case target == domain.TransactionStatusRefunded && txn.Status == domain.TransactionStatusCompleted:
		if err := s.debitRefund(ctx, dbTx, txn); err != nil {
			return false, err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("invoice_id", invoiceID).
		Str("seller_id", txn.SellerID.String()).
		Str("from", string(txn.Status)).
		Str("to", string(target)).
		Str("net_to_seller", txn.NetToSeller.String()).
		Msg("transaction transitioned")
	return true, nil
}

// debitRefund takes a refunded sale back out of the seller's balance. The
// seller may already have withdrawn it, so the debit stops at zero.
func (s *LedgerServiceImpl) debitRefund(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction) error {
	seller, err := s.sellerRepo.GetByIDForUpdate(ctx, dbTx, txn.SellerID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if seller == nil {
		return apperror.ErrNotFound("Seller")
	}

	debit := decimal.Min(txn.NetToSeller, seller.Balance)
	if debit.LessThan(txn.NetToSeller) {
		s.log.Warn().
			Str("invoice_id", txn.InvoiceID).
			Str("seller_id", seller.ID.String()).
			Str("net_to_seller", txn.NetToSeller.String()).
			Str("balance", seller.Balance.String()).
			Msg("refund exceeds balance, debit clamped")
	}
	if !debit.IsPositive() {
		return nil
	}

	ok, err := s.sellerRepo.DecrementBalance(ctx, dbTx, seller.ID, debit)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if !ok {
		return apperror.ErrDatabaseError(errors.New("balance changed under row lock"))
	}
	return nil
}

// ReserveRefund debits the seller for a refund it asked for and moves the
// invoice to refunded, both under the transaction row lock. Unlike a refund
// reported by the processor, the debit is never clamped: a balance that no
// longer covers the net amount rejects the refund.
func (s *LedgerServiceImpl) ReserveRefund(ctx context.Context, sellerID uuid.UUID, invoiceID string) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByInvoiceIDForUpdate(ctx, dbTx, invoiceID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if txn.SellerID != sellerID {
		return nil, apperror.ErrForbidden()
	}
	if !txn.IsRefundable() {
		return nil, apperror.ErrNotRefundable()
	}

	if txn.NetToSeller.IsPositive() {
		ok, err := s.sellerRepo.DecrementBalance(ctx, dbTx, sellerID, txn.NetToSeller)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if !ok {
			return nil, apperror.ErrRefundExceedsBalance()
		}
	}

	ok, err := s.txRepo.TransitionStatus(ctx, dbTx, invoiceID, refundableSources, domain.TransactionStatusRefunded)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if !ok {
		return nil, apperror.ErrNotRefundable()
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("invoice_id", invoiceID).
		Str("seller_id", sellerID.String()).
		Str("net_to_seller", txn.NetToSeller.String()).
		Msg("refund reserved")

	reserved := *txn
	reserved.Status = domain.TransactionStatusRefunded
	return &reserved, nil
}

// ReleaseRefund puts a reserved refund back: the invoice returns to
// completed and the seller is credited the net amount again.
func (s *LedgerServiceImpl) ReleaseRefund(ctx context.Context, txn *domain.Transaction) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	ok, err := s.txRepo.TransitionStatus(ctx, dbTx, txn.InvoiceID, reservedSources, domain.TransactionStatusCompleted)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if !ok {
		return apperror.ErrDatabaseError(fmt.Errorf("invoice %s is no longer refunded", txn.InvoiceID))
	}
	if txn.NetToSeller.IsPositive() {
		if err := s.sellerRepo.IncrementBalance(ctx, dbTx, txn.SellerID, txn.NetToSeller); err != nil {
			return apperror.ErrDatabaseError(err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("invoice_id", txn.InvoiceID).
		Str("seller_id", txn.SellerID.String()).
		Msg("refund reservation released")
	return nil
}

// SyncCompleted records and completes an invoice the ledger never saw, for a
// completion notification that arrives without a prior checkout. The fee
// taken at checkout is unknown, so the whole amount goes to the seller.
func (s *LedgerServiceImpl) SyncCompleted(ctx context.Context, sellerID uuid.UUID, invoiceID string, amount decimal.Decimal) (bool, error) {
	amount = domain.RoundCents(amount)
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	description := autoSyncDescription
	txn := &domain.Transaction{
		ID:          uuid.New(),
		SellerID:    sellerID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		CustomerFee: decimal.Zero,
		NetToSeller: amount,
		Status:      domain.TransactionStatusPending,
		Description: &description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			// a concurrent delivery inserted it first and owns the credit
			return false, nil
		}
		return false, apperror.ErrDatabaseError(err)
	}

	ok, err := s.txRepo.TransitionStatus(ctx, dbTx, invoiceID, domain.TransitionSources(domain.TransactionStatusCompleted), domain.TransactionStatusCompleted)
	if err != nil {
		return false, apperror.ErrDatabaseError(err)
	}
	if !ok {
		return false, apperror.ErrDatabaseError(errors.New("synced transaction not pending"))
	}
	if err := s.sellerRepo.IncrementBalance(ctx, dbTx, sellerID, amount); err != nil {
		return false, apperror.ErrDatabaseError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("invoice_id", invoiceID).
		Str("seller_id", sellerID.String()).
		Str("amount", amount.String()).
		Msg("missing transaction synced as completed")
	return true, nil
}
