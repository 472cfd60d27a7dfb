package service

import (
	"context"
	"fmt"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const payoutSheet = "Pending payouts"

var payoutSheetHeaders = []string{
	"Payout ID",
	"Seller ID",
	"Seller Email",
	"Business Name",
	"Crypto",
	"Wallet Address",
	"Amount USD",
	"Seller Fee",
	"Net USD",
	"Requested At",
}

// PayoutServiceImpl implements ports.PayoutService.
type PayoutServiceImpl struct {
	sellerRepo ports.SellerRepository
	payoutRepo ports.PayoutRepository
	feeSvc     ports.FeeService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewPayoutService creates a new PayoutServiceImpl.
func NewPayoutService(
	sellerRepo ports.SellerRepository,
	payoutRepo ports.PayoutRepository,
	feeSvc ports.FeeService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PayoutServiceImpl {
	return &PayoutServiceImpl{
		sellerRepo: sellerRepo,
		payoutRepo: payoutRepo,
		feeSvc:     feeSvc,
		transactor: transactor,
		log:        log,
	}
}

// Request debits the seller and records a pending payout in one database
// transaction. The seller row is locked so concurrent requests see each
// other's debits.
func (s *PayoutServiceImpl) Request(ctx context.Context, seller *domain.Seller, req ports.PayoutRequest) (*domain.Payout, error) {
	if !req.Crypto.Valid() {
		return nil, apperror.Validation("Unsupported crypto")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.sellerRepo.GetByIDForUpdate(ctx, dbTx, seller.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock seller: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrNotFound("Seller")
	}

	amount := locked.Balance
	if req.Amount != nil {
		amount = domain.RoundCents(*req.Amount)
	}
	if amount.GreaterThan(locked.Balance) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if amount.LessThan(domain.MinPayoutUSD) {
		return nil, apperror.ErrPayoutBelowMinimum()
	}
	wallet := locked.WalletFor(req.Crypto)
	if wallet == "" {
		return nil, apperror.ErrWalletNotConfigured(string(req.Crypto))
	}

	rate := s.feeSvc.ResolveRate(ctx, domain.FeeRoleSeller, locked)
	fee := domain.RoundCents(domain.Deduction(amount, rate))

	payout := &domain.Payout{
		ID:            uuid.New(),
		SellerID:      locked.ID,
		AmountUSD:     amount,
		SellerFee:     fee,
		NetUSD:        amount.Sub(fee),
		Crypto:        req.Crypto,
		WalletAddress: wallet,
		Status:        domain.PayoutStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	ok, err := s.sellerRepo.DecrementBalance(ctx, dbTx, locked.ID, amount)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("debit balance: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInsufficientBalance()
	}

	if err := s.payoutRepo.Create(ctx, dbTx, payout); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create payout: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("payout_id", payout.ID.String()).
		Str("seller_id", locked.ID.String()).
		Str("crypto", string(payout.Crypto)).
		Str("amount", amount.StringFixed(2)).
		Str("net", payout.NetUSD.StringFixed(2)).
		Msg("payout requested")

	return payout, nil
}

// ListForSeller returns one page of the seller's payouts.
func (s *PayoutServiceImpl) ListForSeller(ctx context.Context, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
	normalizePage(&params.Page, &params.PerPage, defaultSellerPerPage)
	payouts, total, err := s.payoutRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return payouts, total, nil
}

// ListAll returns payouts across sellers with their owner details.
func (s *PayoutServiceImpl) ListAll(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutWithSeller, error) {
	payouts, err := s.payoutRepo.ListWithSellers(ctx, status)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return payouts, nil
}

// Decide approves or rejects a pending payout. Rejection returns the full
// requested amount to the seller's balance.
func (s *PayoutServiceImpl) Decide(ctx context.Context, payoutID uuid.UUID, status domain.PayoutStatus, note *string) (*domain.Payout, error) {
	if !status.IsDecision() {
		return nil, apperror.Validation("Status must be approved or rejected")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	payout, err := s.payoutRepo.GetByIDForUpdate(ctx, dbTx, payoutID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if payout == nil {
		return nil, apperror.ErrNotFound("Payout")
	}
	if payout.Status != domain.PayoutStatusPending {
		return nil, apperror.ErrPayoutProcessed()
	}

	ok, err := s.payoutRepo.Decide(ctx, dbTx, payoutID, status, note)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if !ok {
		return nil, apperror.ErrPayoutProcessed()
	}

	if status == domain.PayoutStatusRejected {
		if err := s.sellerRepo.IncrementBalance(ctx, dbTx, payout.SellerID, payout.AmountUSD); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("refund payout: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	now := time.Now().UTC()
	payout.Status = status
	payout.AdminNote = note
	payout.ProcessedAt = &now

	s.log.Info().
		Str("payout_id", payoutID.String()).
		Str("seller_id", payout.SellerID.String()).
		Str("status", string(status)).
		Msg("payout decided")

	return payout, nil
}

// ExportPending renders pending payouts as an XLSX fulfilment sheet.
func (s *PayoutServiceImpl) ExportPending(ctx context.Context) ([]byte, error) {
	pending := domain.PayoutStatusPending
	payouts, err := s.payoutRepo.ListWithSellers(ctx, &pending)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	f, err := buildPayoutSheet(payouts)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build payout sheet: %w", err))
	}
	defer f.Close() //nolint:errcheck

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write payout sheet: %w", err))
	}
	return buf.Bytes(), nil
}

func buildPayoutSheet(payouts []domain.PayoutWithSeller) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", payoutSheet); err != nil {
		return nil, err
	}

	for col, header := range payoutSheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(payoutSheet, cell, header); err != nil {
			return nil, err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(payoutSheetHeaders), 1)
		_ = f.SetCellStyle(payoutSheet, "A1", lastHeader, style)
	}

	for i, p := range payouts {
		values := []any{
			p.ID.String(),
			p.SellerID.String(),
			p.SellerEmail,
			p.BusinessName,
			string(p.Crypto),
			p.WalletAddress,
			p.AmountUSD.InexactFloat64(),
			p.SellerFee.InexactFloat64(),
			p.NetUSD.InexactFloat64(),
			p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(payoutSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(payoutSheet, "A", "J", 20)
	return f, nil
}
