package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL = 24 * time.Hour

	// The processor fingerprints the buyer; checkouts are opened on the
	// customer's behalf from a fixed public address.
	checkoutIP       = "8.8.8.8"
	defaultUserAgent = "Mozilla/5.0"

	defaultSellerPerPage = 10
	defaultAdminPerPage  = 20
	maxPerPage           = 100
)

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	processor  ports.PaymentProcessor
	feeSvc     ports.FeeService
	ledger     ports.LedgerService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	processor ports.PaymentProcessor,
	feeSvc ports.FeeService,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		processor:  processor,
		feeSvc:     feeSvc,
		ledger:     ledger,
		transactor: transactor,
		log:        log,
	}
}

// CreatePayment opens a processor checkout for the seller and records the
// pending transaction. A repeated Idempotency-Key returns the first session.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req ports.CreatePaymentRequest) (*ports.CheckoutSession, error) {
	amount := domain.RoundCents(req.Amount)
	if amount.LessThan(domain.MinPaymentAmount) || amount.GreaterThan(domain.MaxPaymentAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	currency := req.Currency
	if currency != domain.SupportedCurrency {
		return nil, apperror.Validation("Only USD supported")
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildCheckoutIdempotencyKey(req.Seller.ID, req.IdempotencyKey)

		// Layer 1: Redis idempotency check
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return unmarshalCheckoutSession(cached)
		}

		// Layer 2: DB idempotency check
		idempLog, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if idempLog != nil {
			return unmarshalCheckoutSession(idempLog.ResponseJSON)
		}
	}

	rate := s.feeSvc.ResolveRate(ctx, domain.FeeRoleCustomer, req.Seller)
	surcharge := domain.RoundCents(domain.Surcharge(amount, rate))
	total := amount.Add(surcharge)
	quantity := domain.CheckoutQuantity(total)
	if quantity < domain.MinCheckoutQuantity {
		return nil, apperror.ErrAmountTooLowAfterFee()
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	checkout, err := s.processor.CreateCheckout(ctx, ports.CheckoutRequest{
		Quantity:   quantity,
		Email:      req.CustomerEmail,
		CouponCode: req.Seller.CouponCode,
		IP:         checkoutIP,
		UserAgent:  userAgent,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		s.log.Error().Err(err).Str("seller_id", req.Seller.ID.String()).Msg("processor checkout failed")
		return nil, checkoutError(err)
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		SellerID:    req.Seller.ID,
		InvoiceID:   checkout.InvoiceID,
		Amount:      amount,
		CustomerFee: surcharge,
		NetToSeller: amount,
		Status:      domain.TransactionStatusPending,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	session := &ports.CheckoutSession{
		TransactionID: txn.ID,
		InvoiceID:     checkout.InvoiceID,
		CheckoutURL:   checkout.URL,
		Amount:        amount,
		CustomerFee:   surcharge,
		Total:         total,
		Currency:      currency,
	}
	respJSON, err := json.Marshal(session)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create transaction: %w", err))
	}

	if idempKey != "" {
		entry := &domain.IdempotencyLog{
			Key:           idempKey,
			TransactionID: txn.ID,
			ResponseJSON:  respJSON,
			CreatedAt:     now,
		}
		if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
			if errors.Is(err, ports.ErrDuplicateKey) {
				// A concurrent retry won; its invoice is the one the client keeps.
				s.log.Warn().Str("key", idempKey).Str("invoice_id", checkout.InvoiceID).
					Msg("idempotency race lost, discarding duplicate checkout")
				return s.replayStored(ctx, idempKey)
			}
			return nil, apperror.ErrDatabaseError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("seller_id", req.Seller.ID.String()).
		Str("invoice_id", txn.InvoiceID).
		Str("amount", amount.StringFixed(2)).
		Str("customer_fee", surcharge.StringFixed(2)).
		Msg("checkout created")

	return session, nil
}

// ListInvoices returns one page of a seller's transactions.
func (s *PaymentServiceImpl) ListInvoices(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	normalizePage(&params.Page, &params.PerPage, defaultSellerPerPage)
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return txns, total, nil
}

// ListAll returns one page of transactions across sellers.
func (s *PaymentServiceImpl) ListAll(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	normalizePage(&params.Page, &params.PerPage, defaultAdminPerPage)
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return txns, total, nil
}

// GetInvoice returns a seller's transaction plus whatever the processor
// reports about it. Processor failures only drop the extra details.
func (s *PaymentServiceImpl) GetInvoice(ctx context.Context, sellerID uuid.UUID, invoiceID string) (*ports.InvoiceDetail, error) {
	txn, err := s.txRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if txn == nil || txn.SellerID != sellerID {
		return nil, apperror.ErrNotFound("Transaction")
	}

	detail := &ports.InvoiceDetail{Transaction: txn}
	inv, err := s.processor.GetInvoice(ctx, invoiceID)
	if err != nil {
		s.log.Warn().Err(err).Str("invoice_id", invoiceID).Msg("failed to fetch processor invoice details")
	} else {
		detail.Processor = inv
	}
	return detail, nil
}

// Refund takes the invoice's net amount out of the seller's balance, then
// asks the processor to refund the buyer. A processor failure puts the
// amount back.
func (s *PaymentServiceImpl) Refund(ctx context.Context, seller *domain.Seller, invoiceID string, reason string) (*domain.Transaction, error) {
	txn, err := s.ledger.ReserveRefund(ctx, seller.ID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := s.processor.RefundInvoice(ctx, invoiceID, reason); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoiceID).Msg("processor refund failed")
		if relErr := s.ledger.ReleaseRefund(context.WithoutCancel(ctx), txn); relErr != nil {
			s.log.Error().Err(relErr).
				Str("invoice_id", invoiceID).
				Str("seller_id", seller.ID.String()).
				Str("amount", txn.NetToSeller.StringFixed(2)).
				Msg("refund reservation not released, balance needs manual correction")
		}
		return nil, gatewayError(err)
	}

	s.log.Info().
		Str("invoice_id", invoiceID).
		Str("seller_id", seller.ID.String()).
		Str("amount", txn.NetToSeller.StringFixed(2)).
		Msg("refund processed")

	return txn, nil
}

func (s *PaymentServiceImpl) replayStored(ctx context.Context, key string) (*ports.CheckoutSession, error) {
	stored, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("db idempotency check: %w", err))
	}
	if stored == nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency log %s vanished", key))
	}
	return unmarshalCheckoutSession(stored.ResponseJSON)
}

func unmarshalCheckoutSession(data []byte) (*ports.CheckoutSession, error) {
	var session ports.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached checkout: %w", err))
	}
	return &session, nil
}

// checkoutError keeps the processor's status for input it refuses (for
// example a malformed customer email); anything else is a gateway failure.
func checkoutError(err error) error {
	var gwErr *ports.GatewayError
	if errors.As(err, &gwErr) && gwErr.Status >= http.StatusBadRequest && gwErr.Status < http.StatusInternalServerError {
		return apperror.ErrGatewayRejected(gwErr.Status, gwErr.Message)
	}
	return gatewayError(err)
}

func normalizePage(page, perPage *int, defaultPerPage int) {
	if *page < 1 {
		*page = 1
	}
	if *perPage < 1 {
		*perPage = defaultPerPage
	}
	if *perPage > maxPerPage {
		*perPage = maxPerPage
	}
}
