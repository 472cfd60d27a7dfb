package service

import (
	"context"
	"fmt"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// webhookDedupTTL outlives the processor's redelivery window.
const webhookDedupTTL = 72 * time.Hour

// Acknowledgement messages. Every outcome is acknowledged so the processor
// stops redelivering.
const (
	AckProcessed        = ""
	AckInvalidSignature = "Invalid signature"
	AckInvalidPayload   = "Invalid payload"
	AckNoInvoiceID      = "No invoice ID"
	AckIgnoredEvent     = "Event ignored"
	AckDuplicate        = "Duplicate event"
	AckUnknownCoupon    = "Unknown coupon"
	AckTxnNotFound      = "Transaction not found"
)

// webhookService implements ports.WebhookService.
type webhookService struct {
	sellerRepo ports.SellerRepository
	txRepo     ports.TransactionRepository
	ledger     ports.LedgerService
	decoder    ports.WebhookDecoder
	dedup      ports.EventDedupStore
	sigSvc     ports.SignatureService
	secret     string
	log        zerolog.Logger
}

// NewWebhookService creates a new webhook ingestor. An empty secret turns
// signature checking off.
func NewWebhookService(
	sellerRepo ports.SellerRepository,
	txRepo ports.TransactionRepository,
	ledger ports.LedgerService,
	decoder ports.WebhookDecoder,
	dedup ports.EventDedupStore,
	sigSvc ports.SignatureService,
	secret string,
	log zerolog.Logger,
) ports.WebhookService {
	return &webhookService{
		sellerRepo: sellerRepo,
		txRepo:     txRepo,
		ledger:     ledger,
		decoder:    decoder,
		dedup:      dedup,
		sigSvc:     sigSvc,
		secret:     secret,
		log:        log,
	}
}

// Ingest applies one processor notification to the ledger and returns the
// acknowledgement message. It never fails the delivery.
func (s *webhookService) Ingest(ctx context.Context, body []byte, signature string) string {
	if s.secret != "" && !s.sigSvc.Verify(s.secret, string(body), signature) {
		s.log.Warn().Msg("webhook: signature mismatch, ignoring delivery")
		return AckInvalidSignature
	}

	notif, err := s.decoder.DecodeWebhook(body)
	if err != nil {
		s.log.Warn().Err(err).Msg("webhook: undecodable payload")
		return AckInvalidPayload
	}

	inv := notif.Invoice
	logger := s.log.With().Str("event", string(notif.Event)).Str("invoice_id", inv.ID).Logger()
	logger.Info().Msg("webhook: received")

	if inv.ID == "" {
		logger.Warn().Msg("webhook: missing invoice id")
		return AckNoInvoiceID
	}
	if notif.Event.TargetStatus() == "" {
		logger.Debug().Msg("webhook: event not handled")
		return AckIgnoredEvent
	}

	key := domain.BuildWebhookEventKey(notif.Event, inv.ID)
	first, err := s.dedup.MarkSeen(ctx, key, webhookDedupTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("webhook: dedup store unavailable, relying on ledger guards")
		first = true
	}
	if !first {
		logger.Info().Msg("webhook: duplicate delivery skipped")
		return AckDuplicate
	}

	ack, err := s.process(ctx, notif, logger)
	if err != nil {
		logger.Error().Err(err).Msg("webhook: processing failed")
		ack = AckProcessed
	}
	// A delivery that changed nothing may arrive again once the seller or
	// the checkout row exists, so it must not be remembered.
	if err != nil || ack == AckUnknownCoupon || ack == AckTxnNotFound {
		if ferr := s.dedup.Forget(ctx, key); ferr != nil {
			logger.Warn().Err(ferr).Msg("webhook: failed to release dedup key")
		}
	}
	return ack
}

func (s *webhookService) process(ctx context.Context, notif *domain.WebhookNotification, logger zerolog.Logger) (string, error) {
	inv := notif.Invoice

	seller, err := s.sellerRepo.GetByCouponCode(ctx, inv.CouponCode)
	if err != nil {
		return "", fmt.Errorf("lookup seller by coupon: %w", err)
	}
	if seller == nil {
		logger.Warn().Str("coupon_code", inv.CouponCode).Msg("webhook: unknown coupon")
		return AckUnknownCoupon, nil
	}

	txn, err := s.txRepo.GetByInvoiceID(ctx, inv.ID)
	if err != nil {
		return "", fmt.Errorf("lookup transaction: %w", err)
	}
	if txn == nil {
		if !notif.Event.IsCompletion() {
			logger.Warn().Msg("webhook: transaction not found")
			return AckTxnNotFound, nil
		}
		synced, err := s.ledger.SyncCompleted(ctx, seller.ID, inv.ID, inv.SettledAmount())
		if err != nil {
			return "", fmt.Errorf("sync completed invoice: %w", err)
		}
		if !synced {
			// A checkout insert raced us; settle the row that now exists.
			if _, err := s.ledger.MarkCompleted(ctx, inv.ID); err != nil {
				return "", fmt.Errorf("mark completed: %w", err)
			}
		}
		logger.Info().Str("seller_id", seller.ID.String()).Msg("webhook: missing transaction auto-synced")
		return AckProcessed, nil
	}

	if txn.SellerID != seller.ID {
		logger.Warn().
			Str("coupon_seller_id", seller.ID.String()).
			Str("txn_seller_id", txn.SellerID.String()).
			Msg("webhook: coupon does not belong to transaction owner")
		return AckProcessed, nil
	}

	var applied bool
	switch notif.Event.TargetStatus() {
	case domain.TransactionStatusCompleted:
		applied, err = s.ledger.MarkCompleted(ctx, inv.ID)
	case domain.TransactionStatusRefunded:
		applied, err = s.ledger.MarkRefunded(ctx, inv.ID)
	case domain.TransactionStatusFailed:
		applied, err = s.ledger.MarkFailed(ctx, inv.ID)
	}
	if err != nil {
		return "", fmt.Errorf("apply %s: %w", notif.Event, err)
	}

	logger.Info().
		Str("seller_id", seller.ID.String()).
		Bool("applied", applied).
		Msg("webhook: processed")
	return AckProcessed, nil
}
