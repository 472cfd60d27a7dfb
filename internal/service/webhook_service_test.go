package service

import (
	"context"
	"errors"
	"testing"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

const testWebhookSecret = "whsec_test"

type webhookTestDeps struct {
	svc        ports.WebhookService
	sellerRepo *mocks.MockSellerRepository
	txRepo     *mocks.MockTransactionRepository
	ledger     *mocks.MockLedgerService
	decoder    *mocks.MockWebhookDecoder
	dedup      *mocks.MockEventDedupStore
	ctrl       *gomock.Controller
}

func setupWebhookService(t *testing.T, secret string) *webhookTestDeps {
	ctrl := gomock.NewController(t)
	d := &webhookTestDeps{
		sellerRepo: mocks.NewMockSellerRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		ledger:     mocks.NewMockLedgerService(ctrl),
		decoder:    mocks.NewMockWebhookDecoder(ctrl),
		dedup:      mocks.NewMockEventDedupStore(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewWebhookService(
		d.sellerRepo, d.txRepo, d.ledger, d.decoder, d.dedup,
		NewHMACSignatureService(), secret, newTestLogger(),
	)
	return d
}

func notification(event domain.ProcessorEvent, invoiceID, coupon string) *domain.WebhookNotification {
	return &domain.WebhookNotification{
		Event:   event,
		Invoice: domain.ProcessorInvoice{ID: invoiceID, CouponCode: coupon, PaidUSD: decPtr("42.50")},
	}
}

var webhookBody = []byte(`{"event":"payment.completed"}`)

func TestWebhookService_Ingest_Completion(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()
	seller := approvedSeller("0")
	n := notification(domain.EventPaymentCompleted, "inv_1", seller.CouponCode)

	d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(n, nil)
	d.dedup.EXPECT().MarkSeen(ctx, "payment.completed:inv_1", webhookDedupTTL).Return(true, nil)
	d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
	d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_1").Return(&domain.Transaction{SellerID: seller.ID, InvoiceID: "inv_1"}, nil)
	d.ledger.EXPECT().MarkCompleted(ctx, "inv_1").Return(true, nil)

	assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
}

func TestWebhookService_Ingest_DispatchesByEvent(t *testing.T) {
	tests := []struct {
		event  domain.ProcessorEvent
		expect func(l *mocks.MockLedgerService)
	}{
		{domain.EventInvoiceCompleted, func(l *mocks.MockLedgerService) {
			l.EXPECT().MarkCompleted(gomock.Any(), "inv_1").Return(true, nil)
		}},
		{domain.EventPaymentRefunded, func(l *mocks.MockLedgerService) {
			l.EXPECT().MarkRefunded(gomock.Any(), "inv_1").Return(true, nil)
		}},
		{domain.EventInvoiceRefunded, func(l *mocks.MockLedgerService) {
			l.EXPECT().MarkRefunded(gomock.Any(), "inv_1").Return(false, nil)
		}},
		{domain.EventPaymentFailed, func(l *mocks.MockLedgerService) {
			l.EXPECT().MarkFailed(gomock.Any(), "inv_1").Return(true, nil)
		}},
		{domain.EventInvoiceFailed, func(l *mocks.MockLedgerService) {
			l.EXPECT().MarkFailed(gomock.Any(), "inv_1").Return(true, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			d := setupWebhookService(t, "")
			defer d.ctrl.Finish()
			ctx := context.Background()
			seller := approvedSeller("100")

			d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(tt.event, "inv_1", seller.CouponCode), nil)
			d.dedup.EXPECT().MarkSeen(ctx, string(tt.event)+":inv_1", webhookDedupTTL).Return(true, nil)
			d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
			d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_1").Return(&domain.Transaction{SellerID: seller.ID}, nil)
			tt.expect(d.ledger)

			assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
		})
	}
}

func TestWebhookService_Ingest_Signature(t *testing.T) {
	t.Run("mismatch is acknowledged and ignored", func(t *testing.T) {
		d := setupWebhookService(t, testWebhookSecret)
		defer d.ctrl.Finish()

		assert.Equal(t, AckInvalidSignature, d.svc.Ingest(context.Background(), webhookBody, "deadbeef"))
	})

	t.Run("valid signature is processed", func(t *testing.T) {
		d := setupWebhookService(t, testWebhookSecret)
		defer d.ctrl.Finish()
		sig := NewHMACSignatureService().Sign(testWebhookSecret, string(webhookBody))

		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(&domain.WebhookNotification{Event: domain.EventPaymentCompleted}, nil)

		assert.Equal(t, AckNoInvoiceID, d.svc.Ingest(context.Background(), webhookBody, "sha256="+sig))
	})
}

func TestWebhookService_Ingest_EarlyAcks(t *testing.T) {
	t.Run("undecodable", func(t *testing.T) {
		d := setupWebhookService(t, "")
		defer d.ctrl.Finish()
		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(nil, errors.New("bad json"))

		assert.Equal(t, AckInvalidPayload, d.svc.Ingest(context.Background(), webhookBody, ""))
	})

	t.Run("no invoice id", func(t *testing.T) {
		d := setupWebhookService(t, "")
		defer d.ctrl.Finish()
		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentCompleted, "", "C"), nil)

		assert.Equal(t, AckNoInvoiceID, d.svc.Ingest(context.Background(), webhookBody, ""))
	})

	t.Run("unhandled event", func(t *testing.T) {
		d := setupWebhookService(t, "")
		defer d.ctrl.Finish()
		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification("invoice.created", "inv_1", "C"), nil)

		assert.Equal(t, AckIgnoredEvent, d.svc.Ingest(context.Background(), webhookBody, ""))
	})
}

func TestWebhookService_Ingest_DuplicateSkipsLedger(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentCompleted, "inv_1", "C"), nil)
	d.dedup.EXPECT().MarkSeen(ctx, "payment.completed:inv_1", webhookDedupTTL).Return(false, nil)

	assert.Equal(t, AckDuplicate, d.svc.Ingest(ctx, webhookBody, ""))
}

func TestWebhookService_Ingest_DedupStoreDownStillProcesses(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()
	seller := approvedSeller("0")

	d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentFailed, "inv_1", seller.CouponCode), nil)
	d.dedup.EXPECT().MarkSeen(ctx, gomock.Any(), webhookDedupTTL).Return(false, errors.New("redis down"))
	d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
	d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_1").Return(&domain.Transaction{SellerID: seller.ID}, nil)
	d.ledger.EXPECT().MarkFailed(ctx, "inv_1").Return(true, nil)

	assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
}

func TestWebhookService_Ingest_UnknownCoupon(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentCompleted, "inv_1", "NOPE"), nil)
	d.dedup.EXPECT().MarkSeen(ctx, "payment.completed:inv_1", webhookDedupTTL).Return(true, nil)
	d.sellerRepo.EXPECT().GetByCouponCode(ctx, "NOPE").Return(nil, nil)
	d.dedup.EXPECT().Forget(ctx, "payment.completed:inv_1").Return(nil)

	assert.Equal(t, AckUnknownCoupon, d.svc.Ingest(ctx, webhookBody, ""))
}

func TestWebhookService_Ingest_MissingTransaction(t *testing.T) {
	t.Run("completion auto-syncs", func(t *testing.T) {
		d := setupWebhookService(t, "")
		defer d.ctrl.Finish()
		ctx := context.Background()
		seller := approvedSeller("0")

		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentCompleted, "inv_9", seller.CouponCode), nil)
		d.dedup.EXPECT().MarkSeen(ctx, gomock.Any(), webhookDedupTTL).Return(true, nil)
		d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
		d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_9").Return(nil, nil)
		d.ledger.EXPECT().SyncCompleted(ctx, seller.ID, "inv_9", eqDec("42.50")).Return(true, nil)

		assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
	})

	t.Run("completion after concurrent insert settles existing row", func(t *testing.T) {
		d := setupWebhookService(t, "")
		defer d.ctrl.Finish()
		ctx := context.Background()
		seller := approvedSeller("0")

		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventInvoiceCompleted, "inv_9", seller.CouponCode), nil)
		d.dedup.EXPECT().MarkSeen(ctx, gomock.Any(), webhookDedupTTL).Return(true, nil)
		d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
		d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_9").Return(nil, nil)
		d.ledger.EXPECT().SyncCompleted(ctx, seller.ID, "inv_9", gomock.Any()).Return(false, nil)
		d.ledger.EXPECT().MarkCompleted(ctx, "inv_9").Return(true, nil)

		assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
	})

	t.Run("other events are acknowledged", func(t *testing.T) {
		d := setupWebhookService(t, "")
		defer d.ctrl.Finish()
		ctx := context.Background()
		seller := approvedSeller("0")

		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentRefunded, "inv_9", seller.CouponCode), nil)
		d.dedup.EXPECT().MarkSeen(ctx, "payment.refunded:inv_9", webhookDedupTTL).Return(true, nil)
		d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
		d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_9").Return(nil, nil)
		d.dedup.EXPECT().Forget(ctx, "payment.refunded:inv_9").Return(nil)

		assert.Equal(t, AckTxnNotFound, d.svc.Ingest(ctx, webhookBody, ""))
	})
}

func TestWebhookService_Ingest_SellerMismatchIsNoop(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()
	seller := approvedSeller("0")

	d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentCompleted, "inv_1", seller.CouponCode), nil)
	d.dedup.EXPECT().MarkSeen(ctx, gomock.Any(), webhookDedupTTL).Return(true, nil)
	d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
	d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_1").Return(&domain.Transaction{SellerID: uuid.New()}, nil)

	assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
}

func TestWebhookService_Ingest_InternalErrorReleasesDedupKey(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()
	seller := approvedSeller("0")

	d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(notification(domain.EventPaymentCompleted, "inv_1", seller.CouponCode), nil)
	d.dedup.EXPECT().MarkSeen(ctx, "payment.completed:inv_1", webhookDedupTTL).Return(true, nil)
	d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil)
	d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_1").Return(&domain.Transaction{SellerID: seller.ID}, nil)
	d.ledger.EXPECT().MarkCompleted(ctx, "inv_1").Return(false, errors.New("deadlock"))
	d.dedup.EXPECT().Forget(ctx, "payment.completed:inv_1").Return(nil)

	assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
}

func TestWebhookService_Ingest_RedeliveryAfterRowAppears(t *testing.T) {
	d := setupWebhookService(t, "")
	defer d.ctrl.Finish()
	ctx := context.Background()
	seller := approvedSeller("0")
	n := notification(domain.EventPaymentFailed, "inv_7", seller.CouponCode)

	// first delivery beats the checkout insert and must not be remembered
	gomock.InOrder(
		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(n, nil),
		d.dedup.EXPECT().MarkSeen(ctx, "payment.failed:inv_7", webhookDedupTTL).Return(true, nil),
		d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil),
		d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_7").Return(nil, nil),
		d.dedup.EXPECT().Forget(ctx, "payment.failed:inv_7").Return(nil),

		d.decoder.EXPECT().DecodeWebhook(webhookBody).Return(n, nil),
		d.dedup.EXPECT().MarkSeen(ctx, "payment.failed:inv_7", webhookDedupTTL).Return(true, nil),
		d.sellerRepo.EXPECT().GetByCouponCode(ctx, seller.CouponCode).Return(seller, nil),
		d.txRepo.EXPECT().GetByInvoiceID(ctx, "inv_7").Return(&domain.Transaction{SellerID: seller.ID, InvoiceID: "inv_7"}, nil),
		d.ledger.EXPECT().MarkFailed(ctx, "inv_7").Return(true, nil),
	)

	assert.Equal(t, AckTxnNotFound, d.svc.Ingest(ctx, webhookBody, ""))
	assert.Equal(t, AckProcessed, d.svc.Ingest(ctx, webhookBody, ""))
}
