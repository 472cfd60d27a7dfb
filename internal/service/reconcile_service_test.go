package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReconcileService_ReconcilePending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	txRepo := mocks.NewMockTransactionRepository(ctrl)
	processor := mocks.NewMockPaymentProcessor(ctrl)
	ledger := mocks.NewMockLedgerService(ctrl)

	svc := NewReconcileService(txRepo, processor, ledger, time.Hour, 50, newTestLogger())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	stale := []domain.Transaction{
		{InvoiceID: "paid"},
		{InvoiceID: "refunded"},
		{InvoiceID: "expired"},
		{InvoiceID: "open"},
		{InvoiceID: "unreachable"},
		{InvoiceID: "already"},
	}
	txRepo.EXPECT().ListStalePending(ctx, fixed.Add(-time.Hour), 50).Return(stale, nil)

	processor.EXPECT().GetInvoice(ctx, "paid").Return(&domain.ProcessorInvoice{Status: "completed"}, nil)
	processor.EXPECT().GetInvoice(ctx, "refunded").Return(&domain.ProcessorInvoice{Status: "refunded"}, nil)
	processor.EXPECT().GetInvoice(ctx, "expired").Return(&domain.ProcessorInvoice{Status: "expired"}, nil)
	processor.EXPECT().GetInvoice(ctx, "open").Return(&domain.ProcessorInvoice{Status: "pending"}, nil)
	processor.EXPECT().GetInvoice(ctx, "unreachable").Return(nil, errors.New("timeout"))
	processor.EXPECT().GetInvoice(ctx, "already").Return(&domain.ProcessorInvoice{Status: "paid"}, nil)

	ledger.EXPECT().MarkCompleted(ctx, "paid").Return(true, nil)
	ledger.EXPECT().MarkRefunded(ctx, "refunded").Return(true, nil)
	ledger.EXPECT().MarkFailed(ctx, "expired").Return(true, nil)
	ledger.EXPECT().MarkCompleted(ctx, "already").Return(false, nil)

	report, err := svc.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Checked)
	assert.Equal(t, 3, report.Applied)
	assert.Equal(t, 1, report.Failed)
}

func TestReconcileService_LedgerErrorCountsAsFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	txRepo := mocks.NewMockTransactionRepository(ctrl)
	processor := mocks.NewMockPaymentProcessor(ctrl)
	ledger := mocks.NewMockLedgerService(ctrl)
	svc := NewReconcileService(txRepo, processor, ledger, time.Hour, 10, newTestLogger())

	txRepo.EXPECT().ListStalePending(ctx, gomock.Any(), 10).Return([]domain.Transaction{{InvoiceID: "inv_1"}}, nil)
	processor.EXPECT().GetInvoice(ctx, "inv_1").Return(&domain.ProcessorInvoice{Status: "completed"}, nil)
	ledger.EXPECT().MarkCompleted(ctx, "inv_1").Return(false, errors.New("deadlock"))

	report, err := svc.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Applied)
}

func TestReconcileService_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	txRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewReconcileService(txRepo, mocks.NewMockPaymentProcessor(ctrl), mocks.NewMockLedgerService(ctrl),
		time.Hour, 10, newTestLogger())

	txRepo.EXPECT().ListStalePending(ctx, gomock.Any(), 10).Return(nil, errors.New("conn refused"))

	_, err := svc.ReconcilePending(ctx)
	assertAppError(t, err, "SYS_001")
}
