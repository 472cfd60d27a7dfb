package postgres

import (
	"context"
	"testing"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayout(sellerID uuid.UUID) *domain.Payout {
	return &domain.Payout{
		ID:            uuid.New(),
		SellerID:      sellerID,
		AmountUSD:     decimal.RequireFromString("50.00"),
		SellerFee:     decimal.RequireFromString("5.00"),
		NetUSD:        decimal.RequireFromString("45.00"),
		Crypto:        domain.CryptoUSDCSol,
		WalletAddress: "So1anaWa11et",
		Status:        domain.PayoutStatusPending,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func payoutColumnNames() []string {
	return []string{"id", "seller_id", "amount_usd", "seller_fee", "net_usd", "crypto", "wallet_address",
		"status", "admin_note", "created_at", "processed_at"}
}

func payoutRow(p *domain.Payout) *pgxmock.Rows {
	return pgxmock.NewRows(payoutColumnNames()).AddRow(
		p.ID, p.SellerID, p.AmountUSD, p.SellerFee, p.NetUSD, p.Crypto, p.WalletAddress,
		p.Status, p.AdminNote, p.CreatedAt, p.ProcessedAt,
	)
}

func TestPayoutRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := newTestPayout(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payouts").
		WithArgs(p.ID, p.SellerID, p.AmountUSD, p.SellerFee, p.NetUSD, p.Crypto, p.WalletAddress,
			p.Status, p.AdminNote, p.CreatedAt, p.ProcessedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = NewPayoutRepo(mock).Create(context.Background(), tx, p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := newTestPayout(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM payouts WHERE id .+ FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(payoutRow(p))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := NewPayoutRepo(mock).GetByIDForUpdate(context.Background(), tx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.CryptoUSDCSol, result.Crypto)
	assert.True(t, p.NetUSD.Equal(result.NetUSD))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_GetByIDForUpdate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM payouts WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(payoutColumnNames()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := NewPayoutRepo(mock).GetByIDForUpdate(context.Background(), tx, id)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestPayoutRepo_Decide(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"pending payout decided", 1, true},
		{"already processed", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			id := uuid.New()
			note := strPtr("wallet mismatch")

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE payouts SET status .+ WHERE id = .+ AND status = 'pending'").
				WithArgs(domain.PayoutStatusRejected, note, id).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			ok, err := NewPayoutRepo(mock).Decide(context.Background(), tx, id, domain.PayoutStatusRejected, note)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPayoutRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sellerID := uuid.New()
	p := newTestPayout(sellerID)
	status := domain.PayoutStatusPending

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(sellerID, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM payouts WHERE seller_id .+ ORDER BY created_at DESC").
		WithArgs(sellerID, status, 10, 0).
		WillReturnRows(payoutRow(p))

	payouts, total, err := NewPayoutRepo(mock).List(context.Background(), ports.PayoutListParams{
		SellerID: sellerID, Status: &status, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, payouts, 1)
	assert.Equal(t, p.ID, payouts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepo_ListWithSellers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := newTestPayout(uuid.New())
	status := domain.PayoutStatusPending

	cols := append(payoutColumnNames(), "email", "business_name")
	rows := pgxmock.NewRows(cols).AddRow(
		p.ID, p.SellerID, p.AmountUSD, p.SellerFee, p.NetUSD, p.Crypto, p.WalletAddress,
		p.Status, p.AdminNote, p.CreatedAt, p.ProcessedAt, "shop@example.com", "Test Shop",
	)
	mock.ExpectQuery("FROM payouts p JOIN sellers s .+ WHERE p.status").
		WithArgs(status).
		WillReturnRows(rows)

	result, err := NewPayoutRepo(mock).ListWithSellers(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "shop@example.com", result[0].SellerEmail)
	assert.Equal(t, "Test Shop", result[0].BusinessName)
	assert.Equal(t, p.WalletAddress, result[0].WalletAddress)
	assert.NoError(t, mock.ExpectationsWereMet())
}
