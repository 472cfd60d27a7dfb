package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(sellerID uuid.UUID) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Transaction{
		ID:          uuid.New(),
		SellerID:    sellerID,
		InvoiceID:   "inv_100",
		Amount:      decimal.RequireFromString("100.00"),
		CustomerFee: decimal.RequireFromString("15.00"),
		NetToSeller: decimal.RequireFromString("100.00"),
		Status:      domain.TransactionStatusPending,
		Description: strPtr("order #1"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func txColumns() []string {
	return []string{"id", "seller_id", "invoice_id", "amount", "customer_fee", "net_to_seller",
		"status", "description", "created_at", "completed_at", "updated_at"}
}

func txRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(txColumns()).AddRow(
		t.ID, t.SellerID, t.InvoiceID, t.Amount, t.CustomerFee, t.NetToSeller,
		t.Status, t.Description, t.CreatedAt, t.CompletedAt, t.UpdatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.SellerID, txn.InvoiceID, txn.Amount, txn.CustomerFee, txn.NetToSeller,
			txn.Status, txn.Description, txn.CreatedAt, txn.CompletedAt, txn.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Create_DuplicateInvoice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.SellerID, txn.InvoiceID, txn.Amount, txn.CustomerFee, txn.NetToSeller,
			txn.Status, txn.Description, txn.CreatedAt, txn.CompletedAt, txn.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "transactions_invoice_id_key"})

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, txn)
	assert.ErrorIs(t, err, ports.ErrDuplicateKey)
}

func TestTransactionRepo_GetByInvoiceID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE invoice_id").
		WithArgs("inv_100").
		WillReturnRows(txRow(txn))

	result, err := repo.GetByInvoiceID(context.Background(), "inv_100")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, domain.TransactionStatusPending, result.Status)
	assert.True(t, txn.CustomerFee.Equal(result.CustomerFee))
	assert.Nil(t, result.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByInvoiceID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE invoice_id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(txColumns()))

	result, err := NewTransactionRepo(mock).GetByInvoiceID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransactionRepo_GetByInvoiceIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE invoice_id .+ FOR UPDATE").
		WithArgs(txn.InvoiceID).
		WillReturnRows(txRow(txn))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := NewTransactionRepo(mock).GetByInvoiceIDForUpdate(context.Background(), dbTx, txn.InvoiceID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.SellerID, result.SellerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_TransitionStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"pending row moved", 1, true},
		{"already moved by another writer", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE transactions SET status").
				WithArgs(domain.TransactionStatusCompleted, "inv_1", []string{"pending"}).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			dbTx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			ok, err := NewTransactionRepo(mock).TransitionStatus(context.Background(), dbTx, "inv_1",
				[]domain.TransactionStatus{domain.TransactionStatusPending}, domain.TransactionStatusCompleted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactionRepo_TransitionStatus_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusRefunded, "inv_1", []string{"pending", "completed"}).
		WillReturnError(errors.New("connection reset"))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	_, err = NewTransactionRepo(mock).TransitionStatus(context.Background(), dbTx, "inv_1",
		domain.TransitionSources(domain.TransactionStatusRefunded), domain.TransactionStatusRefunded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update transaction status")
}

func TestTransactionRepo_List_SellerWithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	sellerID := uuid.New()
	txn := newTestTransaction(sellerID)
	status := domain.TransactionStatusPending
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(sellerID, status, from).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE seller_id .+ ORDER BY created_at DESC LIMIT").
		WithArgs(sellerID, status, from, 10, 10).
		WillReturnRows(txRow(txn))

	txns, total, err := repo.List(context.Background(), ports.TransactionListParams{
		SellerID: &sellerID,
		Status:   &status,
		From:     &from,
		Page:     2,
		PerPage:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.InvoiceID, txns[0].InvoiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_AllSellers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT .+ FROM transactions ORDER BY created_at DESC LIMIT").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(txColumns()))

	txns, total, err := NewTransactionRepo(mock).List(context.Background(), ports.TransactionListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListStalePending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	txn := newTestTransaction(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE status = 'pending' AND created_at").
		WithArgs(cutoff, 100).
		WillReturnRows(txRow(txn))

	txns, err := NewTransactionRepo(mock).ListStalePending(context.Background(), cutoff, 100)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.ID, txns[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
