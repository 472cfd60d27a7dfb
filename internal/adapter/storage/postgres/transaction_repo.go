package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, seller_id, invoice_id, amount, customer_fee, net_to_seller,
	status, description, created_at, completed_at, updated_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
//
// A second row for the same invoice yields ports.ErrDuplicateKey.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.SellerID, t.InvoiceID, t.Amount, t.CustomerFee, t.NetToSeller,
		t.Status, t.Description, t.CreatedAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByInvoiceID fetches a transaction by its processor invoice id.
func (r *TransactionRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE invoice_id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, invoiceID), "get transaction by invoice")
}

// GetByInvoiceIDForUpdate fetches and locks a transaction row.
// Must be called within a transaction.
func (r *TransactionRepo) GetByInvoiceIDForUpdate(ctx context.Context, tx pgx.Tx, invoiceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE invoice_id = $1 FOR UPDATE`
	return scanTransaction(tx.QueryRow(ctx, query, invoiceID), "get transaction for update")
}

// TransitionStatus moves a transaction to `to` only if its current status is
// one of `from`. It reports whether the row changed; a false result means
// another writer got there first.
func (r *TransactionRepo) TransitionStatus(ctx context.Context, tx pgx.Tx, invoiceID string, from []domain.TransactionStatus, to domain.TransactionStatus) (bool, error) {
	query := `UPDATE transactions
		SET status = $1,
			completed_at = CASE WHEN $1::text = 'completed' THEN COALESCE(completed_at, NOW()) ELSE completed_at END,
			updated_at = NOW()
		WHERE invoice_id = $2 AND status = ANY($3)`

	tag, err := tx.Exec(ctx, query, to, invoiceID, statusStrings(from))
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List fetches transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.SellerID != nil {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", argIdx))
		args = append(args, *params.SellerID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PerPage
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PerPage, offset)

	txns, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txns, total, nil
}

// ListStalePending returns the oldest pending transactions created before the cutoff.
func (r *TransactionRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC LIMIT $2`

	txns, err := r.query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending transactions: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepo) query(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows, "scan transaction")
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func scanTransaction(row rowScanner, op string) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.SellerID, &t.InvoiceID, &t.Amount, &t.CustomerFee, &t.NetToSeller,
		&t.Status, &t.Description, &t.CreatedAt, &t.CompletedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func statusStrings(statuses []domain.TransactionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
