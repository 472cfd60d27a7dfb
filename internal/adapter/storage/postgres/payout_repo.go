package postgres

import (
	"context"
	"errors"
	"fmt"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const payoutColumns = `id, seller_id, amount_usd, seller_fee, net_usd, crypto, wallet_address,
	status, admin_note, created_at, processed_at`

// PayoutRepo implements ports.PayoutRepository.
type PayoutRepo struct {
	pool Pool
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(pool Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// Create inserts a payout request within a database transaction.
func (r *PayoutRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payout) error {
	query := `INSERT INTO payouts (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.SellerID, p.AmountUSD, p.SellerFee, p.NetUSD, p.Crypto, p.WalletAddress,
		p.Status, p.AdminNote, p.CreatedAt, p.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

// GetByIDForUpdate fetches and locks a payout row.
func (r *PayoutRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1 FOR UPDATE`

	p, err := scanPayout(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payout for update: %w", err)
	}
	return p, nil
}

// Decide records the admin decision on a pending payout. It reports false
// when the payout was no longer pending.
func (r *PayoutRepo) Decide(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, note *string) (bool, error) {
	query := `UPDATE payouts SET status = $1, admin_note = $2, processed_at = NOW()
		WHERE id = $3 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, status, note, id)
	if err != nil {
		return false, fmt.Errorf("update payout status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List fetches a seller's payouts, newest first.
func (r *PayoutRepo) List(ctx context.Context, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
	where := "WHERE seller_id = $1"
	args := []any{params.SellerID}
	if params.Status != nil {
		where += " AND status = $2"
		args = append(args, *params.Status)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM payouts "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payouts: %w", err)
	}

	offset := (params.Page - 1) * params.PerPage
	query := fmt.Sprintf(`SELECT %s FROM payouts %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		payoutColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	payouts := []domain.Payout{}
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payouts: %w", err)
	}
	return payouts, total, nil
}

// ListWithSellers returns payouts joined with seller identity for the admin
// queue. Pending payouts come out oldest first so they are fulfilled in order.
func (r *PayoutRepo) ListWithSellers(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutWithSeller, error) {
	query := `SELECT p.id, p.seller_id, p.amount_usd, p.seller_fee, p.net_usd, p.crypto, p.wallet_address,
		p.status, p.admin_note, p.created_at, p.processed_at, s.email, s.business_name
		FROM payouts p JOIN sellers s ON s.id = p.seller_id`
	var args []any
	if status != nil {
		query += ` WHERE p.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY p.created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payouts with sellers: %w", err)
	}
	defer rows.Close()

	result := []domain.PayoutWithSeller{}
	for rows.Next() {
		var p domain.PayoutWithSeller
		err := rows.Scan(
			&p.ID, &p.SellerID, &p.AmountUSD, &p.SellerFee, &p.NetUSD, &p.Crypto, &p.WalletAddress,
			&p.Status, &p.AdminNote, &p.CreatedAt, &p.ProcessedAt, &p.SellerEmail, &p.BusinessName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	return result, nil
}

func scanPayout(row rowScanner) (*domain.Payout, error) {
	p := &domain.Payout{}
	err := row.Scan(
		&p.ID, &p.SellerID, &p.AmountUSD, &p.SellerFee, &p.NetUSD, &p.Crypto, &p.WalletAddress,
		&p.Status, &p.AdminNote, &p.CreatedAt, &p.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
