package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const sellerColumns = `id, email, business_name, url, volume_estimate, status, balance,
	api_key_digest, api_key_enc, coupon_code, custom_customer_fee, custom_seller_fee,
	sol_wallet, bsc_wallet, ltc_wallet, created_at, updated_at`

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// SellerRepo implements ports.SellerRepository.
type SellerRepo struct {
	pool Pool
}

// NewSellerRepo creates a new SellerRepo.
func NewSellerRepo(pool Pool) *SellerRepo {
	return &SellerRepo{pool: pool}
}

// Create inserts a new seller. A clash on email, coupon or key digest yields
// ports.ErrDuplicateKey.
func (r *SellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	query := `INSERT INTO sellers (` + sellerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Email, s.BusinessName, s.URL, s.VolumeEstimate, s.Status, s.Balance,
		s.APIKeyDigest, s.APIKeyEnc, s.CouponCode, s.CustomCustomerFee, s.CustomSellerFee,
		s.SolWallet, s.BscWallet, s.LtcWallet, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateKey
		}
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// GetByID fetches a seller by its UUID.
func (r *SellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`
	return scanSeller(r.pool.QueryRow(ctx, query, id), "get seller by id")
}

// GetByEmail fetches a seller by email address.
func (r *SellerRepo) GetByEmail(ctx context.Context, email string) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE email = $1`
	return scanSeller(r.pool.QueryRow(ctx, query, email), "get seller by email")
}

// GetByAPIKeyDigest fetches a seller by the HMAC digest of its API key.
func (r *SellerRepo) GetByAPIKeyDigest(ctx context.Context, digest string) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE api_key_digest = $1`
	return scanSeller(r.pool.QueryRow(ctx, query, digest), "get seller by api key")
}

// GetByCouponCode fetches the seller a processor coupon belongs to.
func (r *SellerRepo) GetByCouponCode(ctx context.Context, code string) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE coupon_code = $1`
	return scanSeller(r.pool.QueryRow(ctx, query, code), "get seller by coupon")
}

// GetByIDForUpdate fetches a seller with a row-level lock (SELECT ... FOR UPDATE).
// Must be called within a transaction.
func (r *SellerRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1 FOR UPDATE`
	return scanSeller(tx.QueryRow(ctx, query, id), "get seller for update")
}

// Count returns the number of registered sellers.
func (r *SellerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sellers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sellers: %w", err)
	}
	return n, nil
}

// List returns sellers, newest first, optionally filtered by status.
func (r *SellerRepo) List(ctx context.Context, status *domain.SellerStatus) ([]domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	defer rows.Close()

	sellers := []domain.Seller{}
	for rows.Next() {
		s, err := scanSeller(rows, "scan seller")
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sellers: %w", err)
	}
	return sellers, nil
}

// TransitionStatus moves a seller from one status to another. It reports
// false when the seller was not in the expected status.
func (r *SellerRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.SellerStatus) (bool, error) {
	query := `UPDATE sellers SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update seller status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateWallets writes only the wallets present in update; an empty string
// stores NULL. It returns the row as stored, or nil when the seller is gone.
func (r *SellerRepo) UpdateWallets(ctx context.Context, id uuid.UUID, update ports.WalletUpdate) (*domain.Seller, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	for _, col := range []struct {
		name  string
		value *string
	}{
		{"sol_wallet", update.Sol},
		{"bsc_wallet", update.Bsc},
		{"ltc_wallet", update.Ltc},
	} {
		if col.value == nil {
			continue
		}
		var v *string
		if *col.value != "" {
			v = col.value
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col.name, len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE sellers SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
		WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + sellerColumns

	return scanSeller(r.pool.QueryRow(ctx, query, args...), "update seller wallets")
}

// UpdateFees sets the per-seller fee overrides. Nil clears an override.
func (r *SellerRepo) UpdateFees(ctx context.Context, id uuid.UUID, customerFee, sellerFee *decimal.Decimal) error {
	query := `UPDATE sellers SET custom_customer_fee = $1, custom_seller_fee = $2, updated_at = NOW()
		WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, customerFee, sellerFee, id)
	if err != nil {
		return fmt.Errorf("update seller fees: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seller not found: %s", id)
	}
	return nil
}

// IncrementBalance credits a seller inside the caller's transaction.
func (r *SellerRepo) IncrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	if _, err := tx.Exec(ctx, `SELECT increment_seller_balance($1, $2)`, id, amount); err != nil {
		return fmt.Errorf("increment seller balance: %w", err)
	}
	return nil
}

// DecrementBalance debits a seller inside the caller's transaction. It
// reports false, leaving the balance untouched, when funds are insufficient.
func (r *SellerRepo) DecrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	var ok bool
	if err := tx.QueryRow(ctx, `SELECT decrement_seller_balance($1, $2)`, id, amount).Scan(&ok); err != nil {
		return false, fmt.Errorf("decrement seller balance: %w", err)
	}
	return ok, nil
}

func scanSeller(row rowScanner, op string) (*domain.Seller, error) {
	s := &domain.Seller{}
	err := row.Scan(
		&s.ID, &s.Email, &s.BusinessName, &s.URL, &s.VolumeEstimate, &s.Status, &s.Balance,
		&s.APIKeyDigest, &s.APIKeyEnc, &s.CouponCode, &s.CustomCustomerFee, &s.CustomSellerFee,
		&s.SolWallet, &s.BscWallet, &s.LtcWallet, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}
