package postgres

import (
	"context"
	"errors"
	"fmt"

	"seller-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// FeeConfigRepo implements ports.FeeConfigRepository over the single-row
// config table.
type FeeConfigRepo struct {
	pool Pool
}

// NewFeeConfigRepo creates a new FeeConfigRepo.
func NewFeeConfigRepo(pool Pool) *FeeConfigRepo {
	return &FeeConfigRepo{pool: pool}
}

// Get returns the global fee row, or nil when it was never written.
func (r *FeeConfigRepo) Get(ctx context.Context) (*domain.FeeConfig, error) {
	query := `SELECT customer_fee, seller_fee, updated_at FROM config WHERE id = 1`

	cfg := &domain.FeeConfig{}
	err := r.pool.QueryRow(ctx, query).Scan(&cfg.CustomerFee, &cfg.SellerFee, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fee config: %w", err)
	}
	return cfg, nil
}

// Upsert writes the global fee row.
func (r *FeeConfigRepo) Upsert(ctx context.Context, cfg *domain.FeeConfig) error {
	query := `INSERT INTO config (id, customer_fee, seller_fee, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET customer_fee = EXCLUDED.customer_fee, seller_fee = EXCLUDED.seller_fee, updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, query, cfg.CustomerFee, cfg.SellerFee, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("upsert fee config: %w", err)
	}
	return nil
}
