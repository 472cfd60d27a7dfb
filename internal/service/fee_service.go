package service

import (
	"context"
	"fmt"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FeeServiceImpl implements ports.FeeService.
type FeeServiceImpl struct {
	configRepo ports.FeeConfigRepository
	sellerRepo ports.SellerRepository
	defaults   domain.FeeConfig
	log        zerolog.Logger
}

// NewFeeService creates a fee service. defaults apply whenever the global
// row is missing or unreadable.
func NewFeeService(
	configRepo ports.FeeConfigRepository,
	sellerRepo ports.SellerRepository,
	defaults domain.FeeConfig,
	log zerolog.Logger,
) *FeeServiceImpl {
	return &FeeServiceImpl{
		configRepo: configRepo,
		sellerRepo: sellerRepo,
		defaults:   defaults,
		log:        log,
	}
}

// ParseFeeDefaults builds the fallback fee row from configuration strings.
func ParseFeeDefaults(customer, seller string) (domain.FeeConfig, error) {
	cfg := domain.DefaultFeeConfig()
	if customer != "" {
		d, err := decimal.NewFromString(customer)
		if err != nil {
			return cfg, fmt.Errorf("parsing default customer fee: %w", err)
		}
		cfg.CustomerFee = d
	}
	if seller != "" {
		d, err := decimal.NewFromString(seller)
		if err != nil {
			return cfg, fmt.Errorf("parsing default seller fee: %w", err)
		}
		cfg.SellerFee = d
	}
	if !domain.ValidFeeRate(cfg.CustomerFee) || !domain.ValidFeeRate(cfg.SellerFee) {
		return cfg, fmt.Errorf("default fees must be within 0-%s", domain.MaxFeeRate)
	}
	return cfg, nil
}

// ResolveRate returns the effective percentage for role. It never fails:
// a config read error falls back to the defaults.
func (s *FeeServiceImpl) ResolveRate(ctx context.Context, role domain.FeeRole, seller *domain.Seller) decimal.Decimal {
	if seller != nil {
		switch {
		case role == domain.FeeRoleCustomer && seller.CustomCustomerFee != nil:
			return *seller.CustomCustomerFee
		case role == domain.FeeRoleSeller && seller.CustomSellerFee != nil:
			return *seller.CustomSellerFee
		}
	}

	global := s.loadGlobal(ctx)
	return domain.ResolveFeeRate(role, seller, &global)
}

// GetGlobal returns the stored fee row, or the defaults when none exists.
func (s *FeeServiceImpl) GetGlobal(ctx context.Context) (*domain.FeeConfig, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if cfg == nil {
		d := s.defaults
		return &d, nil
	}
	return cfg, nil
}

// UpdateGlobal upserts the fee row. An omitted field is reset to its default.
func (s *FeeServiceImpl) UpdateGlobal(ctx context.Context, update ports.FeeUpdate) (*domain.FeeConfig, error) {
	if err := validateFeeUpdate(update); err != nil {
		return nil, err
	}

	cfg := &domain.FeeConfig{
		CustomerFee: s.defaults.CustomerFee,
		SellerFee:   s.defaults.SellerFee,
		UpdatedAt:   time.Now().UTC(),
	}
	if update.CustomerFee != nil {
		cfg.CustomerFee = *update.CustomerFee
	}
	if update.SellerFee != nil {
		cfg.SellerFee = *update.SellerFee
	}

	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.log.Info().
		Str("customer_fee", cfg.CustomerFee.String()).
		Str("seller_fee", cfg.SellerFee.String()).
		Msg("global fees updated")
	return cfg, nil
}

// UpdateSeller replaces a seller's overrides. A nil field clears the
// override so the global rate applies again.
func (s *FeeServiceImpl) UpdateSeller(ctx context.Context, sellerID uuid.UUID, update ports.FeeUpdate) (*domain.Seller, error) {
	if err := validateFeeUpdate(update); err != nil {
		return nil, err
	}

	seller, err := s.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if seller == nil {
		return nil, apperror.ErrNotFound("Seller")
	}

	if err := s.sellerRepo.UpdateFees(ctx, sellerID, update.CustomerFee, update.SellerFee); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	seller.CustomCustomerFee = update.CustomerFee
	seller.CustomSellerFee = update.SellerFee

	s.log.Info().
		Str("seller_id", sellerID.String()).
		Interface("customer_fee", update.CustomerFee).
		Interface("seller_fee", update.SellerFee).
		Msg("seller fees updated")
	return seller, nil
}

func (s *FeeServiceImpl) loadGlobal(ctx context.Context) domain.FeeConfig {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("fee config unavailable, using defaults")
		return s.defaults
	}
	if cfg == nil {
		return s.defaults
	}
	return *cfg
}

func validateFeeUpdate(update ports.FeeUpdate) error {
	if update.CustomerFee != nil && !domain.ValidFeeRate(*update.CustomerFee) {
		return apperror.Validation("customerFee must be between 0 and 30")
	}
	if update.SellerFee != nil && !domain.ValidFeeRate(*update.SellerFee) {
		return apperror.Validation("sellerFee must be between 0 and 30")
	}
	return nil
}
