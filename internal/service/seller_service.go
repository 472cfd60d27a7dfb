package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxCouponAttempts bounds coupon provisioning during registration.
const maxCouponAttempts = 3

// SellerServiceImpl implements ports.SellerService.
type SellerServiceImpl struct {
	sellerRepo ports.SellerRepository
	processor  ports.PaymentProcessor
	feeSvc     ports.FeeService
	sigSvc     ports.SignatureService
	encSvc     ports.EncryptionService
	keyPepper  string
	log        zerolog.Logger
}

// NewSellerService creates a new SellerServiceImpl. keyPepper keys the HMAC
// digest used to look sellers up by API key.
func NewSellerService(
	sellerRepo ports.SellerRepository,
	processor ports.PaymentProcessor,
	feeSvc ports.FeeService,
	sigSvc ports.SignatureService,
	encSvc ports.EncryptionService,
	keyPepper string,
	log zerolog.Logger,
) *SellerServiceImpl {
	return &SellerServiceImpl{
		sellerRepo: sellerRepo,
		processor:  processor,
		feeSvc:     feeSvc,
		sigSvc:     sigSvc,
		encSvc:     encSvc,
		keyPepper:  keyPepper,
		log:        log,
	}
}

// Register creates a pending seller. The processor coupon is provisioned
// first; if that fails no row is written.
func (s *SellerServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Seller, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.sellerRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailRegistered()
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate api key: %w", err))
	}
	apiKeyEnc, err := s.encSvc.Encrypt(apiKey)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt api key: %w", err))
	}

	count, err := s.sellerRepo.Count(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count sellers: %w", err))
	}

	couponCode, err := s.provisionCoupon(ctx, int(count)+1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	seller := &domain.Seller{
		ID:             uuid.New(),
		Email:          email,
		BusinessName:   strings.TrimSpace(req.BusinessName),
		URL:            req.URL,
		VolumeEstimate: req.VolumeEstimate,
		Status:         domain.SellerStatusPending,
		Balance:        decimal.Zero,
		APIKeyDigest:   s.digest(apiKey),
		APIKeyEnc:      apiKeyEnc,
		CouponCode:     couponCode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.sellerRepo.Create(ctx, seller); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			s.log.Warn().Str("coupon_code", couponCode).Msg("registration lost email race, coupon left unused")
			return nil, apperror.ErrEmailRegistered()
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create seller: %w", err))
	}

	s.log.Info().
		Str("seller_id", seller.ID.String()).
		Str("coupon_code", couponCode).
		Msg("seller registered")
	return seller, nil
}

// provisionCoupon creates the seller's coupon on the processor. A conflict
// regenerates the code with the next index; any other failure aborts.
func (s *SellerServiceImpl) provisionCoupon(ctx context.Context, index int) (string, error) {
	for attempt := 0; attempt < maxCouponAttempts; attempt++ {
		code, err := generateCouponCode(index + attempt)
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("generate coupon code: %w", err))
		}

		err = s.processor.CreateCoupon(ctx, code)
		if err == nil {
			return code, nil
		}
		if !ports.IsConflict(err) {
			return "", gatewayError(err)
		}
		s.log.Warn().Err(err).Str("coupon_code", code).Int("attempt", attempt+1).Msg("coupon already exists, retrying")
	}
	return "", apperror.ErrGateway(fmt.Sprintf("Failed to create unique coupon after %d attempts", maxCouponAttempts), nil)
}

// Approve moves a pending seller to approved and discloses the API key once.
func (s *SellerServiceImpl) Approve(ctx context.Context, sellerID uuid.UUID) (*ports.ApprovalResult, error) {
	seller, err := s.getSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status != domain.SellerStatusPending {
		return nil, apperror.ErrSellerNotPending()
	}

	apiKey, err := s.encSvc.Decrypt(seller.APIKeyEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt api key: %w", err))
	}

	ok, err := s.sellerRepo.TransitionStatus(ctx, sellerID, domain.SellerStatusPending, domain.SellerStatusApproved)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if !ok {
		return nil, apperror.ErrSellerNotPending()
	}
	seller.Status = domain.SellerStatusApproved

	s.log.Info().Str("seller_id", sellerID.String()).Msg("seller approved")
	return &ports.ApprovalResult{Seller: seller, APIKey: apiKey}, nil
}

// Suspend blocks an approved seller from the API.
func (s *SellerServiceImpl) Suspend(ctx context.Context, sellerID uuid.UUID) (*domain.Seller, error) {
	return s.transition(ctx, sellerID, domain.SellerStatusApproved, domain.SellerStatusSuspended)
}

// Reinstate restores a suspended seller.
func (s *SellerServiceImpl) Reinstate(ctx context.Context, sellerID uuid.UUID) (*domain.Seller, error) {
	return s.transition(ctx, sellerID, domain.SellerStatusSuspended, domain.SellerStatusApproved)
}

func (s *SellerServiceImpl) transition(ctx context.Context, sellerID uuid.UUID, from, to domain.SellerStatus) (*domain.Seller, error) {
	seller, err := s.getSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status != from {
		return nil, apperror.ErrInvalidSellerTransition(string(seller.Status))
	}

	ok, err := s.sellerRepo.TransitionStatus(ctx, sellerID, from, to)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if !ok {
		return nil, apperror.ErrInvalidSellerTransition(string(seller.Status))
	}
	seller.Status = to

	s.log.Info().
		Str("seller_id", sellerID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("seller status changed")
	return seller, nil
}

// UpdateWallets validates and stores payout addresses. Nil fields are left
// as they are; empty strings clear the wallet.
func (s *SellerServiceImpl) UpdateWallets(ctx context.Context, seller *domain.Seller, update ports.WalletUpdate) (*domain.Seller, error) {
	var err error
	if update.Sol, err = normalizeWallet(domain.CryptoUSDCSol, update.Sol); err != nil {
		return nil, err
	}
	if update.Bsc, err = normalizeWallet(domain.CryptoUSDCBsc, update.Bsc); err != nil {
		return nil, err
	}
	if update.Ltc, err = normalizeWallet(domain.CryptoLTC, update.Ltc); err != nil {
		return nil, err
	}

	updated, err := s.sellerRepo.UpdateWallets(ctx, seller.ID, update)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if updated == nil {
		return nil, apperror.ErrNotFound("Seller")
	}

	s.log.Info().Str("seller_id", seller.ID.String()).Msg("seller wallets updated")
	return updated, nil
}

func normalizeWallet(rail domain.CryptoRail, update *string) (*string, error) {
	if update == nil {
		return nil, nil
	}
	addr := strings.TrimSpace(*update)
	if addr != "" && !rail.ValidAddress(addr) {
		return nil, apperror.ErrInvalidWallet(string(rail))
	}
	return &addr, nil
}

// Profile returns the seller's own view with the key masked and the
// effective fee rates resolved.
func (s *SellerServiceImpl) Profile(ctx context.Context, seller *domain.Seller) (*ports.SellerProfile, error) {
	apiKey, err := s.encSvc.Decrypt(seller.APIKeyEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt api key: %w", err))
	}

	return &ports.SellerProfile{
		Seller:          seller,
		MaskedAPIKey:    domain.MaskAPIKey(apiKey),
		CustomerFeeRate: s.feeSvc.ResolveRate(ctx, domain.FeeRoleCustomer, seller),
		SellerFeeRate:   s.feeSvc.ResolveRate(ctx, domain.FeeRoleSeller, seller),
	}, nil
}

// List returns sellers, optionally filtered by status, newest first.
func (s *SellerServiceImpl) List(ctx context.Context, status *domain.SellerStatus) ([]domain.Seller, error) {
	sellers, err := s.sellerRepo.List(ctx, status)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return sellers, nil
}

// Authenticate resolves a bearer API key to an approved seller.
func (s *SellerServiceImpl) Authenticate(ctx context.Context, apiKey string) (*domain.Seller, error) {
	if !strings.HasPrefix(apiKey, domain.APIKeyPrefix) {
		return nil, apperror.ErrInvalidAPIKey()
	}

	seller, err := s.sellerRepo.GetByAPIKeyDigest(ctx, s.digest(apiKey))
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if seller == nil {
		return nil, apperror.ErrInvalidAPIKey()
	}
	if !seller.IsApproved() {
		return nil, apperror.ErrAccountNotApproved()
	}
	return seller, nil
}

func (s *SellerServiceImpl) getSeller(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	seller, err := s.sellerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if seller == nil {
		return nil, apperror.ErrNotFound("Seller")
	}
	return seller, nil
}

func (s *SellerServiceImpl) digest(apiKey string) string {
	return s.sigSvc.Sign(s.keyPepper, apiKey)
}

// generateAPIKey returns metapay_sk_ followed by 64 hex characters.
func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return domain.APIKeyPrefix + hex.EncodeToString(b), nil
}

// generateCouponCode returns SELLER_<index:06d>_<8 uppercase hex>.
func generateCouponCode(index int) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELLER_%06d_%s", index, strings.ToUpper(hex.EncodeToString(b))), nil
}

// gatewayError maps a processor failure to GW_001 carrying its message.
func gatewayError(err error) error {
	var gwErr *ports.GatewayError
	if errors.As(err, &gwErr) {
		return apperror.ErrGateway(gwErr.Message, err)
	}
	return apperror.ErrGateway("", err)
}
