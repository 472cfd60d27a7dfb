package service

import (
	"context"
	"fmt"
	"time"

	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	RoleAdmin    = "admin"
	adminSubject = "admin"
)

// AdminAuthServiceImpl implements ports.AdminAuthService.
type AdminAuthServiceImpl struct {
	secretHash string
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	sessions   ports.SessionStore
	log        zerolog.Logger
}

// NewAdminAuthService creates a new AdminAuthServiceImpl. secretHash is the
// argon2id PHC string of the shared admin secret.
func NewAdminAuthService(
	secretHash string,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	sessions ports.SessionStore,
	log zerolog.Logger,
) *AdminAuthServiceImpl {
	return &AdminAuthServiceImpl{
		secretHash: secretHash,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		sessions:   sessions,
		log:        log,
	}
}

// Login verifies the admin secret and issues a session token.
func (s *AdminAuthServiceImpl) Login(ctx context.Context, secret string) (*ports.IssuedToken, error) {
	if secret == "" || s.secretHash == "" {
		return nil, apperror.ErrInvalidAdminSecret()
	}

	valid, err := s.hashSvc.Verify(secret, s.secretHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify admin secret: %w", err))
	}
	if !valid {
		s.log.Warn().Msg("admin login with wrong secret")
		return nil, apperror.ErrInvalidAdminSecret()
	}

	issued, err := s.tokenSvc.Generate(adminSubject, RoleAdmin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().Str("jti", issued.ID).Time("expires_at", issued.ExpiresAt).Msg("admin session issued")
	return issued, nil
}

// Authorize validates an admin bearer token and checks it was not revoked.
func (s *AdminAuthServiceImpl) Authorize(ctx context.Context, token string) (*ports.TokenClaims, error) {
	claims, err := s.tokenSvc.Validate(token)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}
	if claims.Role != RoleAdmin {
		return nil, apperror.ErrForbidden()
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check session revocation: %w", err))
	}
	if revoked {
		return nil, apperror.ErrInvalidToken()
	}
	return claims, nil
}

// Logout revokes the session until its natural expiry.
func (s *AdminAuthServiceImpl) Logout(ctx context.Context, claims *ports.TokenClaims) error {
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperror.InternalError(fmt.Errorf("revoke session: %w", err))
	}
	s.log.Info().Str("jti", claims.ID).Msg("admin session revoked")
	return nil
}
