package service

import (
	"errors"
	"fmt"
	"time"

	"seller-gateway/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// minSecretLen matches config.MinTokenSecretLen; a shorter key neither signs
// nor verifies.
const minSecretLen = 32

var errWeakSecret = errors.New("token secret shorter than 32 bytes")

// JWTTokenService implements ports.TokenService using HS256 JWT.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// Generate creates a signed JWT for subject carrying role and a unique jti.
func (s *JWTTokenService) Generate(subject string, role string) (*ports.IssuedToken, error) {
	if len(s.secret) < minSecretLen {
		return nil, errWeakSecret
	}
	now := s.now()
	expiresAt := now.Add(s.expiry)
	tokenID := uuid.NewString()

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"jti":  tokenID,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
		"iss":  s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &ports.IssuedToken{Token: tokenString, ID: tokenID, ExpiresAt: expiresAt}, nil
}

// Validate parses and validates a JWT token, returning the claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	if len(s.secret) < minSecretLen {
		return nil, errWeakSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("missing subject claim")
	}
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, fmt.Errorf("missing token id claim")
	}
	role, _ := claims["role"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("missing expiry claim")
	}

	return &ports.TokenClaims{
		Subject:   sub,
		Role:      role,
		ID:        jti,
		ExpiresAt: exp.Time,
	}, nil
}
