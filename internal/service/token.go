package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ikiraha/backend/internal/config"
	"github.com/ikiraha/backend/internal/model"
)

type sessionClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access and refresh tokens. It holds no
// state beyond the shared secret and the configured lifetimes.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.JWTRefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (s *TokenService) IssueAccessToken(claims model.TokenClaims) (string, error) {
	return s.sign(claims, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(claims model.TokenClaims) (string, error) {
	return s.sign(claims, s.refreshTTL)
}

// RefreshTTL is the ledger expiry window for stored refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *TokenService) sign(claims model.TokenClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	// The jti keeps every issued token distinct; refresh tokens land in a
	// unique ledger column, so same-second issues for one user must not
	// collide, and revoking one session must not revoke another.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// Verify decodes a token, rejecting bad signatures, wrong signing methods and
// expired tokens alike with ErrInvalidToken.
func (s *TokenService) Verify(tokenStr string) (*model.TokenClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &model.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
