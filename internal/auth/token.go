package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/config"
)

// TokenKind selects which secret and lifetime a token is signed or verified
// with.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims is the signed payload carried by both token kinds. UserID is the
// canonical subject claim name, applied uniformly.
type Claims struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed access and refresh tokens.
// Tokens are self-contained and never persisted: there is no server-side
// revocation list, logout is client-side cookie clearing.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

func (s *TokenService) secretFor(kind TokenKind) []byte {
	if kind == RefreshToken {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *TokenService) ttlFor(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return s.refreshTTL
	}
	return s.accessTTL
}

func (s *TokenService) sign(kind TokenKind, userID, email string, role Role, organizationID string) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID:         userID,
		Email:          email,
		Role:           role,
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttlFor(kind))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretFor(kind))
}

// IssuePair signs an access and a refresh token from the same claim set,
// each with its own secret and lifetime.
func (s *TokenService) IssuePair(userID, email string, role Role, organizationID string) (TokenPair, error) {
	access, err := s.sign(AccessToken, userID, email, role, organizationID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(RefreshToken, userID, email, role, organizationID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessTTL.Milliseconds(),
	}, nil
}

// Verify parses and validates a token of the given kind. Expired and
// otherwise-invalid tokens fail with distinguishable errors so callers can
// auto-refresh on expiry but hard-reject a bad signature.
func (s *TokenService) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretFor(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.TokenExpired()
		}
		return nil, apperror.TokenInvalid()
	}
	if !token.Valid {
		return nil, apperror.TokenInvalid()
	}
	return claims, nil
}
