package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quillpress/internal/db"
)

var ErrTokenInvalid = errors.New("token is invalid or expired")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is returned by a successful credential exchange.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenClaims are the claims carried by access and refresh tokens.
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// AuthService issues, refreshes and verifies bearer tokens.
type AuthService struct {
	users         *UserService
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewAuthService creates an AuthService instance.
func NewAuthService(users *UserService, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Obtain exchanges credentials for an access/refresh pair.
func (s *AuthService) Obtain(username, password string) (TokenPair, error) {
	user, err := s.users.Authenticate(username, password)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.sign(user.ID, tokenTypeAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(user.ID, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh issues a new access token for a valid refresh token whose user
// still exists.
func (s *AuthService) Refresh(refresh string) (string, error) {
	claims, err := s.parse(refresh, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	if _, err := s.users.Get(claims.UserID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrTokenInvalid
		}
		return "", err
	}
	return s.sign(claims.UserID, tokenTypeAccess)
}

// Verify accepts any unexpired token issued by this service.
func (s *AuthService) Verify(token string) error {
	if _, err := s.parse(token, tokenTypeAccess); err == nil {
		return nil
	}
	_, err := s.parse(token, tokenTypeRefresh)
	return err
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(token string) (*db.User, error) {
	claims, err := s.parse(token, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sign(userID uint, tokenType string) (string, error) {
	secret, ttl := s.accessSecret, s.accessTTL
	if tokenType == tokenTypeRefresh {
		secret, ttl = s.refreshSecret, s.refreshTTL
	}

	now := s.now()
	claims := TokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *AuthService) parse(token, tokenType string) (*TokenClaims, error) {
	secret := s.accessSecret
	if tokenType == tokenTypeRefresh {
		secret = s.refreshSecret
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != tokenType {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
