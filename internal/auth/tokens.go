package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cliptube/backend/internal/models"
)

// ErrInvalidToken covers every way a presented credential can fail: absent,
// malformed, bad signature, expired, or no longer matching stored state.
// Callers translate it to an unauthorized response without detail.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RefreshClaims is the payload of a long-lived refresh token. It carries the
// account id only.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenManager signs and verifies the two credential types. Access and refresh
// tokens use separate HMAC secrets so one can never stand in for the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenManager constructs a TokenManager with the provided secrets and TTLs.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the time source. Useful for expiry tests.
func (m *TokenManager) WithNowFunc(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// GenerateAccessToken mints a stateless access token for the user.
func (m *TokenManager) GenerateAccessToken(user models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})

	signed, err := token.SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// GenerateRefreshToken mints a refresh token carrying only the user id.
func (m *TokenManager) GenerateRefreshToken(userID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.refreshTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(m.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func (m *TokenManager) ParseAccessToken(raw string) (AccessClaims, error) {
	claims := AccessClaims{}
	if err := m.parse(raw, &claims, m.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.UserID == "" {
		return AccessClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry and returns the embedded
// account id.
func (m *TokenManager) ParseRefreshToken(raw string) (string, error) {
	claims := RefreshClaims{}
	if err := m.parse(raw, &claims, m.refreshSecret); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.UserID, nil
}

func (m *TokenManager) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
