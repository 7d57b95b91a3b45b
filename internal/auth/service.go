package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// UserStore captures the account persistence the credential service needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
}

// Service issues, validates, and rotates the credential pair. Each account has
// a single refresh slot: issuing a new pair overwrites the stored refresh
// token, which invalidates the previous one for future refresh attempts while
// leaving already-issued access tokens to expire naturally.
type Service struct {
	users  UserStore
	tokens *TokenManager
}

// NewService constructs a credential service backed by the provided store and
// token manager.
func NewService(users UserStore, tokens *TokenManager) *Service {
	if users == nil || tokens == nil {
		panic("auth: user store and token manager must not be nil")
	}
	return &Service{users: users, tokens: tokens}
}

// Issue mints a new access/refresh pair for the account and persists the
// refresh token as the account's single active one.
func (s *Service) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, err
		}
		return models.TokenPair{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	access, accessExp, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, refreshExp, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate resolves an access token to the account it was minted for. The
// returned user has credential fields redacted. Any failure maps to
// ErrInvalidToken.
func (s *Service) Validate(ctx context.Context, raw string) (models.User, error) {
	claims, err := s.tokens.ParseAccessToken(raw)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: account gone", ErrInvalidToken)
		}
		return models.User{}, fmt.Errorf("load user %s: %w", claims.UserID, err)
	}

	return user.Redacted(), nil
}

// Refresh rotates the credential pair. The presented token must carry a valid
// signature, resolve to an existing account, and byte-match the account's
// stored refresh value; the stored-value comparison is what rejects reuse of a
// superseded token after a prior rotation. Every failure is terminal for the
// request.
func (s *Service) Refresh(ctx context.Context, raw string) (models.TokenPair, error) {
	userID, err := s.tokens.ParseRefreshToken(raw)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, fmt.Errorf("%w: account gone", ErrInvalidToken)
		}
		return models.TokenPair{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(raw)) != 1 {
		return models.TokenPair{}, fmt.Errorf("%w: superseded refresh token", ErrInvalidToken)
	}

	return s.Issue(ctx, user.ID)
}

// Logout clears the account's refresh slot so no further rotation is possible
// until the next login.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
