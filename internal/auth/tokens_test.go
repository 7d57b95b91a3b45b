package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/models"
)

func TestTokenManagerAccessRoundTrip(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	user := models.User{ID: "user-1", Email: "user@example.com", Username: "user"}
	signed, expiresAt, err := manager.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := manager.ParseAccessToken(signed)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != user.ID || claims.Email != user.Email || claims.Username != user.Username {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestTokenManagerRefreshRoundTrip(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	signed, _, err := manager.GenerateRefreshToken("user-7")
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	userID, err := manager.ParseRefreshToken(signed)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}

	if userID != "user-7" {
		t.Fatalf("expected user-7 got %q", userID)
	}
}

func TestTokenManagerRejectsExpired(t *testing.T) {
	current := time.Now().UTC()
	manager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour).
		WithNowFunc(func() time.Time { return current })

	signed, _, err := manager.GenerateAccessToken(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if _, err := manager.ParseAccessToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenManagerRejectsCrossSecret(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)

	// A refresh token must never validate as an access token.
	refresh, _, err := manager.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	if _, err := manager.ParseAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for cross-secret token, got %v", err)
	}

	other := NewTokenManager("other-secret", "refresh-secret", time.Minute, time.Hour)
	access, _, err := other.GenerateAccessToken(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	if _, err := manager.ParseAccessToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestTokenManagerRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := manager.ParseAccessToken(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
