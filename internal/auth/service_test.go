package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

type fakeUserStore struct {
	users map[string]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

// advancing clock so consecutive rotations never mint byte-identical tokens.
func testService(users *fakeUserStore) (*Service, func(time.Duration)) {
	current := time.Now().UTC()
	manager := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour).
		WithNowFunc(func() time.Time { return current })
	advance := func(d time.Duration) { current = current.Add(d) }
	return NewService(users, manager), advance
}

func TestServiceIssuePersistsRefreshToken(t *testing.T) {
	store := newFakeUserStore(models.User{ID: "user-1", Email: "a@example.com", Username: "a"})
	service, _ := testService(store)

	pair, err := service.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	if store.users["user-1"].RefreshToken != pair.RefreshToken {
		t.Fatal("refresh token was not persisted to the account slot")
	}
}

func TestServiceIssueUnknownUser(t *testing.T) {
	service, _ := testService(newFakeUserStore())

	if _, err := service.Issue(context.Background(), "missing"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceValidateRedactsCredentials(t *testing.T) {
	store := newFakeUserStore(models.User{
		ID:       "user-1",
		Email:    "a@example.com",
		Username: "a",
		Password: "hash",
	})
	service, _ := testService(store)

	pair, err := service.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	user, err := service.Validate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if user.ID != "user-1" {
		t.Fatalf("expected user-1, got %q", user.ID)
	}
	if user.Password != "" || user.RefreshToken != "" {
		t.Fatalf("expected redacted credentials, got %+v", user)
	}
}

func TestServiceValidateRejectsInvalid(t *testing.T) {
	store := newFakeUserStore(models.User{ID: "user-1"})
	service, advance := testService(store)

	if _, err := service.Validate(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	pair, err := service.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	advance(16 * time.Minute)
	if _, err := service.Validate(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	// Valid signature but deleted account.
	pair2, err := service.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	delete(store.users, "user-1")
	if _, err := service.Validate(context.Background(), pair2.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted account, got %v", err)
	}
}

func TestServiceRefreshRotation(t *testing.T) {
	store := newFakeUserStore(models.User{ID: "user-1", Email: "a@example.com", Username: "a"})
	service, advance := testService(store)

	first, err := service.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	advance(time.Second)
	second, err := service.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected rotation to mint a new refresh token")
	}

	// The superseded token must be rejected even though its signature and
	// expiry are still good.
	if _, err := service.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for superseded token, got %v", err)
	}

	// The current token still works.
	advance(time.Second)
	if _, err := service.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
}

func TestServiceLogoutStopsRefresh(t *testing.T) {
	store := newFakeUserStore(models.User{ID: "user-1"})
	service, advance := testService(store)

	pair, err := service.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := service.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if store.users["user-1"].RefreshToken != "" {
		t.Fatal("expected refresh slot to be cleared")
	}

	advance(time.Second)
	if _, err := service.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}
