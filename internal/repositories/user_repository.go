package repositories

import (
	"context"

	"github.com/cliptube/backend/internal/models"
)

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, location string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, location string) (models.User, error)
	AppendWatchHistory(ctx context.Context, id, videoID string) error
	Delete(ctx context.Context, id string) error
}
