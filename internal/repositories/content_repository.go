package repositories

import (
	"context"

	"github.com/cliptube/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnail string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (models.Video, error)
	MarkAssetReady(ctx context.Context, id, location string, size int64) error
	MarkAssetFailed(ctx context.Context, id string) error
}

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}
