package repositories

import (
	"context"

	"github.com/cliptube/backend/internal/models"
)

// CommentRepository exposes data access for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// LikeRepository exposes data access for likes. Create reports ErrConflict
// when the (owner, target) pair already exists; the store-level uniqueness
// constraint, not the callers' pre-checks, is the source of truth.
type LikeRepository interface {
	Create(ctx context.Context, like models.Like) error
	FindByID(ctx context.Context, id string) (models.Like, error)
	FindByOwnerAndTarget(ctx context.Context, ownerID string, target models.TargetRef) (models.Like, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
	CountForTarget(ctx context.Context, target models.TargetRef) (int64, error)
}

// SubscriptionRepository exposes data access for channel subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	FindBySubscriberAndChannel(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
	Delete(ctx context.Context, id string) error
}
