package handlers

import (
	"context"
	"io"

	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
)

// UserStore captures the account persistence required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, location string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, location string) (models.User, error)
	AppendWatchHistory(ctx context.Context, id, videoID string) error
	Delete(ctx context.Context, id string) error
}

// SessionManager issues, validates, rotates, and revokes credential pairs.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.TokenPair, error)
	Validate(ctx context.Context, accessToken string) (models.User, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

// VideoStore captures video persistence for the upload and management flows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnail string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (models.Video, error)
}

// TweetStore captures tweet persistence for the post/edit/delete flows.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// LikeService is the engagement authority for likes.
type LikeService interface {
	Like(ctx context.Context, ownerID string, kind models.TargetKind, id string) (models.Like, error)
	Unlike(ctx context.Context, ownerID, likeID string) error
	Count(ctx context.Context, kind models.TargetKind, id string) (int64, error)
	Status(ctx context.Context, ownerID string, kind models.TargetKind, id string) (bool, error)
}

// CommentService is the engagement authority for attaching comments.
type CommentService interface {
	CommentOn(ctx context.Context, ownerID string, kind models.TargetKind, id, content string) (models.Comment, error)
	Edit(ctx context.Context, ownerID, commentID, content string) (models.Comment, error)
	Delete(ctx context.Context, ownerID, commentID string) error
}

// SubscriptionStore captures subscription persistence.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	FindBySubscriberAndChannel(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// MediaStorage persists uploaded media objects synchronously.
type MediaStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// AssetIngestor schedules background persistence of video files.
type AssetIngestor interface {
	Enqueue(ctx context.Context, job media.UploadJob) error
}
