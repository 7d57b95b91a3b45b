package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

var (
	// ErrInvalidTarget indicates the type tag is not one of video, tweet, or comment.
	ErrInvalidTarget = errors.New("invalid engagement target type")
	// ErrTargetNotFound indicates the referenced content entity does not exist.
	ErrTargetNotFound = errors.New("engagement target not found")
)

// VideoFinder confirms video existence for target resolution.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// TweetFinder confirms tweet existence for target resolution.
type TweetFinder interface {
	FindByID(ctx context.Context, id string) (models.Tweet, error)
}

// CommentFinder confirms comment existence for target resolution.
type CommentFinder interface {
	FindByID(ctx context.Context, id string) (models.Comment, error)
}

// ParseTargetKind maps a request type tag onto a TargetKind.
func ParseTargetKind(tag string) (models.TargetKind, error) {
	kind := models.TargetKind(tag)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, tag)
	}
	return kind, nil
}

// Resolver maps a (kind, id) pair onto a confirmed target reference by
// dispatching to the matching content store's existence check.
type Resolver struct {
	videos   VideoFinder
	tweets   TweetFinder
	comments CommentFinder
}

// NewResolver constructs a Resolver over the three content stores.
func NewResolver(videos VideoFinder, tweets TweetFinder, comments CommentFinder) *Resolver {
	if videos == nil || tweets == nil || comments == nil {
		panic("engagement: resolver requires all three content stores")
	}
	return &Resolver{videos: videos, tweets: tweets, comments: comments}
}

// Resolve confirms the target exists and returns its tagged reference. The
// switch is exhaustive over the tag; an unrecognized kind never reaches a
// store.
func (r *Resolver) Resolve(ctx context.Context, kind models.TargetKind, id string) (models.TargetRef, error) {
	if id == "" {
		return models.TargetRef{}, fmt.Errorf("%w: empty id", ErrTargetNotFound)
	}

	var err error
	switch kind {
	case models.TargetVideo:
		_, err = r.videos.FindByID(ctx, id)
	case models.TargetTweet:
		_, err = r.tweets.FindByID(ctx, id)
	case models.TargetComment:
		_, err = r.comments.FindByID(ctx, id)
	default:
		return models.TargetRef{}, fmt.Errorf("%w: %q", ErrInvalidTarget, kind)
	}

	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TargetRef{}, fmt.Errorf("%w: %s %s", ErrTargetNotFound, kind, id)
		}
		return models.TargetRef{}, fmt.Errorf("resolve %s %s: %w", kind, id, err)
	}

	return models.TargetRef{Kind: kind, ID: id}, nil
}
