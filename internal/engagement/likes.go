package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

var (
	// ErrAlreadyLiked indicates the owner already holds a like against the target.
	ErrAlreadyLiked = errors.New("target already liked")
	// ErrNotOwner indicates the actor is authenticated but does not own the record.
	ErrNotOwner = errors.New("engagement not owned by actor")
)

// LikeStore is the persistence contract the like service works against.
type LikeStore interface {
	Create(ctx context.Context, like models.Like) error
	FindByID(ctx context.Context, id string) (models.Like, error)
	FindByOwnerAndTarget(ctx context.Context, ownerID string, target models.TargetRef) (models.Like, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}

// LikeCounter counts likes per target. Split from LikeStore so the count path
// can be wrapped with a cache.
type LikeCounter interface {
	CountForTarget(ctx context.Context, target models.TargetRef) (int64, error)
}

// Likes enforces the engagement rules for likes: targets must exist, an owner
// may hold at most one like per target, and only the owner may remove it.
type Likes struct {
	resolver *Resolver
	store    LikeStore
	counter  LikeCounter

	nowFunc func() time.Time
}

// NewLikes constructs the like service.
func NewLikes(resolver *Resolver, store LikeStore, counter LikeCounter) *Likes {
	if resolver == nil || store == nil {
		panic("engagement: likes require a resolver and a store")
	}
	if counter == nil {
		c, ok := store.(LikeCounter)
		if !ok {
			panic("engagement: likes require a counter")
		}
		counter = c
	}
	return &Likes{resolver: resolver, store: store, counter: counter}
}

// Like records that owner liked the (kind, id) target. The existence query is
// a fast path only; the store's uniqueness constraint decides races, so a
// conflicting insert also reports ErrAlreadyLiked.
func (s *Likes) Like(ctx context.Context, ownerID string, kind models.TargetKind, id string) (models.Like, error) {
	target, err := s.resolver.Resolve(ctx, kind, id)
	if err != nil {
		return models.Like{}, err
	}

	if _, err := s.store.FindByOwnerAndTarget(ctx, ownerID, target); err == nil {
		return models.Like{}, ErrAlreadyLiked
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.Like{}, fmt.Errorf("check existing like: %w", err)
	}

	like := models.Like{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Target:    target,
		CreatedAt: s.now(),
	}

	if err := s.store.Create(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Like{}, ErrAlreadyLiked
		}
		return models.Like{}, fmt.Errorf("create like: %w", err)
	}

	// Re-read what was written; a miss here means the store lost the record.
	created, err := s.store.FindByID(ctx, like.ID)
	if err != nil {
		return models.Like{}, fmt.Errorf("verify created like: %w", err)
	}

	s.invalidateCount(target)

	return created, nil
}

// Unlike removes a like. Only the owner may do so; the delete is scoped by
// both id and owner so a stale initial read cannot remove someone else's like.
func (s *Likes) Unlike(ctx context.Context, ownerID, likeID string) error {
	like, err := s.store.FindByID(ctx, likeID)
	if err != nil {
		return err
	}

	if like.OwnerID != ownerID {
		return ErrNotOwner
	}

	if err := s.store.DeleteByIDAndOwner(ctx, likeID, ownerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotOwner
		}
		return fmt.Errorf("delete like: %w", err)
	}

	s.invalidateCount(like.Target)

	return nil
}

// Count returns the number of likes held against the (kind, id) target.
func (s *Likes) Count(ctx context.Context, kind models.TargetKind, id string) (int64, error) {
	target, err := s.resolver.Resolve(ctx, kind, id)
	if err != nil {
		return 0, err
	}

	count, err := s.counter.CountForTarget(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// Status reports whether the owner currently holds a like against the target.
func (s *Likes) Status(ctx context.Context, ownerID string, kind models.TargetKind, id string) (bool, error) {
	target, err := s.resolver.Resolve(ctx, kind, id)
	if err != nil {
		return false, err
	}

	if _, err := s.store.FindByOwnerAndTarget(ctx, ownerID, target); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check like status: %w", err)
	}

	return true, nil
}

func (s *Likes) invalidateCount(target models.TargetRef) {
	if inv, ok := s.counter.(interface{ Invalidate(models.TargetRef) }); ok {
		inv.Invalidate(target)
	}
}

func (s *Likes) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
