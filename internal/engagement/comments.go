package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// ErrEmptyContent indicates a comment body with no usable text.
var ErrEmptyContent = errors.New("content cannot be empty")

// CommentStore is the persistence contract the comment service works against.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// Comments enforces the engagement rules for attaching comments: the target
// must exist and be a video or tweet, and only the owner may edit or delete.
type Comments struct {
	resolver *Resolver
	store    CommentStore

	nowFunc func() time.Time
}

// NewComments constructs the comment service.
func NewComments(resolver *Resolver, store CommentStore) *Comments {
	if resolver == nil || store == nil {
		panic("engagement: comments require a resolver and a store")
	}
	return &Comments{resolver: resolver, store: store}
}

// CommentOn attaches a comment to the (kind, id) target. The kind is implied
// by the route that was invoked and must be video or tweet; comments never
// attach to other comments.
func (s *Comments) CommentOn(ctx context.Context, ownerID string, kind models.TargetKind, id, content string) (models.Comment, error) {
	if kind != models.TargetVideo && kind != models.TargetTweet {
		return models.Comment{}, fmt.Errorf("%w: comments cannot target %q", ErrInvalidTarget, kind)
	}
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, ErrEmptyContent
	}

	target, err := s.resolver.Resolve(ctx, kind, id)
	if err != nil {
		return models.Comment{}, err
	}

	now := s.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   content,
		Target:    target,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	created, err := s.store.FindByID(ctx, comment.ID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("verify created comment: %w", err)
	}

	return created, nil
}

// Edit replaces a comment's text. Only the stored owner may edit.
func (s *Comments) Edit(ctx context.Context, ownerID, commentID, content string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, ErrEmptyContent
	}

	comment, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, err
	}

	if comment.OwnerID != ownerID {
		return models.Comment{}, ErrNotOwner
	}

	updated, err := s.store.UpdateContent(ctx, commentID, content)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return updated, nil
}

// Delete removes a comment. Only the stored owner may delete.
func (s *Comments) Delete(ctx context.Context, ownerID, commentID string) error {
	comment, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.OwnerID != ownerID {
		return ErrNotOwner
	}

	if err := s.store.Delete(ctx, commentID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("delete comment: %w", err)
	}

	return nil
}

func (s *Comments) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
