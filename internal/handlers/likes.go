package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cliptube/backend/internal/engagement"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// LikeHandler exposes the like endpoints on top of the engagement service.
type LikeHandler struct {
	Likes LikeService
}

type likeResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	TargetKind string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newLikeResponse(like models.Like) likeResponse {
	return likeResponse{
		ID:         like.ID,
		OwnerID:    like.OwnerID,
		TargetKind: string(like.Target.Kind),
		TargetID:   like.Target.ID,
		CreatedAt:  like.CreatedAt,
	}
}

// targetFromPath extracts and validates the {targetType}/{targetId} path
// segments shared by the like and comment routes. On failure it writes the
// error response and reports false.
func targetFromPath(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.TargetKind, string, bool) {
	kind, err := engagement.ParseTargetKind(r.PathValue("targetType"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "targetType must be video, tweet, or comment")
		return "", "", false
	}

	targetID := r.PathValue("targetId")
	if targetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "targetId is required")
		return "", "", false
	}

	return kind, targetID, true
}

// Create handles POST /api/v1/likes/{targetType}/{targetId}.
func (h LikeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	kind, targetID, ok := targetFromPath(ctx, w, r)
	if !ok {
		return
	}

	like, err := h.Likes.Like(ctx, owner.ID, kind, targetID)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrAlreadyLiked):
			respondError(ctx, w, http.StatusConflict, "target already liked")
		case errors.Is(err, engagement.ErrInvalidTarget):
			respondError(ctx, w, http.StatusBadRequest, "targetType must be video, tweet, or comment")
		case errors.Is(err, engagement.ErrTargetNotFound):
			respondError(ctx, w, http.StatusNotFound, "like target not found")
		default:
			logger.Error("failed to create like", "error", err, "targetType", kind, "targetId", targetID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create like")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newLikeResponse(like), "like recorded successfully")
}

// Delete handles DELETE /api/v1/likes/{likeId}.
func (h LikeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	likeID := r.PathValue("likeId")
	if likeID == "" {
		respondError(ctx, w, http.StatusBadRequest, "likeId is required")
		return
	}

	if err := h.Likes.Unlike(ctx, owner.ID, likeID); err != nil {
		switch {
		case errors.Is(err, engagement.ErrNotOwner):
			respondError(ctx, w, http.StatusUnauthorized, "only the owner can remove a like")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "like not found")
		default:
			logger.Error("failed to remove like", "error", err, "likeId", likeID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to remove like")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "like removed successfully")
}

// Count handles GET /api/v1/likes/{targetType}/{targetId}/count. Public.
func (h LikeHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, targetID, ok := targetFromPath(ctx, w, r)
	if !ok {
		return
	}

	count, err := h.Likes.Count(ctx, kind, targetID)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrInvalidTarget):
			respondError(ctx, w, http.StatusBadRequest, "targetType must be video, tweet, or comment")
		case errors.Is(err, engagement.ErrTargetNotFound):
			respondError(ctx, w, http.StatusNotFound, "like target not found")
		default:
			logging.FromContext(ctx).Error("failed to count likes", "error", err, "targetType", kind, "targetId", targetID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to count likes")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int64{"count": count}, "like count fetched successfully")
}

// Status handles GET /api/v1/likes/{targetType}/{targetId}/status. Reports
// whether the authenticated caller has liked the target.
func (h LikeHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	kind, targetID, ok := targetFromPath(ctx, w, r)
	if !ok {
		return
	}

	liked, err := h.Likes.Status(ctx, owner.ID, kind, targetID)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrInvalidTarget):
			respondError(ctx, w, http.StatusBadRequest, "targetType must be video, tweet, or comment")
		case errors.Is(err, engagement.ErrTargetNotFound):
			respondError(ctx, w, http.StatusNotFound, "like target not found")
		default:
			logging.FromContext(ctx).Error("failed to check like status", "error", err, "targetType", kind, "targetId", targetID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to check like status")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked}, "like status fetched successfully")
}
