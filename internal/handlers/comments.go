package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cliptube/backend/internal/engagement"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// CommentHandler exposes the comment endpoints on top of the engagement
// service, which owns target resolution and ownership checks.
type CommentHandler struct {
	Comments CommentService
}

type commentResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Content    string    `json:"content"`
	TargetKind string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newCommentResponse(comment models.Comment) commentResponse {
	return commentResponse{
		ID:         comment.ID,
		OwnerID:    comment.OwnerID,
		Content:    comment.Content,
		TargetKind: string(comment.Target.Kind),
		TargetID:   comment.Target.ID,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/comments/{targetType}/{targetId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Comments.CommentOn(ctx, owner.ID, kind, targetID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrEmptyContent):
			respondError(ctx, w, http.StatusBadRequest, "content is required")
		case errors.Is(err, engagement.ErrInvalidTarget):
			respondError(ctx, w, http.StatusBadRequest, "comments can only target videos or tweets")
		case errors.Is(err, engagement.ErrTargetNotFound):
			respondError(ctx, w, http.StatusNotFound, "comment target not found")
		default:
			logger.Error("failed to create comment", "error", err, "targetType", kind, "targetId", targetID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create comment")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newCommentResponse(comment), "comment added successfully")
}

// Update handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	commentID := r.PathValue("commentId")
	if commentID == "" {
		respondError(ctx, w, http.StatusBadRequest, "commentId is required")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Comments.Edit(ctx, owner.ID, commentID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrEmptyContent):
			respondError(ctx, w, http.StatusBadRequest, "content is required")
		case errors.Is(err, engagement.ErrNotOwner):
			respondError(ctx, w, http.StatusUnauthorized, "only the owner can edit a comment")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "comment not found")
		default:
			logger.Error("failed to update comment", "error", err, "commentId", commentID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to update comment")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, newCommentResponse(comment), "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	commentID := r.PathValue("commentId")
	if commentID == "" {
		respondError(ctx, w, http.StatusBadRequest, "commentId is required")
		return
	}

	if err := h.Comments.Delete(ctx, owner.ID, commentID); err != nil {
		switch {
		case errors.Is(err, engagement.ErrNotOwner):
			respondError(ctx, w, http.StatusUnauthorized, "only the owner can delete a comment")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "comment not found")
		default:
			logger.Error("failed to delete comment", "error", err, "commentId", commentID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to delete comment")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}
