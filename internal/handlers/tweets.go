package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// maxTweetLength counts characters, matching the char_length CHECK on the
// tweets table.
const maxTweetLength = 280

// TweetHandler implements the short-post endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

type tweetResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTweetResponse(tweet models.Tweet) tweetResponse {
	return tweetResponse{
		ID:        tweet.ID,
		OwnerID:   tweet.OwnerID,
		Content:   tweet.Content,
		CreatedAt: tweet.CreatedAt,
		UpdatedAt: tweet.UpdatedAt,
	}
}

type tweetRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}
	if utf8.RuneCountInString(content) > maxTweetLength {
		respondError(ctx, w, http.StatusBadRequest, "content exceeds maximum length")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		logger.Error("failed to create tweet", "error", err, "ownerId", owner.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create tweet")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newTweetResponse(tweet), "tweet created successfully")
}

// Get handles GET /api/v1/tweets/{tweetId}.
func (h TweetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweetID := r.PathValue("tweetId")
	if tweetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweetId is required")
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return
		}
		logging.FromContext(ctx).Error("failed to load tweet", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newTweetResponse(tweet), "tweet fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}. Only the owner may edit.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tweetID := r.PathValue("tweetId")
	if tweetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweetId is required")
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}
	if utf8.RuneCountInString(content) > maxTweetLength {
		respondError(ctx, w, http.StatusBadRequest, "content exceeds maximum length")
		return
	}

	existing, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return
		}
		logger.Error("failed to load tweet", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load tweet")
		return
	}

	if existing.OwnerID != owner.ID {
		respondError(ctx, w, http.StatusUnauthorized, "only the owner can edit a tweet")
		return
	}

	updated, err := h.Tweets.UpdateContent(ctx, tweetID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return
		}
		logger.Error("failed to update tweet", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newTweetResponse(updated), "tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}. Only the owner may delete.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tweetID := r.PathValue("tweetId")
	if tweetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweetId is required")
		return
	}

	existing, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return
		}
		logger.Error("failed to load tweet", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load tweet")
		return
	}

	if existing.OwnerID != owner.ID {
		respondError(ctx, w, http.StatusUnauthorized, "only the owner can delete a tweet")
		return
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("failed to delete tweet", "error", err, "tweetId", tweetID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "tweet deleted successfully")
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
