package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// maxVideoBytes bounds the multipart memory used for a single upload.
const maxVideoBytes = 512 << 20

// VideoHandler implements video publish, fetch, and view endpoints.
type VideoHandler struct {
	Videos   VideoStore
	Users    UserStore
	Media    MediaStorage
	Ingestor AssetIngestor
	NowFunc  func() time.Time
}

type videoResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ThumbnailURL string    `json:"thumbnail,omitempty"`
	AssetURL     string    `json:"videoFile,omitempty"`
	AssetStatus  string    `json:"assetStatus"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newVideoResponse(video models.Video) videoResponse {
	return videoResponse{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		ThumbnailURL: video.Thumbnail,
		AssetURL:     video.AssetURL,
		AssetStatus:  video.AssetStatus,
		Duration:     video.Duration,
		Views:        video.Views,
		CreatedAt:    video.CreatedAt,
	}
}

// Publish handles POST /api/v1/videos (multipart form). The thumbnail is
// stored synchronously; the video asset is handed to the ingest workers and
// becomes available once they finish.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.Videos == nil || h.Ingestor == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasIngestor", h.Ingestor != nil)
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxVideoBytes); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	assetFile, assetHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer assetFile.Close()

	assetData, err := io.ReadAll(assetFile)
	if err != nil {
		logger.Error("failed to read video upload", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read video upload")
		return
	}
	if len(assetData) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is empty")
		return
	}

	thumbnailURL, err := h.storeThumbnail(r)
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Title:       title,
		Description: description,
		Thumbnail:   thumbnailURL,
		AssetStatus: models.AssetStatusPending,
		CreatedAt:   h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("failed to create video", "error", err, "ownerId", owner.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	job := media.UploadJob{VideoID: video.ID, FileName: assetHeader.Filename, Data: assetData}
	if err := h.Ingestor.Enqueue(ctx, job); err != nil {
		logger.Error("failed to enqueue video asset", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusServiceUnavailable, "video ingestion is busy, try again later")
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, newVideoResponse(video), "video accepted for processing")
}

// Get handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logging.FromContext(ctx).Error("failed to load video", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video), "video fetched successfully")
}

// List handles GET /api/v1/videos: the caller's own uploads, newest first.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	videos, err := h.Videos.ListByOwner(ctx, owner.ID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list videos", "error", err, "ownerId", owner.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	responses := make([]videoResponse, 0, len(videos))
	for _, video := range videos {
		responses = append(responses, newVideoResponse(video))
	}

	respondJSON(ctx, w, http.StatusOK, responses, "videos fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId} (multipart form). Title and
// description replace the stored values; a thumbnail file, when present,
// replaces the stored object.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	video, ok := h.ownedVideo(w, r, owner.ID, "only the owner can edit a video")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}
	description := r.FormValue("description")

	thumbnailURL, err := h.storeThumbnail(r)
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	previousThumbnail := ""
	thumbnail := video.Thumbnail
	if thumbnailURL != "" {
		previousThumbnail = video.Thumbnail
		thumbnail = thumbnailURL
	}

	updated, err := h.Videos.UpdateDetails(ctx, video.ID, title, description, thumbnail)
	if err != nil {
		h.cleanupAssets(ctx, thumbnailURL)
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("failed to update video", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update video")
		return
	}

	h.cleanupAssets(ctx, previousThumbnail)

	respondJSON(ctx, w, http.StatusOK, newVideoResponse(updated), "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}. The row goes first so the
// video stops resolving immediately; storage objects are removed afterwards,
// best effort.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	video, ok := h.ownedVideo(w, r, owner.ID, "only the owner can delete a video")
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("failed to delete video", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	h.cleanupAssets(ctx, video.AssetURL, video.Thumbnail)

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// ownedVideo resolves the path's video and enforces that the caller owns it.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request, ownerID, denied string) (models.Video, bool) {
	ctx := r.Context()

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return models.Video{}, false
		}
		logging.FromContext(ctx).Error("failed to load video", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return models.Video{}, false
	}

	if video.OwnerID != ownerID {
		respondError(ctx, w, http.StatusUnauthorized, denied)
		return models.Video{}, false
	}

	return video, true
}

// cleanupAssets removes storage objects left behind by an update or delete.
// Failures are logged and swallowed; the row change already landed.
func (h VideoHandler) cleanupAssets(ctx context.Context, locations ...string) {
	if h.Media == nil {
		return
	}

	logger := logging.FromContext(ctx)
	for _, location := range locations {
		if location == "" {
			continue
		}
		if err := h.Media.Delete(ctx, location); err != nil {
			logger.Warn("cleanup video asset failed", "location", location, "error", err)
		}
	}
}

// View handles POST /api/v1/videos/{videoId}/view: bumps the view counter and
// records the video in the caller's watch history.
func (h VideoHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	video, err := h.Videos.IncrementViews(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("failed to record view", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to record view")
		return
	}

	if err := h.Users.AppendWatchHistory(ctx, viewer.ID, videoID); err != nil {
		// The view already counted; history is secondary.
		logger.Warn("failed to append watch history", "error", err, "userId", viewer.ID, "videoId", videoID)
	}

	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video), "view recorded")
}

func (h VideoHandler) storeThumbnail(r *http.Request) (string, error) {
	if h.Media == nil {
		return "", nil
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read thumbnail: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("thumbnails/%s/%s", uuid.NewString(), header.Filename)
	location, err := h.Media.Save(r.Context(), key, file)
	if err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}

	return location, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
