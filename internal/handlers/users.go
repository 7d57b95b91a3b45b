package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// maxAvatarBytes bounds the multipart memory used for profile image uploads.
const maxAvatarBytes = 8 << 20

// UserHandler implements registration, login, and account endpoints.
type UserHandler struct {
	Users         UserStore
	Sessions      SessionManager
	Media         MediaStorage
	Limiter       RateLimiter
	SecureCookies bool
	NowFunc       func() time.Time
}

type userResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullname"`
	Avatar       string    `json:"avatar,omitempty"`
	CoverImage   string    `json:"coverImage,omitempty"`
	WatchHistory []string  `json:"watchHistory,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		WatchHistory: user.WatchHistory,
		CreatedAt:    user.CreatedAt,
	}
}

type loginResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register (multipart form).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	fullname := strings.TrimSpace(r.FormValue("fullname"))
	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	if fullname == "" || username == "" || email == "" || password == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname, username, email and password are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("registration invalid email", "email", email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(password) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		respondError(ctx, w, http.StatusConflict, "account with given username or email already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("registration lookup failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	avatarURL, err := h.storeFormImage(r, "avatar")
	if err != nil {
		logger.Error("avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}

	coverURL, err := h.storeFormImage(r, "coverImage")
	if err != nil {
		logger.Error("cover image upload failed", "error", err)
		h.cleanupMedia(r, avatarURL)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload cover image")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("registration failed to hash password", "error", err)
		h.cleanupMedia(r, avatarURL, coverURL)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		Password:   string(hashed),
		FullName:   fullname,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.cleanupMedia(r, avatarURL, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "account with given username or email already exists")
			return
		}
		logger.Error("registration failed to create user", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		// The row never landed or vanished immediately; undo what we can.
		logger.Error("registration post-create verification failed", "error", err, "userId", user.ID)
		if delErr := h.Users.Delete(ctx, user.ID); delErr != nil && !errors.Is(delErr, repositories.ErrNotFound) {
			logger.Error("registration cleanup failed", "error", delErr, "userId", user.ID)
		}
		h.cleanupMedia(r, avatarURL, coverURL)
		respondError(ctx, w, http.StatusInternalServerError, "something went wrong while registering the account")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newUserResponse(created), "account registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if (req.Username == "" && req.Email == "") || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email, and password are required")
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "username", req.Username, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue credentials", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, pair, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		User:         newUserResponse(user.Redacted()),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "logged in successfully")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh credential is
// read from the cookie slot, falling back to the request body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many refresh attempts")
		return
	}

	token := refreshTokenFrom(r)
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	if token == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token not found")
		return
	}

	pair, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("refresh token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	setAuthCookies(w, pair, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed successfully")
}

// Logout handles POST /api/v1/users/logout. Requires authentication.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Sessions.Logout(ctx, user.ID); err != nil {
		logger.Error("logout failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "logged out successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	// The middleware redacts the hash, so reload the full record.
	stored, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("change password lookup failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("change password hash failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		logger.Error("change password update failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// Details handles GET /api/v1/users/me.
func (h UserHandler) Details(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newUserResponse(user), "user data fetched successfully")
}

// UpdateDetails handles PATCH /api/v1/users/me.
func (h UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	fullname := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullname == "" || email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname and email are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	updated, err := h.Users.UpdateDetails(ctx, user.ID, fullname, email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "account with given email already exists")
			return
		}
		logger.Error("account details update failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update account details")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newUserResponse(updated), "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart form).
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "avatar", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (multipart form).
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "coverImage", h.Users.UpdateCoverImage)
}

// updateProfileImage stores a replacement profile image, records its location,
// and then removes the previous object. The old object is only deleted once
// the account row points at the new one.
func (h UserHandler) updateProfileImage(w http.ResponseWriter, r *http.Request, field string, update func(ctx context.Context, id, location string) (models.User, error)) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.Media == nil {
		logger.Error("media storage unavailable", "field", field)
		respondError(ctx, w, http.StatusInternalServerError, "media storage unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	location, err := h.storeFormImage(r, field)
	if err != nil {
		logger.Error("profile image upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload image")
		return
	}
	if location == "" {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("%s file is required", field))
		return
	}

	previous := user.Avatar
	if field == "coverImage" {
		previous = user.CoverImage
	}

	updated, err := update(ctx, user.ID, location)
	if err != nil {
		h.cleanupMedia(r, location)
		logger.Error("profile image update failed", "field", field, "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update image")
		return
	}

	if previous != "" {
		h.cleanupMedia(r, previous)
	}

	respondJSON(ctx, w, http.StatusOK, newUserResponse(updated), fmt.Sprintf("%s updated successfully", field))
}

// WatchHistory handles GET /api/v1/users/watch-history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	history := user.WatchHistory
	if history == nil {
		history = []string{}
	}

	respondJSON(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// storeFormImage uploads an optional image field to media storage; a missing
// field is not an error.
func (h UserHandler) storeFormImage(r *http.Request, field string) (string, error) {
	if h.Media == nil {
		return "", nil
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read form file %s: %w", field, err)
	}
	defer file.Close()

	key := fmt.Sprintf("profiles/%s/%s", uuid.NewString(), header.Filename)
	location, err := h.Media.Save(r.Context(), key, file)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", field, err)
	}

	return location, nil
}

// cleanupMedia removes uploaded objects after a failed registration. Cleanup
// is best effort: its own failures are logged and swallowed because the
// primary error already dominates.
func (h UserHandler) cleanupMedia(r *http.Request, locations ...string) {
	if h.Media == nil {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	for _, location := range locations {
		if location == "" {
			continue
		}
		if err := h.Media.Delete(ctx, location); err != nil {
			logger.Warn("cleanup uploaded media failed", "location", location, "error", err)
		}
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateDetailsRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
