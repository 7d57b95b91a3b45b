package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// SubscriptionHandler implements channel subscribe and unsubscribe.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
	NowFunc       func() time.Time
}

type subscriptionResponse struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type channelProfileResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullname"`
	Avatar       string `json:"avatar,omitempty"`
	CoverImage   string `json:"coverImage,omitempty"`
	Subscribers  int64  `json:"subscribersCount"`
	SubscribedTo int64  `json:"channelsSubscribedToCount"`
	IsSubscribed bool   `json:"isSubscribed"`
}

// Subscribe handles POST /api/v1/subscriptions/{channelUsername}.
func (h SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	subscriber, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	channel, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	if channel.ID == subscriber.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
		CreatedAt:    h.now(),
	}

	if err := h.Subscriptions.Create(ctx, sub); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "already subscribed to this channel")
			return
		}
		logger.Error("failed to create subscription", "error", err, "channelId", channel.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, subscriptionResponse{
		ID:           sub.ID,
		SubscriberID: sub.SubscriberID,
		ChannelID:    sub.ChannelID,
		CreatedAt:    sub.CreatedAt,
	}, "subscribed successfully")
}

// Unsubscribe handles DELETE /api/v1/subscriptions/{channelUsername}.
func (h SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	subscriber, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	channel, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	sub, err := h.Subscriptions.FindBySubscriberAndChannel(ctx, subscriber.ID, channel.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "subscription not found")
			return
		}
		logger.Error("failed to load subscription", "error", err, "channelId", channel.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	if err := h.Subscriptions.Delete(ctx, sub.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("failed to delete subscription", "error", err, "subscriptionId", sub.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "unsubscribed successfully")
}

// Profile handles GET /api/v1/channels/{channelUsername}: the channel's public
// fields plus its subscription counts and whether the caller subscribes to it.
func (h SubscriptionHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := currentUser(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	channel, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	subscribers, err := h.Subscriptions.CountForChannel(ctx, channel.ID)
	if err != nil {
		logger.Error("failed to count subscribers", "error", err, "channelId", channel.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel profile")
		return
	}

	subscribedTo, err := h.Subscriptions.CountForSubscriber(ctx, channel.ID)
	if err != nil {
		logger.Error("failed to count subscribed channels", "error", err, "channelId", channel.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel profile")
		return
	}

	isSubscribed := false
	if viewer.ID != channel.ID {
		if _, err := h.Subscriptions.FindBySubscriberAndChannel(ctx, viewer.ID, channel.ID); err == nil {
			isSubscribed = true
		} else if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("failed to check subscription", "error", err, "channelId", channel.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to load channel profile")
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, channelProfileResponse{
		ID:           channel.ID,
		Username:     channel.Username,
		FullName:     channel.FullName,
		Avatar:       channel.Avatar,
		CoverImage:   channel.CoverImage,
		Subscribers:  subscribers,
		SubscribedTo: subscribedTo,
		IsSubscribed: isSubscribed,
	}, "channel profile fetched successfully")
}

func (h SubscriptionHandler) lookupChannel(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("channelUsername")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "channelUsername is required")
		return models.User{}, false
	}

	channel, err := h.Users.FindByUsernameOrEmail(ctx, username, "")
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel not found")
			return models.User{}, false
		}
		logging.FromContext(ctx).Error("failed to load channel", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return models.User{}, false
	}

	return channel, true
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
