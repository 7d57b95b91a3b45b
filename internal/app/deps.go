package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/config"
	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/engagement"
	"github.com/cliptube/backend/internal/handlers"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/middleware"
	"github.com/cliptube/backend/internal/repositories"
	"github.com/cliptube/backend/internal/storage"
)

// buildDependencies assembles the repository, service, and infrastructure
// graph behind the HTTP handlers. The returned cleanup drains the background
// ingest workers and must run before the process exits.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(), error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)

	tokens := auth.NewTokenManager(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	sessions := auth.NewService(users, tokens)

	resolver := engagement.NewResolver(videos, tweets, comments)
	likeCounter := engagement.NewCachingCounter(likes, cfg.LikeCountCacheTTL)
	likeService := engagement.NewLikes(resolver, likes, likeCounter)
	commentService := engagement.NewComments(resolver, comments)

	objectStore, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
	}

	ingestor := media.NewIngestor(objectStore, videos, media.IngestorConfig{
		QueueSize: cfg.IngestQueueSize,
		Workers:   cfg.IngestWorkers,
	}, logger)

	limiter := middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ingestor.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ingestor shutdown incomplete", "error", err)
		}
	}

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Videos:        videos,
		Tweets:        tweets,
		Likes:         likeService,
		Comments:      commentService,
		Subscriptions: subscriptions,
		Media:         objectStore,
		Ingestor:      ingestor,
		Limiter:       limiter,
		SecureCookies: cfg.IsProduction(),
	}, cleanup, nil
}
