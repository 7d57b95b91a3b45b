package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// targetColumns maps a tagged target reference onto the three nullable
// foreign-key columns engagements are persisted with. Exactly one is non-nil.
func targetColumns(target models.TargetRef) (videoID, tweetID, commentID *string, err error) {
	switch target.Kind {
	case models.TargetVideo:
		return &target.ID, nil, nil, nil
	case models.TargetTweet:
		return nil, &target.ID, nil, nil
	case models.TargetComment:
		return nil, nil, &target.ID, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown target kind %q", target.Kind)
	}
}

// targetFromColumns rebuilds the tagged reference from the persisted columns.
func targetFromColumns(videoID, tweetID, commentID sql.NullString) (models.TargetRef, error) {
	switch {
	case videoID.Valid:
		return models.TargetRef{Kind: models.TargetVideo, ID: videoID.String}, nil
	case tweetID.Valid:
		return models.TargetRef{Kind: models.TargetTweet, ID: tweetID.String}, nil
	case commentID.Valid:
		return models.TargetRef{Kind: models.TargetComment, ID: commentID.String}, nil
	default:
		return models.TargetRef{}, errors.New("engagement row has no target reference")
	}
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a new comment record.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	videoID, tweetID, _, err := targetColumns(comment.Target)
	if err != nil {
		return err
	}
	if comment.Target.Kind == models.TargetComment {
		return errors.New("comments cannot target other comments")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, owner_id, content, video_id, tweet_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, comment.ID, comment.OwnerID, comment.Content, videoID, tweetID, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a comment by its identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, content, video_id, tweet_id, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id)

	return scanComment(row)
}

// UpdateContent replaces a comment's text and returns the updated record.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING id, owner_id, content, video_id, tweet_id, created_at, updated_at
    `, id, content)

	return scanComment(row)
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM comments
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var (
		comment models.Comment
		videoID sql.NullString
		tweetID sql.NullString
	)
	if err := row.Scan(&comment.ID, &comment.OwnerID, &comment.Content, &videoID, &tweetID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("scan comment: %w", err)
	}

	target, err := targetFromColumns(videoID, tweetID, sql.NullString{})
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment %s: %w", comment.ID, err)
	}
	comment.Target = target

	return comment, nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Create stores a new like record. The partial unique indexes on
// (owner_id, video_id|tweet_id|comment_id) make a duplicate like surface as
// ErrConflict regardless of what any racing pre-check observed.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	videoID, tweetID, commentID, err := targetColumns(like.Target)
	if err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, owner_id, video_id, tweet_id, comment_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, like.ID, like.OwnerID, videoID, tweetID, commentID, like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// FindByID fetches a like by its identifier.
func (r *PostgresLikeRepository) FindByID(ctx context.Context, id string) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, video_id, tweet_id, comment_id, created_at
        FROM likes
        WHERE id = $1
    `, id)

	return scanLike(row)
}

// FindByOwnerAndTarget fetches the like an owner holds against a target, if any.
func (r *PostgresLikeRepository) FindByOwnerAndTarget(ctx context.Context, ownerID string, target models.TargetRef) (models.Like, error) {
	videoID, tweetID, commentID, err := targetColumns(target)
	if err != nil {
		return models.Like{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, video_id, tweet_id, comment_id, created_at
        FROM likes
        WHERE owner_id = $1
          AND video_id IS NOT DISTINCT FROM $2
          AND tweet_id IS NOT DISTINCT FROM $3
          AND comment_id IS NOT DISTINCT FROM $4
    `, ownerID, videoID, tweetID, commentID)

	return scanLike(row)
}

// DeleteByIDAndOwner removes a like only when both the id and the owner match.
// Scoping the delete by owner guards against acting on a stale read.
func (r *PostgresLikeRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountForTarget counts the likes held against a target.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, target models.TargetRef) (int64, error) {
	videoID, tweetID, commentID, err := targetColumns(target)
	if err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM likes
        WHERE video_id IS NOT DISTINCT FROM $1
          AND tweet_id IS NOT DISTINCT FROM $2
          AND comment_id IS NOT DISTINCT FROM $3
    `, videoID, tweetID, commentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

func scanLike(row pgx.Row) (models.Like, error) {
	var (
		like      models.Like
		videoID   sql.NullString
		tweetID   sql.NullString
		commentID sql.NullString
	)
	if err := row.Scan(&like.ID, &like.OwnerID, &videoID, &tweetID, &commentID, &like.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("scan like: %w", err)
	}

	target, err := targetFromColumns(videoID, tweetID, commentID)
	if err != nil {
		return models.Like{}, fmt.Errorf("like %s: %w", like.ID, err)
	}
	like.Target = target

	return like, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create stores a new subscription record.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// FindBySubscriberAndChannel fetches the subscription linking two accounts.
func (r *PostgresSubscriptionRepository) FindBySubscriberAndChannel(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)

	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}

	return sub, nil
}

// CountForChannel reports how many accounts subscribe to the given channel.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, "channel_id", channelID)
}

// CountForSubscriber reports how many channels the given account subscribes to.
func (r *PostgresSubscriptionRepository) CountForSubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, "subscriber_id", subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, column, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is one of two fixed identifiers, never caller input.
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM subscriptions
        WHERE `+column+` = $1
    `, id)

	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}

	return total, nil
}

// Delete removes a subscription.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
