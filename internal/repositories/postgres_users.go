package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, full_name, avatar, cover_image, watch_history, refresh_token, created_at, updated_at`

// Create persists a new account record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	watchHistory := user.WatchHistory
	if watchHistory == nil {
		watchHistory = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, full_name, avatar, cover_image, watch_history, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.Password, user.FullName, user.Avatar, user.CoverImage, watchHistory, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE id = $1
    `, id)

	return scanUser(row)
}

// FindByUsernameOrEmail fetches the account matching either identifier.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username = $1 OR email = $2
    `, username, email)

	return scanUser(row)
}

// SetRefreshToken overwrites the account's single refresh slot. An empty token
// clears it.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2, updated_at = NOW()
        WHERE id = $1
    `, id, token)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateDetails replaces the account's full name and email and returns the
// updated record. An email already claimed by another account surfaces as
// ErrConflict.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, id, fullName, email)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, err
	}

	return user, nil
}

// UpdateAvatar replaces the stored avatar location and returns the updated
// record.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, location string) (models.User, error) {
	return r.updateImage(ctx, id, "avatar", location)
}

// UpdateCoverImage replaces the stored cover image location and returns the
// updated record.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, location string) (models.User, error) {
	return r.updateImage(ctx, id, "cover_image", location)
}

func (r *PostgresUserRepository) updateImage(ctx context.Context, id, column, location string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is one of two fixed identifiers, never caller input.
	row := conn.QueryRow(ctx, `
        UPDATE users
        SET `+column+` = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, id, location)

	return scanUser(row)
}

// AppendWatchHistory appends a video id to the account's watch history unless
// it is already present. The list preserves insertion order.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, id, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET watch_history = array_append(watch_history, $2), updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(watch_history))
    `, id, videoID)
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}

	// Zero rows means either a missing account or an already-watched video;
	// distinguish so callers can treat the latter as a no-op.
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes an account. Used as compensating cleanup when registration
// fails downstream.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM users
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.FullName,
		&user.Avatar, &user.CoverImage, &user.WatchHistory, &user.RefreshToken,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
