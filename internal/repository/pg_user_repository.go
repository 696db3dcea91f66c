package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"vidstream-server/internal/models"
)

const uniqueViolationCode = "23505"
const foreignKeyViolationCode = "23503"

const userColumns = `id, username, email, full_name, password_hash,
	COALESCE(avatar_url, ''), COALESCE(cover_url, ''), COALESCE(refresh_token, ''),
	created_at, updated_at`

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db DBTX, logger *zap.Logger) UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverURL, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new account row.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, full_name, password_hash, avatar_url, cover_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", user.Username), zap.String("email", user.Email))
	err := r.db.QueryRow(ctx, query, user.Username, user.Email, user.FullName, user.PasswordHash, user.AvatarURL, user.CoverURL).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			logFields := []zap.Field{zap.String("username", user.Username), zap.String("email", user.Email)}
			if strings.Contains(pgErr.ConstraintName, "email") {
				r.logger.Warn("Attempted to create duplicate user by email", logFields...)
				return models.ErrEmailAlreadyExists
			}
			r.logger.Warn("Attempted to create duplicate user by username", logFields...)
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by ID", zap.String("id", id.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user by id from postgres: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their normalized username.
func (r *pgUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", username))
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by username", zap.String("username", username))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by username from postgres", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username from postgres: %w", err)
	}
	return user, nil
}

// GetUserByIdentifier retrieves a user matching the identifier as either email
// or username. Both columns hold normalized lowercase values.
func (r *pgUserRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("identifier", identifier))
	user, err := scanUser(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by identifier", zap.String("identifier", identifier))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by identifier from postgres", zap.Error(err), zap.String("identifier", identifier))
		return nil, fmt.Errorf("failed to get user by identifier from postgres: %w", err)
	}
	return user, nil
}

// UpdateRefreshToken replaces the single stored refresh token for the account.
// An empty token clears the column, which blocks all future renewals.
func (r *pgUserRepository) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	query := `UPDATE users SET refresh_token = NULLIF($1, ''), updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))

	cmdTag, err := r.db.Exec(ctx, query, refreshToken, userID)
	if err != nil {
		r.logger.Error("Failed to update refresh token in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update refresh token for non-existent user", zap.String("userID", userID.String()))
		return models.ErrUserNotFound
	}
	return nil
}

// UpdatePasswordHash updates the stored password hash.
func (r *pgUserRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))

	cmdTag, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		r.logger.Error("Failed to update password hash in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update password hash for non-existent user", zap.String("userID", userID.String()))
		return models.ErrUserNotFound
	}
	r.logger.Info("User password hash updated successfully", zap.String("userID", userID.String()))
	return nil
}

// UpdateProfile updates the provided fields only; nil pointers are skipped.
func (r *pgUserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, email *string) (*models.User, error) {
	queryBase := "UPDATE users SET updated_at = CURRENT_TIMESTAMP"
	args := []any{}
	argID := 1

	if fullName != nil {
		queryBase += fmt.Sprintf(", full_name = $%d", argID)
		args = append(args, *fullName)
		argID++
	}
	if email != nil {
		queryBase += fmt.Sprintf(", email = $%d", argID)
		args = append(args, *email)
		argID++
	}

	if len(args) == 0 {
		r.logger.Info("UpdateProfile called with no fields to update", zap.String("userID", userID.String()))
		return r.GetUserByID(ctx, userID)
	}

	query := queryBase + fmt.Sprintf(" WHERE id = $%d RETURNING ", argID) + userColumns
	args = append(args, userID)

	r.logger.Debug("Executing update profile query", zap.String("query", query), zap.String("userID", userID.String()))
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Attempted to update non-existent user", zap.String("userID", userID.String()))
			return nil, models.ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			r.logger.Warn("Attempted to update user with duplicate email", zap.String("userID", userID.String()), zap.Stringp("email", email))
			return nil, models.ErrEmailAlreadyExists
		}
		r.logger.Error("Failed to update user profile in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	r.logger.Info("User profile updated successfully", zap.String("userID", userID.String()))
	return user, nil
}

// UpdateAvatarURL replaces the avatar URL after a successful media upload.
func (r *pgUserRepository) UpdateAvatarURL(ctx context.Context, userID uuid.UUID, url string) error {
	return r.updateImageURL(ctx, userID, "avatar_url", url)
}

// UpdateCoverURL replaces the cover image URL after a successful media upload.
func (r *pgUserRepository) UpdateCoverURL(ctx context.Context, userID uuid.UUID, url string) error {
	return r.updateImageURL(ctx, userID, "cover_url", url)
}

func (r *pgUserRepository) updateImageURL(ctx context.Context, userID uuid.UUID, column, url string) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, column)
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))

	cmdTag, err := r.db.Exec(ctx, query, url, userID)
	if err != nil {
		r.logger.Error("Failed to update image url in postgres", zap.Error(err), zap.String("userID", userID.String()), zap.String("column", column))
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Info("User image url updated", zap.String("userID", userID.String()), zap.String("column", column))
	return nil
}

// AddWatchEvent appends a video reference to the user's watch history.
func (r *pgUserRepository) AddWatchEvent(ctx context.Context, userID, videoID uuid.UUID) error {
	query := `INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()), zap.String("videoID", videoID.String()))

	_, err := r.db.Exec(ctx, query, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			r.logger.Warn("Watch event references unknown video or user",
				zap.String("userID", userID.String()), zap.String("videoID", videoID.String()))
			if strings.Contains(pgErr.ConstraintName, "video") {
				return models.ErrVideoNotFound
			}
			return models.ErrUserNotFound
		}
		r.logger.Error("Failed to insert watch event", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to insert watch event: %w", err)
	}
	return nil
}

// ListWatchHistory returns the user's watch history joined with video
// metadata, newest first.
func (r *pgUserRepository) ListWatchHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.WatchEntry, error) {
	query := `SELECT v.id, v.owner_id, v.title, COALESCE(v.thumbnail_url, ''), v.duration_seconds, v.created_at, wh.watched_at
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		WHERE wh.user_id = $1
		ORDER BY wh.watched_at DESC
		LIMIT $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()), zap.Int("limit", limit))

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error("Failed to query watch history", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WatchEntry, 0)
	for rows.Next() {
		var entry models.WatchEntry
		if err := rows.Scan(&entry.Video.ID, &entry.Video.OwnerID, &entry.Video.Title,
			&entry.Video.ThumbnailURL, &entry.Video.Duration, &entry.Video.CreatedAt, &entry.WatchedAt); err != nil {
			r.logger.Error("Failed to scan watch history row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan watch history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating watch history rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating watch history rows: %w", err)
	}
	return entries, nil
}
