package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vidstream-server/internal/models"
)

// DBTX abstracts a pgx pool, connection or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository is the credential store: one row per account, including the
// single active refresh token.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUserByIdentifier looks up by email or username (already normalized).
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// UpdateRefreshToken replaces the stored refresh token; an empty string clears it.
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// UpdateProfile applies a partial update; nil pointers leave fields unchanged.
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, email *string) (*models.User, error)
	UpdateAvatarURL(ctx context.Context, userID uuid.UUID, url string) error
	UpdateCoverURL(ctx context.Context, userID uuid.UUID, url string) error
	AddWatchEvent(ctx context.Context, userID, videoID uuid.UUID) error
	ListWatchHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.WatchEntry, error)
}

// ChannelStats are the derived subscription aggregates for a channel.
// IsSubscribed is requester-specific and therefore never cached.
type ChannelStats struct {
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
}

// SubscriptionRepository manages the directed subscriber->channel edge set.
type SubscriptionRepository interface {
	// Toggle inserts the edge if absent, removes it if present.
	// Returns true when the edge exists after the call.
	Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	ChannelStats(ctx context.Context, channelID uuid.UUID) (*ChannelStats, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
}

// StatsCache is a read-through cache for channel aggregates.
type StatsCache interface {
	GetChannelStats(ctx context.Context, channelID uuid.UUID) (*ChannelStats, error)
	SetChannelStats(ctx context.Context, channelID uuid.UUID, stats *ChannelStats) error
	InvalidateChannelStats(ctx context.Context, channelID uuid.UUID) error
}
