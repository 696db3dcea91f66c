package service

import (
	"context"

	"github.com/google/uuid"

	"vidstream-server/internal/models"
)

// ProfileService covers the non-credential account operations: profile reads
// and partial updates, media URL replacement, channel aggregates, watch
// history and subscription toggling.
type ProfileService interface {
	UpdateAccount(ctx context.Context, userID uuid.UUID, fullName, email *string) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, url string) (*models.User, error)
	GetChannelProfile(ctx context.Context, username string, requesterID uuid.UUID) (*models.ChannelProfile, error)
	ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelUsername string) (bool, error)
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error)
	RecordWatchEvent(ctx context.Context, userID, videoID uuid.UUID) error
}
