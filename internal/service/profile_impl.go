package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidstream-server/internal/models"
	"vidstream-server/internal/repository"
)

const watchHistoryLimit = 100

// Compile-time check to ensure profileServiceImpl implements ProfileService
var _ ProfileService = (*profileServiceImpl)(nil)

type profileServiceImpl struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	cache    repository.StatsCache
	logger   *zap.Logger
}

// NewProfileService creates a new instance of profileServiceImpl.
func NewProfileService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, cache repository.StatsCache, logger *zap.Logger) ProfileService {
	return &profileServiceImpl{
		userRepo: userRepo,
		subRepo:  subRepo,
		cache:    cache,
		logger:   logger.Named("ProfileService"),
	}
}

// UpdateAccount applies a partial update: nil fields stay untouched.
func (s *profileServiceImpl) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName, email *string) (*models.User, error) {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Info("Updating account fields")

	if fullName == nil && email == nil {
		return nil, fmt.Errorf("at least one of fullName or email is required: %w", models.ErrValidation)
	}
	if fullName != nil {
		trimmed := strings.TrimSpace(*fullName)
		if trimmed == "" {
			return nil, fmt.Errorf("fullName cannot be empty: %w", models.ErrValidation)
		}
		fullName = &trimmed
	}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if _, err := mail.ParseAddress(normalized); err != nil {
			log.Warn("Account update with invalid email format", zap.Error(err))
			return nil, fmt.Errorf("invalid email format: %w", models.ErrValidation)
		}
		email = &normalized
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}

	log.Info("Account updated successfully")
	return user, nil
}

// UpdateAvatar replaces the avatar URL with the freshly uploaded one.
func (s *profileServiceImpl) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error) {
	if url == "" {
		return nil, fmt.Errorf("avatar url is required: %w", models.ErrValidation)
	}
	if err := s.userRepo.UpdateAvatarURL(ctx, userID, url); err != nil {
		return nil, err
	}
	s.logger.Info("Avatar updated", zap.String("userID", userID.String()))
	return s.userRepo.GetUserByID(ctx, userID)
}

// UpdateCoverImage replaces the cover image URL with the freshly uploaded one.
func (s *profileServiceImpl) UpdateCoverImage(ctx context.Context, userID uuid.UUID, url string) (*models.User, error) {
	if url == "" {
		return nil, fmt.Errorf("cover image url is required: %w", models.ErrValidation)
	}
	if err := s.userRepo.UpdateCoverURL(ctx, userID, url); err != nil {
		return nil, err
	}
	s.logger.Info("Cover image updated", zap.String("userID", userID.String()))
	return s.userRepo.GetUserByID(ctx, userID)
}

// GetChannelProfile returns the channel view of an account: its public fields
// plus subscription aggregates and whether the requester follows it. The
// aggregate counts go through the Redis read-through cache; isSubscribed is
// requester-specific and always computed fresh.
func (s *profileServiceImpl) GetChannelProfile(ctx context.Context, username string, requesterID uuid.UUID) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	log := s.logger.With(zap.String("channelUsername", username))
	log.Debug("Fetching channel profile")

	if username == "" {
		return nil, fmt.Errorf("username is required: %w", models.ErrValidation)
	}

	channel, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Debug("Channel not found")
			return nil, models.ErrChannelNotFound
		}
		return nil, err
	}

	stats, err := s.channelStats(ctx, channel.ID)
	if err != nil {
		return nil, err
	}

	isSubscribed := false
	if requesterID != uuid.Nil && requesterID != channel.ID {
		isSubscribed, err = s.subRepo.IsSubscribed(ctx, requesterID, channel.ID)
		if err != nil {
			return nil, err
		}
	}

	return &models.ChannelProfile{
		ID:              channel.ID,
		Username:        channel.Username,
		FullName:        channel.FullName,
		Email:           channel.Email,
		AvatarURL:       channel.AvatarURL,
		CoverURL:        channel.CoverURL,
		SubscriberCount: stats.SubscriberCount,
		SubscribedTo:    stats.SubscribedToCount,
		IsSubscribed:    isSubscribed,
	}, nil
}

// channelStats reads the aggregates through the cache. Cache failures other
// than a miss degrade to a direct database read.
func (s *profileServiceImpl) channelStats(ctx context.Context, channelID uuid.UUID) (*repository.ChannelStats, error) {
	stats, err := s.cache.GetChannelStats(ctx, channelID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Channel stats cache read failed, falling back to database", zap.Error(err), zap.String("channelID", channelID.String()))
	}

	stats, err = s.subRepo.ChannelStats(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetChannelStats(ctx, channelID, stats); err != nil {
		s.logger.Warn("Failed to populate channel stats cache", zap.Error(err), zap.String("channelID", channelID.String()))
	}
	return stats, nil
}

// ToggleSubscription flips the requester's subscription to the channel.
// Returns whether the subscription exists after the call.
func (s *profileServiceImpl) ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelUsername string) (bool, error) {
	channelUsername = strings.ToLower(strings.TrimSpace(channelUsername))
	log := s.logger.With(zap.String("subscriberID", subscriberID.String()), zap.String("channelUsername", channelUsername))

	channel, err := s.userRepo.GetUserByUsername(ctx, channelUsername)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return false, models.ErrChannelNotFound
		}
		return false, err
	}

	if channel.ID == subscriberID {
		log.Warn("User attempted to subscribe to own channel")
		return false, models.ErrSelfSubscribe
	}

	subscribed, err := s.subRepo.Toggle(ctx, subscriberID, channel.ID)
	if err != nil {
		return false, err
	}

	// Both endpoints of the edge have stale aggregates now.
	if err := s.cache.InvalidateChannelStats(ctx, channel.ID); err != nil {
		log.Warn("Failed to invalidate channel stats cache", zap.Error(err))
	}
	if err := s.cache.InvalidateChannelStats(ctx, subscriberID); err != nil {
		log.Warn("Failed to invalidate subscriber stats cache", zap.Error(err))
	}

	log.Info("Subscription toggled", zap.Bool("subscribed", subscribed))
	return subscribed, nil
}

// WatchHistory returns the user's watch history, newest first.
func (s *profileServiceImpl) WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error) {
	return s.userRepo.ListWatchHistory(ctx, userID, watchHistoryLimit)
}

// RecordWatchEvent appends a video reference to the user's watch history.
func (s *profileServiceImpl) RecordWatchEvent(ctx context.Context, userID, videoID uuid.UUID) error {
	if videoID == uuid.Nil {
		return fmt.Errorf("videoId is required: %w", models.ErrValidation)
	}
	return s.userRepo.AddWatchEvent(ctx, userID, videoID)
}
