package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgSubscriptionRepository implements SubscriptionRepository
var _ SubscriptionRepository = (*pgSubscriptionRepository)(nil)

type pgSubscriptionRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgSubscriptionRepository creates a new PostgreSQL-backed SubscriptionRepository.
func NewPgSubscriptionRepository(db DBTX, logger *zap.Logger) SubscriptionRepository {
	return &pgSubscriptionRepository{
		db:     db,
		logger: logger.Named("PgSubscriptionRepo"),
	}
}

// Toggle flips the subscription edge. The primary key on
// (subscriber_id, channel_id) keeps the edge unique; a repeated subscribe is
// treated as an unsubscribe rather than a duplicate row.
func (r *pgSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	logFields := []zap.Field{zap.String("subscriberID", subscriberID.String()), zap.String("channelID", channelID.String())}

	delQuery := `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`
	cmdTag, err := r.db.Exec(ctx, delQuery, subscriberID, channelID)
	if err != nil {
		r.logger.Error("Failed to delete subscription edge", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		r.logger.Info("Subscription removed", logFields...)
		return false, nil
	}

	// Concurrent toggles can race between the DELETE and this INSERT;
	// ON CONFLICT keeps the outcome idempotent either way.
	insQuery := `INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, insQuery, subscriberID, channelID); err != nil {
		r.logger.Error("Failed to insert subscription edge", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("failed to insert subscription: %w", err)
	}
	r.logger.Info("Subscription added", logFields...)
	return true, nil
}

// ChannelStats computes the subscription aggregates for a channel in one
// round-trip: how many accounts follow the channel, and how many channels the
// channel's owner follows.
func (r *pgSubscriptionRepository) ChannelStats(ctx context.Context, channelID uuid.UUID) (*ChannelStats, error) {
	query := `SELECT
		(SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
		(SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1)`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("channelID", channelID.String()))

	stats := &ChannelStats{}
	if err := r.db.QueryRow(ctx, query, channelID).Scan(&stats.SubscriberCount, &stats.SubscribedToCount); err != nil {
		r.logger.Error("Failed to compute channel stats", zap.Error(err), zap.String("channelID", channelID.String()))
		return nil, fmt.Errorf("failed to compute channel stats: %w", err)
	}
	return stats, nil
}

// IsSubscribed reports whether subscriber follows channel. Direction matters:
// the requester must appear on the subscriber side of the edge.
func (r *pgSubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("subscriberID", subscriberID.String()), zap.String("channelID", channelID.String()))

	var exists bool
	if err := r.db.QueryRow(ctx, query, subscriberID, channelID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check subscription edge", zap.Error(err),
			zap.String("subscriberID", subscriberID.String()), zap.String("channelID", channelID.String()))
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}
