package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a directed edge: subscriber follows channel.
// The pair is unique; toggling an existing edge removes it.
type Subscription struct {
	SubscriberID uuid.UUID `db:"subscriber_id" json:"subscriberId"`
	ChannelID    uuid.UUID `db:"channel_id" json:"channelId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
