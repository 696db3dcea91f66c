package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system. PasswordHash and RefreshToken are
// never serialized; API responses carry the sanitized fields only.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"fullName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	AvatarURL    string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	CoverURL     string    `db:"cover_url" json:"coverUrl,omitempty"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// ChannelProfile is the aggregate view of a user as a subscription target.
type ChannelProfile struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	AvatarURL       string    `json:"avatarUrl,omitempty"`
	CoverURL        string    `json:"coverUrl,omitempty"`
	SubscriberCount int64     `json:"subscriberCount"`
	SubscribedTo    int64     `json:"channelsSubscribedToCount"`
	IsSubscribed    bool      `json:"isSubscribed"`
}
