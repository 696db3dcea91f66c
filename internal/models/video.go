package models

import (
	"time"

	"github.com/google/uuid"
)

// Video holds the subset of video metadata the account service needs for
// watch-history listings. Video content itself lives elsewhere.
type Video struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `db:"owner_id" json:"ownerId"`
	Title        string    `db:"title" json:"title"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnailUrl,omitempty"`
	Duration     int       `db:"duration_seconds" json:"durationSeconds"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// WatchEntry is one row of a user's watch history, newest first.
type WatchEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}
