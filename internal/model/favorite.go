package model

import "time"

// Favorite marks an artwork as saved by a user (`favorites` table,
// unique per user/artwork pair).
type Favorite struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	ArtworkID uint64    `json:"artwork_id"`
	CreatedAt time.Time `json:"created_at"`
}
