package model

import "time"

// Collection represents a curated grouping of artworks (`collections` table).
type Collection struct {
	ID            uint64    `json:"id"`
	CmsID         *int64    `json:"cms_id,omitempty"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	CoverImageURL *string   `json:"cover_image_url"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CollectionArtwork links an artwork into a collection with an explicit
// display order (`collection_artworks` join table, unique per pair).
type CollectionArtwork struct {
	ID           uint64    `json:"id"`
	CollectionID uint64    `json:"collection_id"`
	ArtworkID    uint64    `json:"artwork_id"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}
