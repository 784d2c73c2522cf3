package model

import "time"

// Article represents an editorial piece replicated from the CMS
// (`articles` table). Articles are read-only on the API side.
type Article struct {
	ID            uint64     `json:"id"`
	CmsID         *int64     `json:"cms_id,omitempty"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Excerpt       *string    `json:"excerpt"`
	CoverImageURL *string    `json:"cover_image_url"`
	Author        *string    `json:"author"`
	Category      *string    `json:"category"`
	PublishedAt   *time.Time `json:"published_at"`
	Featured      bool       `json:"featured"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
