package model

import "time"

// Artist represents a row in the `artists` table. CmsID links the record to
// its source entry in the headless CMS when the row was replicated by the
// webhook bridge; locally created artists have a null CmsID.
type Artist struct {
	ID              uint64    `json:"id"`
	CmsID           *int64    `json:"cms_id,omitempty"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Bio             *string   `json:"bio"`
	Statement       *string   `json:"statement"`
	Location        *string   `json:"location"`
	Website         *string   `json:"website"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	ProfileImageURL *string   `json:"profile_image_url"` // CDN URL, bytes never handled here
	Featured        bool      `json:"featured"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
