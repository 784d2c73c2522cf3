package model

import "time"

// Artwork status values stored in artworks.status.
const (
	ArtworkAvailable = "AVAILABLE"
	ArtworkReserved  = "RESERVED"
	ArtworkSold      = "SOLD"
)

// Image type values stored in artwork_images.type. Exactly one MAIN image is
// expected per artwork; listings show the MAIN image only.
const (
	ImageMain      = "MAIN"
	ImageAlternate = "ALTERNATE"
	ImageDetail    = "DETAIL"
)

// Artwork represents a row in the `artworks` table. Prices are stored in
// cents to avoid floating point in the database. Dimensions are centimetres.
type Artwork struct {
	ID          uint64    `json:"id"`
	CmsID       *int64    `json:"cms_id,omitempty"`
	ArtistID    uint64    `json:"artist_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Medium      string    `json:"medium"` // PAINTING, SCULPTURE, ... OTHER
	Style       *string   `json:"style"`
	Year        *int      `json:"year"`
	WidthCm     *float64  `json:"width_cm"`
	HeightCm    *float64  `json:"height_cm"`
	DepthCm     *float64  `json:"depth_cm"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"` // ISO 4217, default USD
	Status      string    `json:"status"`
	Featured    bool      `json:"featured"`
	Edition     *string   `json:"edition"`
	Materials   *string   `json:"materials"`
	Signature   *string   `json:"signature"`
	Certificate bool      `json:"certificate"`
	Framed      bool      `json:"framed"`
	Views       uint64    `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArtworkImage represents a row in the `artwork_images` table. The record
// points at a CDN-hosted rendition; PublicID is the CDN's stable identifier.
type ArtworkImage struct {
	ID           uint64    `json:"id"`
	ArtworkID    uint64    `json:"artwork_id"`
	PublicID     string    `json:"public_id"`
	URL          string    `json:"url"`
	SecureURL    string    `json:"secure_url"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Format       string    `json:"format"`
	SizeBytes    int64     `json:"size_bytes"`
	Type         string    `json:"type"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}
