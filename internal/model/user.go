package model

import "time"

// Role values stored in users.role. GALLERY_STAFF and ADMIN may manage
// catalogue records and respond to inquiries; USER is the default for
// self-registered accounts.
const (
	RoleUser         = "USER"
	RoleGalleryStaff = "GALLERY_STAFF"
	RoleAdmin        = "ADMIN"
)

// User represents a row in the `users` table. PasswordHash is nullable:
// accounts provisioned externally (CMS seeds, staff imports) may have no
// password and cannot log in with credentials until one is set.
type User struct {
	ID            uint64     `json:"id"`
	Email         string     `json:"email"` // unique, stored lower-case
	PasswordHash  *string    `json:"-"`     // bcrypt, nullable
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table. The raw token
// value never touches the database; only its SHA-256 hex digest is stored so
// a leaked table cannot be replayed against the refresh endpoint.
type RefreshToken struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	TokenHash string     `json:"-"` // sha256 hex of the raw value
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Active reports whether the token is neither revoked nor expired at t.
func (rt RefreshToken) Active(t time.Time) bool {
	return rt.RevokedAt == nil && t.Before(rt.ExpiresAt)
}
