package model

import "time"

// Inquiry status values. Transitions move forward only:
// PENDING -> RESPONDED -> CLOSED, with PENDING -> CLOSED allowed as a
// cancel-without-response. CLOSED is terminal.
const (
	InquiryPending   = "PENDING"
	InquiryResponded = "RESPONDED"
	InquiryClosed    = "CLOSED"
)

// Inquiry represents a customer's request for information about an artwork
// (`inquiries` table). UserID is null for guest submissions. Response fields
// are stamped together when staff reply.
type Inquiry struct {
	ID          uint64     `json:"id"`
	ArtworkID   uint64     `json:"artwork_id"`
	UserID      *uint64    `json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	Response    *string    `json:"response"`
	RespondedAt *time.Time `json:"responded_at"`
	RespondedBy *uint64    `json:"responded_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
