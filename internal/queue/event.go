// Package queue defines message payloads exchanged over the message broker
// and the background consumers that process them.
package queue

import (
	"encoding/json"
	"fmt"
)

// Queue names. Both queues are declared durable so messages survive broker
// restarts.
const (
	InquiryQueueName = "inquiry.notifications"
	CmsSyncQueueName = "cms.sync"
)

// Notification kinds carried by InquiryNotificationEvent.
const (
	KindInquiryReceived  = "inquiry.received"
	KindInquiryResponded = "inquiry.responded"
)

// InquiryNotificationEvent is published when an inquiry is created (staff
// notification) or answered (customer notification). It carries everything
// the mailer needs so the consumer never queries the primary database.
type InquiryNotificationEvent struct {
	Kind          string  `json:"kind"`
	InquiryID     uint64  `json:"inquiry_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Message       string  `json:"message"`
	Response      string  `json:"response,omitempty"`
	ArtworkTitle  string  `json:"artwork_title"`
	ArtworkSlug   string  `json:"artwork_slug"`
	OccurredAt    string  `json:"occurred_at"`
}

// CmsEvent mirrors the webhook payload accepted from the headless CMS. Entry
// is kept raw; the sync service decodes it per model.
type CmsEvent struct {
	Event string          `json:"event"` // entry.create | entry.update | entry.delete
	Model string          `json:"model"`
	Entry json.RawMessage `json:"entry"`
}

// EntityKey identifies the replicated entity. Deliveries sharing a key are
// applied in arrival order by the sync consumer.
func (e CmsEvent) EntityKey() string {
	var probe struct {
		ID int64 `json:"id"`
	}
	// A malformed entry hashes under id 0; the sync service rejects it later.
	_ = json.Unmarshal(e.Entry, &probe)
	return fmt.Sprintf("%s:%d", e.Model, probe.ID)
}
