package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/queue"
)

// maxWebhookBody caps how much of a webhook payload is read. CMS entries are
// small; anything larger is hostile.
const maxWebhookBody = 1 << 20

// WebhookHandler receives CMS entry events. The handler only authenticates
// and enqueues; all database work happens in the sync consumer, so the CMS
// gets its 200 without waiting on us.
type WebhookHandler struct {
	Secret string
}

func NewWebhookHandler(secret string) *WebhookHandler {
	return &WebhookHandler{Secret: secret}
}

// CmsSync authenticates the shared-secret header, validates the envelope and
// enqueues the event for the sync consumer.
func (h *WebhookHandler) CmsSync(c echo.Context) error {
	if h.Secret == "" {
		// no secret configured means the bridge is off, not open
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "webhook disabled"})
	}
	got := c.Request().Header.Get("x-webhook-secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook secret"})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	var ev queue.CmsEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if ev.Event == "" || ev.Model == "" || len(ev.Entry) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event, model and entry required"})
	}

	// Publish off the request path. A broker outage loses the event; the CMS
	// retries failed webhooks and upserts are idempotent, so that is safe.
	go func(ev queue.CmsEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue.Publish(ctx, queue.CmsSyncQueueName, ev); err != nil {
			log.Printf("webhook: enqueue %s %s failed: %v", ev.Event, ev.Model, err)
		}
	}(ev)

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
