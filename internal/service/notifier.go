package service

import (
	"context"
	"time"

	"github.com/artspot/gallery-api/internal/queue"
)

// Notifier delivers inquiry notifications on a best-effort basis. Calls never
// return an error and never block the caller on broker availability; failure
// to notify must not change the outcome of the triggering request.
type Notifier interface {
	NotifyInquiryReceived(ev queue.InquiryNotificationEvent)
	NotifyInquiryResponded(ev queue.InquiryNotificationEvent)
}

// QueueNotifier publishes notification events to the inquiry queue in a
// background goroutine. Publish already logs its own failures.
type QueueNotifier struct{}

func (QueueNotifier) NotifyInquiryReceived(ev queue.InquiryNotificationEvent) {
	ev.Kind = queue.KindInquiryReceived
	go publishAsync(ev)
}

func (QueueNotifier) NotifyInquiryResponded(ev queue.InquiryNotificationEvent) {
	ev.Kind = queue.KindInquiryResponded
	go publishAsync(ev)
}

func publishAsync(ev queue.InquiryNotificationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = queue.Publish(ctx, queue.InquiryQueueName, ev)
}
