package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/queue"
	"github.com/artspot/gallery-api/internal/repository"
)

// InquiryStore is the slice of InquiryRepo the workflow needs.
type InquiryStore interface {
	Create(ctx context.Context, i *model.Inquiry) error
	GetByID(ctx context.Context, id uint64) (model.Inquiry, error)
	ApplyResponse(ctx context.Context, id uint64, fromStatus, toStatus string, response *string, respondedBy uint64) error
	ListByUser(ctx context.Context, userID uint64, q repository.InquiryQuery) ([]repository.InquiryRow, int64, error)
	ListAll(ctx context.Context, q repository.InquiryQuery) ([]repository.InquiryRow, int64, error)
}

// ArtworkFinder resolves the artwork an inquiry refers to.
type ArtworkFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Artwork, error)
}

// ErrConcurrentUpdate is returned when a respond call loses a race with
// another staff member: the status read for validation no longer matches the
// row by the time the conditional update runs.
var ErrConcurrentUpdate = errors.New("inquiry was updated concurrently")

// TransitionError reports a status change not permitted by the workflow.
type TransitionError struct {
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// validTransitions encodes the inquiry status machine. Statuses only move
// forward; CLOSED is terminal. A target equal to the current status is not
// listed here; same-state updates are permitted as no-ops (re-stamping a
// response while RESPONDED is legal).
var validTransitions = map[string][]string{
	model.InquiryPending:   {model.InquiryResponded, model.InquiryClosed},
	model.InquiryResponded: {model.InquiryClosed},
	model.InquiryClosed:    {},
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CreateInquiryInput is the validated submission payload. UserID is nil for
// guest submissions.
type CreateInquiryInput struct {
	ArtworkID uint64
	UserID    *uint64
	Name      string
	Email     string
	Phone     *string
	Message   string
}

// RespondInput carries a staff response and/or an explicit status target.
type RespondInput struct {
	Response *string
	Status   *string
}

// InquiryService implements the inquiry workflow: public submission, staff
// response with transition validation, and the notification side effects.
type InquiryService struct {
	inquiries InquiryStore
	artworks  ArtworkFinder
	notifier  Notifier
}

func NewInquiryService(inquiries InquiryStore, artworks ArtworkFinder, notifier Notifier) *InquiryService {
	return &InquiryService{inquiries: inquiries, artworks: artworks, notifier: notifier}
}

// Create persists a PENDING inquiry after verifying the artwork exists and
// fires a best-effort staff notification. Notification failure never fails
// the request.
func (s *InquiryService) Create(ctx context.Context, in CreateInquiryInput) (model.Inquiry, error) {
	aw, err := s.artworks.GetByID(ctx, in.ArtworkID)
	if err != nil {
		return model.Inquiry{}, err
	}

	inq := model.Inquiry{
		ArtworkID: aw.ID,
		UserID:    in.UserID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
	}
	if err := s.inquiries.Create(ctx, &inq); err != nil {
		return model.Inquiry{}, err
	}

	s.notifier.NotifyInquiryReceived(queue.InquiryNotificationEvent{
		InquiryID:     inq.ID,
		CustomerName:  inq.Name,
		CustomerEmail: inq.Email,
		CustomerPhone: inq.Phone,
		Message:       inq.Message,
		ArtworkTitle:  aw.Title,
		ArtworkSlug:   aw.Slug,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return inq, nil
}

// Respond applies a staff response and/or status change. The target status is
// the explicit one when given, otherwise RESPONDED when a response body is
// present, otherwise the current status (no-op). Transitions are validated
// against the workflow table; the write is conditional on the status read
// here, so two racing responders cannot both apply a transition.
func (s *InquiryService) Respond(ctx context.Context, inquiryID, staffUserID uint64, in RespondInput) (model.Inquiry, error) {
	inq, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		return model.Inquiry{}, err
	}

	target := inq.Status
	switch {
	case in.Status != nil:
		target = *in.Status
	case in.Response != nil:
		target = model.InquiryResponded
	}
	if !transitionAllowed(inq.Status, target) {
		return model.Inquiry{}, &TransitionError{From: inq.Status, To: target}
	}

	if err := s.inquiries.ApplyResponse(ctx, inq.ID, inq.Status, target, in.Response, staffUserID); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return model.Inquiry{}, ErrConcurrentUpdate
		}
		return model.Inquiry{}, err
	}

	updated, err := s.inquiries.GetByID(ctx, inq.ID)
	if err != nil {
		return model.Inquiry{}, err
	}

	if in.Response != nil {
		ev := queue.InquiryNotificationEvent{
			InquiryID:     updated.ID,
			CustomerName:  updated.Name,
			CustomerEmail: updated.Email,
			CustomerPhone: updated.Phone,
			Message:       updated.Message,
			Response:      *in.Response,
			OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if aw, err := s.artworks.GetByID(ctx, updated.ArtworkID); err == nil {
			ev.ArtworkTitle = aw.Title
			ev.ArtworkSlug = aw.Slug
		}
		s.notifier.NotifyInquiryResponded(ev)
	}
	return updated, nil
}

// ListForUser returns a page of the caller's own inquiries.
func (s *InquiryService) ListForUser(ctx context.Context, userID uint64, q repository.InquiryQuery) ([]repository.InquiryRow, int64, error) {
	return s.inquiries.ListByUser(ctx, userID, q)
}

// ListAll returns a page of every inquiry for the staff view.
func (s *InquiryService) ListAll(ctx context.Context, q repository.InquiryQuery) ([]repository.InquiryRow, int64, error) {
	return s.inquiries.ListAll(ctx, q)
}
