package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/queue"
	"github.com/artspot/gallery-api/internal/repository"
)

// stubInquiryStore keeps inquiries in memory and mimics the conditional
// update semantics of the SQL repository.
type stubInquiryStore struct {
	nextID uint64
	rows   map[uint64]*model.Inquiry
}

func newStubInquiryStore() *stubInquiryStore {
	return &stubInquiryStore{rows: map[uint64]*model.Inquiry{}}
}

func (s *stubInquiryStore) Create(_ context.Context, i *model.Inquiry) error {
	s.nextID++
	i.ID = s.nextID
	i.Status = model.InquiryPending
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
	cp := *i
	s.rows[i.ID] = &cp
	return nil
}

func (s *stubInquiryStore) GetByID(_ context.Context, id uint64) (model.Inquiry, error) {
	row, ok := s.rows[id]
	if !ok {
		return model.Inquiry{}, repository.ErrInquiryNotFound
	}
	return *row, nil
}

func (s *stubInquiryStore) ApplyResponse(_ context.Context, id uint64, fromStatus, toStatus string, response *string, respondedBy uint64) error {
	row, ok := s.rows[id]
	if !ok {
		return repository.ErrInquiryNotFound
	}
	if row.Status != fromStatus {
		return repository.ErrStale
	}
	row.Status = toStatus
	if response != nil {
		now := time.Now()
		row.Response = response
		row.RespondedAt = &now
		row.RespondedBy = &respondedBy
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (s *stubInquiryStore) ListByUser(_ context.Context, userID uint64, _ repository.InquiryQuery) ([]repository.InquiryRow, int64, error) {
	var out []repository.InquiryRow
	for _, row := range s.rows {
		if row.UserID != nil && *row.UserID == userID {
			out = append(out, repository.InquiryRow{Inquiry: *row})
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubInquiryStore) ListAll(_ context.Context, _ repository.InquiryQuery) ([]repository.InquiryRow, int64, error) {
	var out []repository.InquiryRow
	for _, row := range s.rows {
		out = append(out, repository.InquiryRow{Inquiry: *row})
	}
	return out, int64(len(out)), nil
}

// stubArtworkFinder serves a fixed artwork set.
type stubArtworkFinder struct {
	byID map[uint64]model.Artwork
}

func (s *stubArtworkFinder) GetByID(_ context.Context, id uint64) (model.Artwork, error) {
	w, ok := s.byID[id]
	if !ok {
		return model.Artwork{}, repository.ErrArtworkNotFound
	}
	return w, nil
}

// recordingNotifier captures fired events instead of publishing them.
type recordingNotifier struct {
	received  []queue.InquiryNotificationEvent
	responded []queue.InquiryNotificationEvent
}

func (n *recordingNotifier) NotifyInquiryReceived(ev queue.InquiryNotificationEvent) {
	n.received = append(n.received, ev)
}

func (n *recordingNotifier) NotifyInquiryResponded(ev queue.InquiryNotificationEvent) {
	n.responded = append(n.responded, ev)
}

func newInquiryService() (*InquiryService, *stubInquiryStore, *recordingNotifier) {
	store := newStubInquiryStore()
	finder := &stubArtworkFinder{byID: map[uint64]model.Artwork{
		7: {ID: 7, Slug: "blue-nocturne", Title: "Blue Nocturne"},
	}}
	rec := &recordingNotifier{}
	return NewInquiryService(store, finder, rec), store, rec
}

func strp(s string) *string { return &s }

func TestCreateInquiryStartsPending(t *testing.T) {
	svc, _, rec := newInquiryService()

	inq, err := svc.Create(context.Background(), CreateInquiryInput{
		ArtworkID: 7,
		Name:      "Grace",
		Email:     "grace@example.com",
		Message:   "Is this piece still available for viewing?",
	})
	require.NoError(t, err)

	assert.Equal(t, model.InquiryPending, inq.Status)
	assert.NotZero(t, inq.ID)

	require.Len(t, rec.received, 1)
	assert.Equal(t, "Blue Nocturne", rec.received[0].ArtworkTitle)
	assert.Equal(t, "grace@example.com", rec.received[0].CustomerEmail)
	assert.Empty(t, rec.responded)
}

func TestCreateInquiryUnknownArtwork(t *testing.T) {
	svc, _, rec := newInquiryService()

	_, err := svc.Create(context.Background(), CreateInquiryInput{
		ArtworkID: 999,
		Name:      "Grace",
		Email:     "grace@example.com",
		Message:   "Is this piece still available for viewing?",
	})
	assert.ErrorIs(t, err, repository.ErrArtworkNotFound)
	assert.Empty(t, rec.received)
}

func TestRespondImpliesResponded(t *testing.T) {
	svc, _, rec := newInquiryService()
	inq, err := svc.Create(context.Background(), CreateInquiryInput{
		ArtworkID: 7, Name: "Grace", Email: "grace@example.com",
		Message: "Is this piece still available for viewing?",
	})
	require.NoError(t, err)

	updated, err := svc.Respond(context.Background(), inq.ID, 101, RespondInput{
		Response: strp("Yes, viewings run every Thursday."),
	})
	require.NoError(t, err)

	assert.Equal(t, model.InquiryResponded, updated.Status)
	require.NotNil(t, updated.Response)
	assert.Equal(t, "Yes, viewings run every Thursday.", *updated.Response)
	require.NotNil(t, updated.RespondedBy)
	assert.Equal(t, uint64(101), *updated.RespondedBy)
	assert.NotNil(t, updated.RespondedAt)

	require.Len(t, rec.responded, 1)
	assert.Equal(t, "Blue Nocturne", rec.responded[0].ArtworkTitle)
}

func TestRespondStatusOnlyNoNotification(t *testing.T) {
	svc, _, rec := newInquiryService()
	inq, err := svc.Create(context.Background(), CreateInquiryInput{
		ArtworkID: 7, Name: "Grace", Email: "grace@example.com",
		Message: "Is this piece still available for viewing?",
	})
	require.NoError(t, err)

	closed := model.InquiryClosed
	updated, err := svc.Respond(context.Background(), inq.ID, 101, RespondInput{Status: &closed})
	require.NoError(t, err)

	assert.Equal(t, model.InquiryClosed, updated.Status)
	assert.Nil(t, updated.Response)
	assert.Empty(t, rec.responded)
}

func TestRespondTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{model.InquiryPending, model.InquiryResponded, true},
		{model.InquiryPending, model.InquiryClosed, true},
		{model.InquiryPending, model.InquiryPending, true}, // same-state no-op
		{model.InquiryResponded, model.InquiryClosed, true},
		{model.InquiryResponded, model.InquiryResponded, true},
		{model.InquiryResponded, model.InquiryPending, false},
		{model.InquiryClosed, model.InquiryClosed, true},
		{model.InquiryClosed, model.InquiryPending, false},
		{model.InquiryClosed, model.InquiryResponded, false},
	}

	for _, tc := range cases {
		t.Run(tc.from+"_to_"+tc.to, func(t *testing.T) {
			svc, store, _ := newInquiryService()
			inq, err := svc.Create(context.Background(), CreateInquiryInput{
				ArtworkID: 7, Name: "Grace", Email: "grace@example.com",
				Message: "Is this piece still available for viewing?",
			})
			require.NoError(t, err)
			store.rows[inq.ID].Status = tc.from

			to := tc.to
			_, err = svc.Respond(context.Background(), inq.ID, 101, RespondInput{Status: &to})
			if tc.ok {
				assert.NoError(t, err)
				assert.Equal(t, tc.to, store.rows[inq.ID].Status)
			} else {
				var te *TransitionError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tc.from, te.From)
				assert.Equal(t, tc.to, te.To)
				assert.Equal(t, tc.from, store.rows[inq.ID].Status, "failed transition must not change the row")
			}
		})
	}
}

func TestRespondRestampWhileResponded(t *testing.T) {
	svc, _, rec := newInquiryService()
	inq, err := svc.Create(context.Background(), CreateInquiryInput{
		ArtworkID: 7, Name: "Grace", Email: "grace@example.com",
		Message: "Is this piece still available for viewing?",
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), inq.ID, 101, RespondInput{Response: strp("First answer.")})
	require.NoError(t, err)

	updated, err := svc.Respond(context.Background(), inq.ID, 102, RespondInput{Response: strp("Corrected answer.")})
	require.NoError(t, err)

	assert.Equal(t, model.InquiryResponded, updated.Status)
	assert.Equal(t, "Corrected answer.", *updated.Response)
	assert.Equal(t, uint64(102), *updated.RespondedBy)
	assert.Len(t, rec.responded, 2)
}

func TestRespondUnknownInquiry(t *testing.T) {
	svc, _, _ := newInquiryService()

	_, err := svc.Respond(context.Background(), 404, 101, RespondInput{Response: strp("Hello?")})
	assert.ErrorIs(t, err, repository.ErrInquiryNotFound)
}

func TestRespondLosesRace(t *testing.T) {
	svc, store, _ := newInquiryService()
	inq, err := svc.Create(context.Background(), CreateInquiryInput{
		ArtworkID: 7, Name: "Grace", Email: "grace@example.com",
		Message: "Is this piece still available for viewing?",
	})
	require.NoError(t, err)

	// another responder wins between our read and write
	raceStore := &racingInquiryStore{stubInquiryStore: store, flipTo: model.InquiryClosed}
	racySvc := NewInquiryService(raceStore, &stubArtworkFinder{byID: map[uint64]model.Artwork{7: {ID: 7}}}, &recordingNotifier{})

	_, err = racySvc.Respond(context.Background(), inq.ID, 101, RespondInput{Response: strp("Too late.")})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

// racingInquiryStore flips the row's status after the service has read it,
// simulating a concurrent responder.
type racingInquiryStore struct {
	*stubInquiryStore
	flipTo  string
	flipped bool
}

func (s *racingInquiryStore) GetByID(ctx context.Context, id uint64) (model.Inquiry, error) {
	inq, err := s.stubInquiryStore.GetByID(ctx, id)
	if err == nil && !s.flipped {
		s.flipped = true
		s.rows[id].Status = s.flipTo
	}
	return inq, err
}
