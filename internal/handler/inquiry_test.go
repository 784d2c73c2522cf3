package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artspot/gallery-api/internal/middleware"
	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/queue"
	"github.com/artspot/gallery-api/internal/repository"
	"github.com/artspot/gallery-api/internal/service"
)

// memInquiryStore backs the inquiry service for handler tests.
type memInquiryStore struct {
	nextID uint64
	rows   map[uint64]*model.Inquiry
}

func (s *memInquiryStore) Create(_ context.Context, i *model.Inquiry) error {
	s.nextID++
	i.ID = s.nextID
	i.Status = model.InquiryPending
	i.CreatedAt = time.Now()
	cp := *i
	s.rows[i.ID] = &cp
	return nil
}

func (s *memInquiryStore) GetByID(_ context.Context, id uint64) (model.Inquiry, error) {
	row, ok := s.rows[id]
	if !ok {
		return model.Inquiry{}, repository.ErrInquiryNotFound
	}
	return *row, nil
}

func (s *memInquiryStore) ApplyResponse(_ context.Context, id uint64, fromStatus, toStatus string, response *string, respondedBy uint64) error {
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
	return nil
}

func (s *memInquiryStore) ListByUser(_ context.Context, userID uint64, _ repository.InquiryQuery) ([]repository.InquiryRow, int64, error) {
	var out []repository.InquiryRow
	for _, row := range s.rows {
		if row.UserID != nil && *row.UserID == userID {
			out = append(out, repository.InquiryRow{Inquiry: *row})
		}
	}
	return out, int64(len(out)), nil
}

func (s *memInquiryStore) ListAll(_ context.Context, _ repository.InquiryQuery) ([]repository.InquiryRow, int64, error) {
	var out []repository.InquiryRow
	for _, row := range s.rows {
		out = append(out, repository.InquiryRow{Inquiry: *row})
	}
	return out, int64(len(out)), nil
}

type memArtworkFinder map[uint64]model.Artwork

func (m memArtworkFinder) GetByID(_ context.Context, id uint64) (model.Artwork, error) {
	w, ok := m[id]
	if !ok {
		return model.Artwork{}, repository.ErrArtworkNotFound
	}
	return w, nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyInquiryReceived(queue.InquiryNotificationEvent)  {}
func (noopNotifier) NotifyInquiryResponded(queue.InquiryNotificationEvent) {}

func newInquiryHandler() (*InquiryHandler, *memInquiryStore) {
	store := &memInquiryStore{rows: map[uint64]*model.Inquiry{}}
	finder := memArtworkFinder{7: {ID: 7, Slug: "blue-nocturne", Title: "Blue Nocturne"}}
	svc := service.NewInquiryService(store, finder, noopNotifier{})
	return NewInquiryHandler(svc), store
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

const validInquiryBody = `{
	"artwork_id": 7,
	"name": "Grace",
	"email": "grace@example.com",
	"message": "Is this piece still available for viewing?"
}`

func TestCreateInquiryAsGuest(t *testing.T) {
	h, store := newInquiryHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/inquiries", validInquiryBody)
	require.NoError(t, h.Create(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.rows, 1)
	assert.Nil(t, store.rows[1].UserID)
	assert.Equal(t, model.InquiryPending, store.rows[1].Status)
}

func TestCreateInquiryLinksAuthenticatedUser(t *testing.T) {
	h, store := newInquiryHandler()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/v1/inquiries", validInquiryBody)
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, uint64(33))
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.rows[1].UserID)
	assert.Equal(t, uint64(33), *store.rows[1].UserID)
}

func TestCreateInquiryValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing artwork", `{"name":"G","email":"g@e.com","message":"A long enough message here."}`},
		{"missing name", `{"artwork_id":7,"email":"g@e.com","message":"A long enough message here."}`},
		{"bad email", `{"artwork_id":7,"name":"G","email":"not-an-email","message":"A long enough message here."}`},
		{"short message", `{"artwork_id":7,"name":"G","email":"g@e.com","message":"hi"}`},
		{"long name", `{"artwork_id":7,"name":"` + strings.Repeat("n", 101) + `","email":"g@e.com","message":"A long enough message here."}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, store := newInquiryHandler()
			e := echo.New()

			req, rec := jsonRequest(http.MethodPost, "/v1/inquiries", tc.body)
			require.NoError(t, h.Create(e.NewContext(req, rec)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.rows)
		})
	}
}

func TestCreateInquiryUnknownArtwork404(t *testing.T) {
	h, _ := newInquiryHandler()
	e := echo.New()

	body := strings.Replace(validInquiryBody, `"artwork_id": 7`, `"artwork_id": 999`, 1)
	req, rec := jsonRequest(http.MethodPost, "/v1/inquiries", body)
	require.NoError(t, h.Create(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func respondContext(t *testing.T, h *InquiryHandler, id string, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req, rec := jsonRequest(http.MethodPatch, "/v1/inquiries/"+id, body)
	c := e.NewContext(req, rec)
	c.SetPath("/v1/inquiries/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set(middleware.CtxUserID, uint64(101))
	c.Set(middleware.CtxRole, model.RoleGalleryStaff)
	require.NoError(t, h.Respond(c))
	return rec
}

func seedInquiry(t *testing.T, h *InquiryHandler) {
	t.Helper()
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/v1/inquiries", validInquiryBody)
	require.NoError(t, h.Create(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRespondHappyPath(t *testing.T) {
	h, store := newInquiryHandler()
	seedInquiry(t, h)

	rec := respondContext(t, h, "1", `{"response":"Viewings run every Thursday."}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.InquiryResponded, store.rows[1].Status)
	assert.Equal(t, uint64(101), *store.rows[1].RespondedBy)
}

func TestRespondInvalidTransition(t *testing.T) {
	h, store := newInquiryHandler()
	seedInquiry(t, h)
	store.rows[1].Status = model.InquiryClosed

	rec := respondContext(t, h, "1", `{"status":"PENDING"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot transition from CLOSED to PENDING")
}

func TestRespondUnknownStatusValue(t *testing.T) {
	h, _ := newInquiryHandler()
	seedInquiry(t, h)

	rec := respondContext(t, h, "1", `{"status":"ARCHIVED"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondEmptyBodyRejected(t *testing.T) {
	h, _ := newInquiryHandler()
	seedInquiry(t, h)

	rec := respondContext(t, h, "1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondUnknownInquiry404(t *testing.T) {
	h, _ := newInquiryHandler()

	rec := respondContext(t, h, "404", `{"response":"Hello?"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
