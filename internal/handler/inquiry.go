package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
	"github.com/artspot/gallery-api/internal/service"
)

// InquiryHandler exposes the inquiry workflow: public submission, customer
// history and the staff queue.
type InquiryHandler struct {
	Inquiries *service.InquiryService
}

func NewInquiryHandler(inquiries *service.InquiryService) *InquiryHandler {
	return &InquiryHandler{Inquiries: inquiries}
}

type createInquiryReq struct {
	ArtworkID uint64  `json:"artwork_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Message   string  `json:"message"`
}

type respondReq struct {
	Response *string `json:"response"`
	Status   *string `json:"status"`
}

// Create accepts a public inquiry about an artwork. Works for guests; when a
// valid bearer token is attached the inquiry is linked to the account.
func (h *InquiryHandler) Create(c echo.Context) error {
	var req createInquiryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Message = strings.TrimSpace(req.Message)

	switch {
	case req.ArtworkID == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "artwork_id required"})
	case req.Name == "" || len(req.Name) > 100:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-100 characters"})
	case !emailValid(req.Email):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	case len(req.Message) < 10 || len(req.Message) > 5000:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message must be 10-5000 characters"})
	}

	in := service.CreateInquiryInput{
		ArtworkID: req.ArtworkID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     trimPtr(req.Phone),
		Message:   req.Message,
	}
	if uid := authedUserID(c); uid != 0 {
		in.UserID = &uid
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inq, err := h.Inquiries.Create(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artwork not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create inquiry failed"})
	}
	return c.JSON(http.StatusCreated, inq)
}

// ListOwn returns the authenticated user's inquiries, newest first.
func (h *InquiryHandler) ListOwn(c echo.Context) error {
	q := repository.InquiryQuery{
		Status:    normStatus(c.QueryParam("status")),
		PageQuery: pageQuery(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Inquiries.ListForUser(ctx, authedUserID(c), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, q.PageQuery)
}

// ListAdmin returns the full inquiry queue for staff, filterable by status
// and searchable by customer name or email.
func (h *InquiryHandler) ListAdmin(c echo.Context) error {
	q := repository.InquiryQuery{
		Status:    normStatus(c.QueryParam("status")),
		Search:    strings.TrimSpace(c.QueryParam("search")),
		PageQuery: pageQuery(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Inquiries.ListAll(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, q.PageQuery)
}

// Respond lets staff answer an inquiry and/or move its status. Supplying a
// response without a status implies RESPONDED.
func (h *InquiryHandler) Respond(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inquiry id"})
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Response = trimPtr(req.Response)
	if req.Response == nil && req.Status == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "response or status required"})
	}
	if req.Response != nil && len(*req.Response) > 5000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "response must be at most 5000 characters"})
	}
	if req.Status != nil {
		s := normStatus(*req.Status)
		switch s {
		case model.InquiryPending, model.InquiryResponded, model.InquiryClosed:
			req.Status = &s
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inq, err := h.Inquiries.Respond(ctx, id, authedUserID(c), service.RespondInput{
		Response: req.Response,
		Status:   req.Status,
	})
	if err != nil {
		var te *service.TransitionError
		switch {
		case errors.As(err, &te):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": te.Error()})
		case errors.Is(err, repository.ErrInquiryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "inquiry not found"})
		case errors.Is(err, service.ErrConcurrentUpdate):
			return c.JSON(http.StatusConflict, echo.Map{"error": "inquiry was updated concurrently, reload and retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, inq)
}

func normStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
