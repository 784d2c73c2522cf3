// Package handler contains the HTTP layer: request binding, validation and
// response shaping. Business rules live in service; SQL lives in repository.
package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/middleware"
	"github.com/artspot/gallery-api/internal/repository"
)

// dbTimeout bounds every database call made on behalf of a request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// authedUserID returns the authenticated user id, or 0 when the request is
// anonymous (possible behind OptionalJWTAuth).
func authedUserID(c echo.Context) uint64 {
	id, _ := c.Get(middleware.CtxUserID).(uint64)
	return id
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// pageQuery parses ?page= and ?limit= with clamping left to the repository.
func pageQuery(c echo.Context) repository.PageQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return repository.PageQuery{Page: page, Limit: limit}
}

func queryBool(c echo.Context, name string) *bool {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func queryInt(c echo.Context, name string) *int {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func queryInt64(c echo.Context, name string) *int64 {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// pagination is the envelope metadata attached to every list response.
type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// pagedJSON writes the standard list envelope: {"data": ..., "pagination": ...}.
func pagedJSON(c echo.Context, status int, data any, total int64, p repository.PageQuery) error {
	page, limit := p.Normalized()
	pages := int((total + int64(limit) - 1) / int64(limit))
	return c.JSON(status, echo.Map{
		"data": data,
		"pagination": pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: pages,
		},
	})
}

// emailValid does a cheap shape check; real verification is out of band.
func emailValid(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	dot := strings.LastIndex(s[at:], ".")
	return dot > 1 && at+dot < len(s)-1
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
