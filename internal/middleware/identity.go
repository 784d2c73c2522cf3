package middleware

// identity.go holds small helpers shared by the rate limit and cache
// middleware for identifying the caller.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user id as a string, or "anon" for
// unauthenticated requests. Used as a rate limit key component.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(CtxUserID).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
