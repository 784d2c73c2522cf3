package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/utils"
)

// Context keys set by the auth middleware and read by handlers.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth validates a Bearer access token and stores the verified user id and
// role in the request context. Routes wrapped by it can rely on
// c.Get("user_id").(uint64) being present.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := bearerClaims(c, secret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid bearer token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// OptionalJWTAuth attaches the user identity when a valid Bearer token is
// presented and otherwise lets the request through anonymously. An invalid
// token is treated the same as no token; endpoints behind this middleware
// serve guests.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := bearerClaims(c, secret); ok {
				c.Set(CtxUserID, claims.UserID)
				c.Set(CtxRole, claims.Role)
			}
			return next(c)
		}
	}
}

func bearerClaims(c echo.Context, secret string) (utils.Claims, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return utils.Claims{}, false
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return utils.Claims{}, false
	}
	return claims, true
}
