// Package router maps the HTTP surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/handler"
	"github.com/artspot/gallery-api/internal/middleware"
	"github.com/artspot/gallery-api/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth        *handler.AuthHandler
	Inquiries   *handler.InquiryHandler
	Artists     *handler.ArtistHandler
	Artworks    *handler.ArtworkHandler
	Collections *handler.CollectionHandler
	Articles    *handler.ArticleHandler
	Favorites   *handler.FavoriteHandler
	Webhook     *handler.WebhookHandler
}

// Middlewares carries the cross-cutting middleware built in main: the Redis
// token bucket for the auth endpoints and the response cache for public
// browse endpoints. Either may be a pass-through when Redis is absent.
type Middlewares struct {
	AuthRateLimit echo.MiddlewareFunc
	PublicCache   echo.MiddlewareFunc
}

// Register wires all routes.
func Register(e *echo.Echo, h Handlers, mw Middlewares, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// Credential endpoints, rate limited per client.
	auth := e.Group("/v1/auth", mw.AuthRateLimit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public catalogue, served through the response cache.
	pub := e.Group("/v1", mw.PublicCache)
	pub.GET("/artists", h.Artists.List)
	pub.GET("/artists/:slug", h.Artists.GetBySlug)
	pub.GET("/artworks", h.Artworks.List)
	pub.GET("/artworks/:slug", h.Artworks.GetBySlug)
	pub.GET("/collections", h.Collections.List)
	pub.GET("/collections/:slug", h.Collections.GetBySlug)
	pub.GET("/articles", h.Articles.List)
	pub.GET("/articles/featured", h.Articles.Featured)
	pub.GET("/articles/:slug", h.Articles.GetBySlug)

	// Inquiry submission is public; a valid token links the inquiry to the
	// account but guests go through too.
	e.POST("/v1/inquiries", h.Inquiries.Create, middleware.OptionalJWTAuth(jwtSecret))

	// Endpoints that need a signed-in user.
	me := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	me.GET("/auth/profile", h.Auth.Profile)
	me.GET("/inquiries", h.Inquiries.ListOwn)
	me.GET("/favorites", h.Favorites.List)
	me.POST("/favorites", h.Favorites.Toggle)
	me.DELETE("/favorites/:id", h.Favorites.Delete)

	// Catalogue management and the inquiry queue, staff only.
	staff := e.Group("/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleGalleryStaff, model.RoleAdmin))
	staff.GET("/inquiries/admin", h.Inquiries.ListAdmin)
	staff.PATCH("/inquiries/:id", h.Inquiries.Respond)
	staff.POST("/artists", h.Artists.Create)
	staff.PUT("/artists/:id", h.Artists.Update)
	staff.DELETE("/artists/:id", h.Artists.Delete)
	staff.POST("/artworks", h.Artworks.Create)
	staff.PUT("/artworks/:id", h.Artworks.Update)
	staff.DELETE("/artworks/:id", h.Artworks.Delete)
	staff.PUT("/artworks/:id/images", h.Artworks.SetImages)
	staff.POST("/collections", h.Collections.Create)
	staff.PUT("/collections/:id", h.Collections.Update)
	staff.DELETE("/collections/:id", h.Collections.Delete)
	staff.PUT("/collections/:id/artworks", h.Collections.SetArtworks)

	// CMS callback, authenticated by shared secret instead of JWT.
	e.POST("/webhooks/cms", h.Webhook.CmsSync)
}
