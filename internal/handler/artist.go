package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
)

// ArtistHandler serves public artist browsing and staff CRUD.
type ArtistHandler struct {
	Artists  *repository.ArtistRepo
	Artworks *repository.ArtworkRepo
}

func NewArtistHandler(artists *repository.ArtistRepo, artworks *repository.ArtworkRepo) *ArtistHandler {
	return &ArtistHandler{Artists: artists, Artworks: artworks}
}

type artistReq struct {
	Slug            *string `json:"slug"`
	Name            *string `json:"name"`
	Bio             *string `json:"bio"`
	Statement       *string `json:"statement"`
	Location        *string `json:"location"`
	Website         *string `json:"website"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	ProfileImageURL *string `json:"profile_image_url"`
	Featured        *bool   `json:"featured"`
	Verified        *bool   `json:"verified"`
}

func (r artistReq) apply(a *model.Artist) {
	if r.Slug != nil {
		a.Slug = strings.TrimSpace(*r.Slug)
	}
	if r.Name != nil {
		a.Name = strings.TrimSpace(*r.Name)
	}
	if r.Bio != nil {
		a.Bio = trimPtr(r.Bio)
	}
	if r.Statement != nil {
		a.Statement = trimPtr(r.Statement)
	}
	if r.Location != nil {
		a.Location = trimPtr(r.Location)
	}
	if r.Website != nil {
		a.Website = trimPtr(r.Website)
	}
	if r.Email != nil {
		a.Email = trimPtr(r.Email)
	}
	if r.Phone != nil {
		a.Phone = trimPtr(r.Phone)
	}
	if r.ProfileImageURL != nil {
		a.ProfileImageURL = trimPtr(r.ProfileImageURL)
	}
	if r.Featured != nil {
		a.Featured = *r.Featured
	}
	if r.Verified != nil {
		a.Verified = *r.Verified
	}
}

// List returns a filtered page of artists with artwork counts.
func (h *ArtistHandler) List(c echo.Context) error {
	q := repository.ArtistQuery{
		Search:    strings.TrimSpace(c.QueryParam("search")),
		Featured:  queryBool(c, "featured"),
		Verified:  queryBool(c, "verified"),
		PageQuery: pageQuery(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Artists.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, q.PageQuery)
}

// GetBySlug returns one artist by its public slug, together with a preview of
// the artist's available artworks.
func (h *ArtistHandler) GetBySlug(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Artists.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artist not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	works, _, err := h.Artworks.List(ctx, repository.ArtworkQuery{
		ArtistID:  a.ID,
		Status:    model.ArtworkAvailable,
		PageQuery: repository.PageQuery{Page: 1, Limit: 12},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, struct {
		model.Artist
		Artworks []repository.ArtworkRow `json:"artworks"`
	}{a, works})
}

// Create adds an artist. Staff only.
func (h *ArtistHandler) Create(c echo.Context) error {
	var req artistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var a model.Artist
	req.apply(&a)
	if a.Slug == "" || a.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Artists.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, a)
}

// Update applies a partial update to an artist. Staff only.
func (h *ArtistHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artist id"})
	}
	var req artistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Artists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artist not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	req.apply(&a)
	if a.Slug == "" || a.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and name required"})
	}

	if err := h.Artists.Update(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, a)
}

// Delete removes an artist. Refused while artworks still reference it.
func (h *ArtistHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artist id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Artists.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrArtistNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artist not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "artist still has artworks"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
