package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
)

// ArtworkHandler serves the catalogue: public browsing with filters and
// staff CRUD including image management.
type ArtworkHandler struct {
	Artworks *repository.ArtworkRepo
	Artists  *repository.ArtistRepo
}

func NewArtworkHandler(artworks *repository.ArtworkRepo, artists *repository.ArtistRepo) *ArtworkHandler {
	return &ArtworkHandler{Artworks: artworks, Artists: artists}
}

type artworkReq struct {
	ArtistID    *uint64  `json:"artist_id"`
	Slug        *string  `json:"slug"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Medium      *string  `json:"medium"`
	Style       *string  `json:"style"`
	Year        *int     `json:"year"`
	WidthCm     *float64 `json:"width_cm"`
	HeightCm    *float64 `json:"height_cm"`
	DepthCm     *float64 `json:"depth_cm"`
	PriceCents  *int64   `json:"price_cents"`
	Currency    *string  `json:"currency"`
	Status      *string  `json:"status"`
	Featured    *bool    `json:"featured"`
	Edition     *string  `json:"edition"`
	Materials   *string  `json:"materials"`
	Signature   *string  `json:"signature"`
	Certificate *bool    `json:"certificate"`
	Framed      *bool    `json:"framed"`
}

func (r artworkReq) apply(w *model.Artwork) {
	if r.ArtistID != nil {
		w.ArtistID = *r.ArtistID
	}
	if r.Slug != nil {
		w.Slug = strings.TrimSpace(*r.Slug)
	}
	if r.Title != nil {
		w.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		w.Description = trimPtr(r.Description)
	}
	if r.Medium != nil {
		w.Medium = strings.ToUpper(strings.TrimSpace(*r.Medium))
	}
	if r.Style != nil {
		w.Style = trimPtr(r.Style)
	}
	if r.Year != nil {
		w.Year = r.Year
	}
	if r.WidthCm != nil {
		w.WidthCm = r.WidthCm
	}
	if r.HeightCm != nil {
		w.HeightCm = r.HeightCm
	}
	if r.DepthCm != nil {
		w.DepthCm = r.DepthCm
	}
	if r.PriceCents != nil {
		w.PriceCents = *r.PriceCents
	}
	if r.Currency != nil {
		w.Currency = strings.ToUpper(strings.TrimSpace(*r.Currency))
	}
	if r.Status != nil {
		w.Status = strings.ToUpper(strings.TrimSpace(*r.Status))
	}
	if r.Featured != nil {
		w.Featured = *r.Featured
	}
	if r.Edition != nil {
		w.Edition = trimPtr(r.Edition)
	}
	if r.Materials != nil {
		w.Materials = trimPtr(r.Materials)
	}
	if r.Signature != nil {
		w.Signature = trimPtr(r.Signature)
	}
	if r.Certificate != nil {
		w.Certificate = *r.Certificate
	}
	if r.Framed != nil {
		w.Framed = *r.Framed
	}
}

func validArtworkStatus(s string) bool {
	switch s {
	case model.ArtworkAvailable, model.ArtworkReserved, model.ArtworkSold:
		return true
	}
	return false
}

// List returns a filtered page of artworks with artist summaries and main
// image URLs.
func (h *ArtworkHandler) List(c echo.Context) error {
	q := repository.ArtworkQuery{
		Medium:        strings.ToUpper(strings.TrimSpace(c.QueryParam("medium"))),
		Style:         strings.TrimSpace(c.QueryParam("style")),
		Status:        strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		Featured:      queryBool(c, "featured"),
		MinPriceCents: queryInt64(c, "min_price_cents"),
		MaxPriceCents: queryInt64(c, "max_price_cents"),
		MinYear:       queryInt(c, "min_year"),
		MaxYear:       queryInt(c, "max_year"),
		Search:        strings.TrimSpace(c.QueryParam("search")),
		PageQuery:     pageQuery(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// artist filter accepts a slug; resolve it before the list query
	if slug := strings.TrimSpace(c.QueryParam("artist")); slug != "" {
		a, err := h.Artists.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrArtistNotFound) {
				return pagedJSON(c, http.StatusOK, []repository.ArtworkRow{}, 0, q.PageQuery)
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		q.ArtistID = a.ID
	}

	rows, total, err := h.Artworks.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, q.PageQuery)
}

// GetBySlug returns one artwork with its full image set and bumps the view
// counter.
func (h *ArtworkHandler) GetBySlug(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	w, err := h.Artworks.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artwork not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	images, err := h.Artworks.Images(ctx, w.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// view count is best effort, a lost increment is fine
	if err := h.Artworks.IncrementViews(ctx, w.ID); err == nil {
		w.Views++
	}

	return c.JSON(http.StatusOK, struct {
		model.Artwork
		Images []model.ArtworkImage `json:"images"`
	}{w, images})
}

// Create adds an artwork. Staff only.
func (h *ArtworkHandler) Create(c echo.Context) error {
	var req artworkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w := model.Artwork{Currency: "USD", Status: model.ArtworkAvailable, Medium: "OTHER"}
	req.apply(&w)
	switch {
	case w.ArtistID == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "artist_id required"})
	case w.Slug == "" || w.Title == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and title required"})
	case w.PriceCents < 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	case !validArtworkStatus(w.Status):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Artists.GetByID(ctx, w.ArtistID); err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "artist not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Artworks.Create(ctx, &w); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, w)
}

// Update applies a partial update to an artwork. Staff only.
func (h *ArtworkHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artwork id"})
	}
	var req artworkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	w, err := h.Artworks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artwork not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	req.apply(&w)
	switch {
	case w.Slug == "" || w.Title == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and title required"})
	case w.PriceCents < 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	case !validArtworkStatus(w.Status):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.ArtistID != nil {
		if _, err := h.Artists.GetByID(ctx, w.ArtistID); err != nil {
			if errors.Is(err, repository.ErrArtistNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "artist not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	if err := h.Artworks.Update(ctx, &w); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, w)
}

// Delete removes an artwork and its images.
func (h *ArtworkHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artwork id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Artworks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artwork not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type imageReq struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	Type      string `json:"type"`
}

// SetImages replaces the artwork's image set. Slice order becomes display
// order; the first image defaults to MAIN when no type is given.
func (h *ArtworkHandler) SetImages(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artwork id"})
	}
	var reqs []imageReq
	if err := c.Bind(&reqs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	images := make([]model.ArtworkImage, 0, len(reqs))
	for i, r := range reqs {
		if r.URL == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "image url required"})
		}
		typ := strings.ToUpper(strings.TrimSpace(r.Type))
		switch typ {
		case model.ImageMain, model.ImageAlternate, model.ImageDetail:
		case "":
			if i == 0 {
				typ = model.ImageMain
			} else {
				typ = model.ImageAlternate
			}
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image type"})
		}
		secure := r.SecureURL
		if secure == "" {
			secure = r.URL
		}
		images = append(images, model.ArtworkImage{
			PublicID:  r.PublicID,
			URL:       r.URL,
			SecureURL: secure,
			Width:     r.Width,
			Height:    r.Height,
			Format:    r.Format,
			SizeBytes: r.SizeBytes,
			Type:      typ,
		})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Artworks.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artwork not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Artworks.ReplaceImages(ctx, id, images); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	out, err := h.Artworks.Images(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, out)
}
