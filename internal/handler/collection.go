package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/repository"
)

// CollectionHandler serves curated collections: public browsing and staff
// CRUD including membership.
type CollectionHandler struct {
	Collections *repository.CollectionRepo
	Artworks    *repository.ArtworkRepo
}

func NewCollectionHandler(collections *repository.CollectionRepo, artworks *repository.ArtworkRepo) *CollectionHandler {
	return &CollectionHandler{Collections: collections, Artworks: artworks}
}

type collectionReq struct {
	Slug          *string `json:"slug"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	CoverImageURL *string `json:"cover_image_url"`
	Featured      *bool   `json:"featured"`
}

func (r collectionReq) apply(col *model.Collection) {
	if r.Slug != nil {
		col.Slug = strings.TrimSpace(*r.Slug)
	}
	if r.Title != nil {
		col.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		col.Description = trimPtr(r.Description)
	}
	if r.CoverImageURL != nil {
		col.CoverImageURL = trimPtr(r.CoverImageURL)
	}
	if r.Featured != nil {
		col.Featured = *r.Featured
	}
}

// List returns a filtered page of collections with artwork counts.
func (h *CollectionHandler) List(c echo.Context) error {
	q := repository.CollectionQuery{
		Search:    strings.TrimSpace(c.QueryParam("search")),
		Featured:  queryBool(c, "featured"),
		PageQuery: pageQuery(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Collections.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, q.PageQuery)
}

// GetBySlug returns one collection with its artworks in display order.
func (h *CollectionHandler) GetBySlug(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	col, err := h.Collections.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items, err := h.Collections.Items(ctx, col.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, struct {
		model.Collection
		Artworks []repository.CollectionItem `json:"artworks"`
	}{col, items})
}

// Create adds a collection. Staff only.
func (h *CollectionHandler) Create(c echo.Context) error {
	var req collectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var col model.Collection
	req.apply(&col)
	if col.Slug == "" || col.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and title required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Collections.Create(ctx, &col); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, col)
}

// Update applies a partial update to a collection. Staff only.
func (h *CollectionHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid collection id"})
	}
	var req collectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	col, err := h.Collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	req.apply(&col)
	if col.Slug == "" || col.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and title required"})
	}

	if err := h.Collections.Update(ctx, &col); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, col)
}

// Delete removes a collection. Its artworks are untouched.
func (h *CollectionHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid collection id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Collections.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type setArtworksReq struct {
	ArtworkIDs []uint64 `json:"artwork_ids"`
}

// SetArtworks replaces the collection's membership; slice order becomes
// display order. Staff only.
func (h *CollectionHandler) SetArtworks(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid collection id"})
	}
	var req setArtworksReq
	if err := c.Bind(&req); err != nil || req.ArtworkIDs == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "artwork_ids required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Collections.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, awID := range req.ArtworkIDs {
		if _, err := h.Artworks.GetByID(ctx, awID); err != nil {
			if errors.Is(err, repository.ErrArtworkNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "artwork not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	if err := h.Collections.SetArtworks(ctx, id, req.ArtworkIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	items, err := h.Collections.Items(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}
