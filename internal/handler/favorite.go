package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/repository"
)

// FavoriteHandler manages the authenticated user's saved artworks.
type FavoriteHandler struct {
	Favorites *repository.FavoriteRepo
	Artworks  *repository.ArtworkRepo
}

func NewFavoriteHandler(favorites *repository.FavoriteRepo, artworks *repository.ArtworkRepo) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites, Artworks: artworks}
}

type toggleFavoriteReq struct {
	ArtworkID uint64 `json:"artwork_id"`
}

// Toggle adds the artwork to favorites, or removes it when already saved.
func (h *FavoriteHandler) Toggle(c echo.Context) error {
	var req toggleFavoriteReq
	if err := c.Bind(&req); err != nil || req.ArtworkID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "artwork_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Artworks.GetByID(ctx, req.ArtworkID); err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artwork not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	favorited, id, err := h.Favorites.Toggle(ctx, authedUserID(c), req.ArtworkID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}
	resp := echo.Map{"favorited": favorited, "artwork_id": req.ArtworkID}
	if favorited {
		resp["id"] = id
	}
	return c.JSON(http.StatusOK, resp)
}

// List returns the user's favorites with artwork summaries, newest first.
func (h *FavoriteHandler) List(c echo.Context) error {
	p := pageQuery(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Favorites.ListByUser(ctx, authedUserID(c), p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, p)
}

// Delete removes one favorite by id. Users can only delete their own rows.
func (h *FavoriteHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid favorite id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	fav, err := h.Favorites.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if fav.UserID != authedUserID(c) {
		// do not leak other users' favorite ids
		return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
	}
	if err := h.Favorites.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
