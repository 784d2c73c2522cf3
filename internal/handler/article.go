package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artspot/gallery-api/internal/repository"
)

// ArticleHandler serves editorial content. Articles are written in the CMS
// and replicated here, so the API surface is read-only.
type ArticleHandler struct {
	Articles *repository.ArticleRepo
}

func NewArticleHandler(articles *repository.ArticleRepo) *ArticleHandler {
	return &ArticleHandler{Articles: articles}
}

// List returns a filtered page of articles, newest first.
func (h *ArticleHandler) List(c echo.Context) error {
	q := repository.ArticleQuery{
		Category:  strings.TrimSpace(c.QueryParam("category")),
		Featured:  queryBool(c, "featured"),
		Search:    strings.TrimSpace(c.QueryParam("search")),
		PageQuery: pageQuery(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Articles.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return pagedJSON(c, http.StatusOK, rows, total, q.PageQuery)
}

// Featured returns the current featured articles for the home page.
func (h *ArticleHandler) Featured(c echo.Context) error {
	limit := 5
	if n := queryInt(c, "limit"); n != nil && *n > 0 && *n <= 20 {
		limit = *n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Articles.Featured(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GetBySlug returns one article by its public slug.
func (h *ArticleHandler) GetBySlug(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Articles.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "article not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, a)
}
