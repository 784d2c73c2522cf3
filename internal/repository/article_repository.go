package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/artspot/gallery-api/internal/model"
)

// ErrArticleNotFound indicates that an article was not located in the DB.
var ErrArticleNotFound = errors.New("article not found")

// ArticleRepo manages persistence for editorial articles. Articles are
// written only by the CMS bridge; the HTTP API reads them.
type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) *ArticleRepo { return &ArticleRepo{db: db} }

// ArticleQuery defines filters and pagination for listing articles.
type ArticleQuery struct {
	Category string
	Featured *bool
	Search   string // matches title or excerpt
	PageQuery
}

const articleCols = `id, cms_id, slug, title, content, excerpt, cover_image_url, author,
	category, published_at, featured, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }, a *model.Article) error {
	return row.Scan(&a.ID, &a.CmsID, &a.Slug, &a.Title, &a.Content, &a.Excerpt,
		&a.CoverImageURL, &a.Author, &a.Category, &a.PublishedAt, &a.Featured,
		&a.CreatedAt, &a.UpdatedAt)
}

// List returns a page of articles plus the total match count.
func (r *ArticleRepo) List(ctx context.Context, q ArticleQuery) ([]model.Article, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.Category != "" {
		where = append(where, "category=?")
		args = append(args, q.Category)
	}
	if q.Featured != nil {
		where = append(where, "featured=?")
		args = append(args, *q.Featured)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ?)")
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := q.LimitOffset()
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+articleCols+" FROM articles WHERE "+cond+
			" ORDER BY published_at DESC, created_at DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Article{}
	for rows.Next() {
		var a model.Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Featured returns up to limit featured articles, newest first.
func (r *ArticleRepo) Featured(ctx context.Context, limit int) ([]model.Article, error) {
	if limit < 1 || limit > maxPageSize {
		limit = 6
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+articleCols+" FROM articles WHERE featured=1 ORDER BY published_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Article{}
	for rows.Next() {
		var a model.Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetBySlug retrieves an article by its public slug.
func (r *ArticleRepo) GetBySlug(ctx context.Context, slug string) (model.Article, error) {
	var a model.Article
	err := scanArticle(r.db.QueryRowContext(ctx,
		"SELECT "+articleCols+" FROM articles WHERE slug=? LIMIT 1", slug), &a)
	if err == sql.ErrNoRows {
		return a, ErrArticleNotFound
	}
	return a, err
}

// UpsertByCms inserts or updates an article keyed by its CMS entry id.
func (r *ArticleRepo) UpsertByCms(ctx context.Context, a *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (cms_id, slug, title, content, excerpt, cover_image_url, author,
			category, published_at, featured)
		 VALUES (?,?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			slug=VALUES(slug), title=VALUES(title), content=VALUES(content),
			excerpt=VALUES(excerpt), cover_image_url=VALUES(cover_image_url),
			author=VALUES(author), category=VALUES(category),
			published_at=VALUES(published_at), featured=VALUES(featured)`,
		a.CmsID, a.Slug, a.Title, a.Content, a.Excerpt, a.CoverImageURL, a.Author,
		a.Category, a.PublishedAt, a.Featured)
	return err
}

// DeleteByCmsID removes the replica row for a deleted CMS entry.
func (r *ArticleRepo) DeleteByCmsID(ctx context.Context, cmsID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE cms_id=?", cmsID)
	return err
}
