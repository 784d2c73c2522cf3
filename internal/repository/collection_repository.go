package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/artspot/gallery-api/internal/model"
)

// ErrCollectionNotFound indicates that a collection was not located in the DB.
var ErrCollectionNotFound = errors.New("collection not found")

// CollectionRepo manages persistence for collections and their join rows.
type CollectionRepo struct{ db *sql.DB }

func NewCollectionRepo(db *sql.DB) *CollectionRepo { return &CollectionRepo{db: db} }

// CollectionQuery defines filters and pagination for listing collections.
type CollectionQuery struct {
	Search   string // matches title or description
	Featured *bool
	PageQuery
}

// CollectionRow is the list projection with the artwork count.
type CollectionRow struct {
	model.Collection
	ArtworkCount int64 `json:"artwork_count"`
}

// CollectionItem is an artwork row inside a collection, carrying its display
// order and artist summary.
type CollectionItem struct {
	model.Artwork
	DisplayOrder int     `json:"display_order"`
	ArtistName   string  `json:"artist_name"`
	ArtistSlug   string  `json:"artist_slug"`
	MainImageURL *string `json:"main_image_url"`
}

const collectionCols = `c.id, c.cms_id, c.slug, c.title, c.description, c.cover_image_url,
	c.featured, c.created_at, c.updated_at`

func scanCollection(row interface{ Scan(...any) error }, c *model.Collection, extra ...any) error {
	dest := []any{&c.ID, &c.CmsID, &c.Slug, &c.Title, &c.Description, &c.CoverImageURL,
		&c.Featured, &c.CreatedAt, &c.UpdatedAt}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// List returns a page of collections plus the total match count.
func (r *CollectionRepo) List(ctx context.Context, q CollectionQuery) ([]CollectionRow, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(c.title) LIKE ? OR LOWER(c.description) LIKE ?)")
		args = append(args, like, like)
	}
	if q.Featured != nil {
		where = append(where, "c.featured=?")
		args = append(args, *q.Featured)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections c WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := q.LimitOffset()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+collectionCols+`,
			(SELECT COUNT(*) FROM collection_artworks ca WHERE ca.collection_id = c.id) AS artwork_count
		 FROM collections c WHERE `+cond+`
		 ORDER BY c.created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []CollectionRow{}
	for rows.Next() {
		var c CollectionRow
		if err := scanCollection(rows, &c.Collection, &c.ArtworkCount); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// GetByID retrieves a collection by primary key.
func (r *CollectionRepo) GetByID(ctx context.Context, id uint64) (model.Collection, error) {
	return r.getOne(ctx, "c.id=?", id)
}

// GetBySlug retrieves a collection by its public slug.
func (r *CollectionRepo) GetBySlug(ctx context.Context, slug string) (model.Collection, error) {
	return r.getOne(ctx, "c.slug=?", slug)
}

func (r *CollectionRepo) getOne(ctx context.Context, cond string, arg any) (model.Collection, error) {
	var c model.Collection
	err := scanCollection(r.db.QueryRowContext(ctx,
		"SELECT "+collectionCols+" FROM collections c WHERE "+cond+" LIMIT 1", arg), &c)
	if err == sql.ErrNoRows {
		return c, ErrCollectionNotFound
	}
	return c, err
}

// Items returns the collection's artworks in display order.
func (r *CollectionRepo) Items(ctx context.Context, collectionID uint64) ([]CollectionItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+artworkCols+`, ca.display_order, a.name, a.slug,
			(SELECT i.secure_url FROM artwork_images i
			 WHERE i.artwork_id = w.id AND i.type = 'MAIN'
			 ORDER BY i.display_order LIMIT 1) AS main_image_url
		 FROM collection_artworks ca
		 JOIN artworks w ON w.id = ca.artwork_id
		 JOIN artists a ON a.id = w.artist_id
		 WHERE ca.collection_id=?
		 ORDER BY ca.display_order`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CollectionItem{}
	for rows.Next() {
		var it CollectionItem
		if err := scanArtwork(rows, &it.Artwork, &it.DisplayOrder, &it.ArtistName,
			&it.ArtistSlug, &it.MainImageURL); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Create inserts a collection. Duplicate slugs map to ErrConflict.
func (r *CollectionRepo) Create(ctx context.Context, c *model.Collection) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO collections (cms_id, slug, title, description, cover_image_url, featured)
		 VALUES (?,?,?,?,?,?)`,
		c.CmsID, c.Slug, c.Title, c.Description, c.CoverImageURL, c.Featured)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update rewrites every mutable column of the collection row.
func (r *CollectionRepo) Update(ctx context.Context, c *model.Collection) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE collections SET slug=?, title=?, description=?, cover_image_url=?, featured=?
		 WHERE id=?`,
		c.Slug, c.Title, c.Description, c.CoverImageURL, c.Featured, c.ID)
	if err != nil && isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Delete removes a collection; join rows go with it via FK cascade.
func (r *CollectionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM collections WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// SetArtworks replaces the collection's membership with the given artwork ids
// in one transaction; slice order becomes display order.
func (r *CollectionRepo) SetArtworks(ctx context.Context, collectionID uint64, artworkIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM collection_artworks WHERE collection_id=?", collectionID); err != nil {
		return err
	}
	for i, awID := range artworkIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collection_artworks (collection_id, artwork_id, display_order) VALUES (?,?,?)",
			collectionID, awID, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddArtwork appends one artwork to the collection if it is not already a
// member. Existing membership and ordering are untouched.
func (r *CollectionRepo) AddArtwork(ctx context.Context, collectionID, artworkID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collection_artworks (collection_id, artwork_id, display_order)
		 SELECT ?, ?, COALESCE(MAX(display_order)+1, 0)
		 FROM collection_artworks WHERE collection_id=?`,
		collectionID, artworkID, collectionID)
	if err != nil && isDuplicate(err) {
		return nil
	}
	return err
}

// GetIDByCmsID resolves a CMS entry id to the local primary key.
func (r *CollectionRepo) GetIDByCmsID(ctx context.Context, cmsID int64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM collections WHERE cms_id=? LIMIT 1", cmsID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrCollectionNotFound
	}
	return id, err
}

// UpsertByCms inserts or updates a collection keyed by its CMS entry id and
// returns the local primary key.
func (r *CollectionRepo) UpsertByCms(ctx context.Context, c *model.Collection) (uint64, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collections (cms_id, slug, title, description, cover_image_url, featured)
		 VALUES (?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			slug=VALUES(slug), title=VALUES(title), description=VALUES(description),
			cover_image_url=VALUES(cover_image_url), featured=VALUES(featured)`,
		c.CmsID, c.Slug, c.Title, c.Description, c.CoverImageURL, c.Featured)
	if err != nil {
		return 0, err
	}
	return r.GetIDByCmsID(ctx, *c.CmsID)
}

// DeleteByCmsID removes the replica row for a deleted CMS entry.
func (r *CollectionRepo) DeleteByCmsID(ctx context.Context, cmsID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM collections WHERE cms_id=?", cmsID)
	return err
}
