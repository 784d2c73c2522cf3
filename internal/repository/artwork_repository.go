package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/artspot/gallery-api/internal/model"
)

// ErrArtworkNotFound indicates that an artwork was not located in the DB.
var ErrArtworkNotFound = errors.New("artwork not found")

// ArtworkRepo manages persistence for artworks and their image rows.
type ArtworkRepo struct{ db *sql.DB }

func NewArtworkRepo(db *sql.DB) *ArtworkRepo { return &ArtworkRepo{db: db} }

// ArtworkQuery defines filters and pagination for browsing artworks.
type ArtworkQuery struct {
	ArtistID      uint64
	Medium        string
	Style         string
	Status        string
	Featured      *bool
	MinPriceCents *int64
	MaxPriceCents *int64
	MinYear       *int
	MaxYear       *int
	Search        string // matches title or description
	PageQuery
}

// ArtworkRow is the list projection: the artwork plus its artist summary and
// the MAIN image URL when one exists.
type ArtworkRow struct {
	model.Artwork
	ArtistName   string  `json:"artist_name"`
	ArtistSlug   string  `json:"artist_slug"`
	MainImageURL *string `json:"main_image_url"`
}

const artworkCols = `w.id, w.cms_id, w.artist_id, w.slug, w.title, w.description, w.medium,
	w.style, w.year, w.width_cm, w.height_cm, w.depth_cm, w.price_cents, w.currency,
	w.status, w.featured, w.edition, w.materials, w.signature, w.certificate, w.framed,
	w.views, w.created_at, w.updated_at`

func scanArtwork(row interface{ Scan(...any) error }, w *model.Artwork, extra ...any) error {
	dest := []any{&w.ID, &w.CmsID, &w.ArtistID, &w.Slug, &w.Title, &w.Description, &w.Medium,
		&w.Style, &w.Year, &w.WidthCm, &w.HeightCm, &w.DepthCm, &w.PriceCents, &w.Currency,
		&w.Status, &w.Featured, &w.Edition, &w.Materials, &w.Signature, &w.Certificate,
		&w.Framed, &w.Views, &w.CreatedAt, &w.UpdatedAt}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// List returns a page of artworks matching the query plus the total count.
func (r *ArtworkRepo) List(ctx context.Context, q ArtworkQuery) ([]ArtworkRow, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.ArtistID != 0 {
		where = append(where, "w.artist_id=?")
		args = append(args, q.ArtistID)
	}
	if q.Medium != "" {
		where = append(where, "w.medium=?")
		args = append(args, strings.ToUpper(q.Medium))
	}
	if q.Style != "" {
		where = append(where, "w.style=?")
		args = append(args, q.Style)
	}
	if q.Status != "" {
		where = append(where, "w.status=?")
		args = append(args, strings.ToUpper(q.Status))
	}
	if q.Featured != nil {
		where = append(where, "w.featured=?")
		args = append(args, *q.Featured)
	}
	if q.MinPriceCents != nil {
		where = append(where, "w.price_cents >= ?")
		args = append(args, *q.MinPriceCents)
	}
	if q.MaxPriceCents != nil {
		where = append(where, "w.price_cents <= ?")
		args = append(args, *q.MaxPriceCents)
	}
	if q.MinYear != nil {
		where = append(where, "w.year >= ?")
		args = append(args, *q.MinYear)
	}
	if q.MaxYear != nil {
		where = append(where, "w.year <= ?")
		args = append(args, *q.MaxYear)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(w.title) LIKE ? OR LOWER(w.description) LIKE ?)")
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM artworks w WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := q.LimitOffset()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+artworkCols+`, a.name, a.slug,
			(SELECT i.secure_url FROM artwork_images i
			 WHERE i.artwork_id = w.id AND i.type = 'MAIN'
			 ORDER BY i.display_order LIMIT 1) AS main_image_url
		 FROM artworks w
		 JOIN artists a ON a.id = w.artist_id
		 WHERE `+cond+`
		 ORDER BY w.created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []ArtworkRow{}
	for rows.Next() {
		var w ArtworkRow
		if err := scanArtwork(rows, &w.Artwork, &w.ArtistName, &w.ArtistSlug, &w.MainImageURL); err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

// GetByID retrieves an artwork by primary key.
func (r *ArtworkRepo) GetByID(ctx context.Context, id uint64) (model.Artwork, error) {
	return r.getOne(ctx, "w.id=?", id)
}

// GetBySlug retrieves an artwork by its public slug.
func (r *ArtworkRepo) GetBySlug(ctx context.Context, slug string) (model.Artwork, error) {
	return r.getOne(ctx, "w.slug=?", slug)
}

func (r *ArtworkRepo) getOne(ctx context.Context, cond string, arg any) (model.Artwork, error) {
	var w model.Artwork
	err := scanArtwork(r.db.QueryRowContext(ctx,
		"SELECT "+artworkCols+" FROM artworks w WHERE "+cond+" LIMIT 1", arg), &w)
	if err == sql.ErrNoRows {
		return w, ErrArtworkNotFound
	}
	return w, err
}

// Images returns an artwork's image rows ordered for display.
func (r *ArtworkRepo) Images(ctx context.Context, artworkID uint64) ([]model.ArtworkImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, artwork_id, public_id, url, secure_url, width, height, format, size_bytes,
			type, display_order, created_at
		 FROM artwork_images WHERE artwork_id=? ORDER BY display_order`, artworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ArtworkImage{}
	for rows.Next() {
		var im model.ArtworkImage
		if err := rows.Scan(&im.ID, &im.ArtworkID, &im.PublicID, &im.URL, &im.SecureURL,
			&im.Width, &im.Height, &im.Format, &im.SizeBytes, &im.Type, &im.DisplayOrder,
			&im.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// IncrementViews bumps the view counter. A single UPDATE keeps the increment
// atomic under concurrent reads.
func (r *ArtworkRepo) IncrementViews(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE artworks SET views = views + 1 WHERE id=?", id)
	return err
}

// Create inserts an artwork. Duplicate slugs map to ErrConflict.
func (r *ArtworkRepo) Create(ctx context.Context, w *model.Artwork) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO artworks (cms_id, artist_id, slug, title, description, medium, style, year,
			width_cm, height_cm, depth_cm, price_cents, currency, status, featured, edition,
			materials, signature, certificate, framed)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		w.CmsID, w.ArtistID, w.Slug, w.Title, w.Description, w.Medium, w.Style, w.Year,
		w.WidthCm, w.HeightCm, w.DepthCm, w.PriceCents, w.Currency, w.Status, w.Featured,
		w.Edition, w.Materials, w.Signature, w.Certificate, w.Framed)
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
	w.ID = uint64(id)
	return nil
}

// Update rewrites every mutable column of the artwork row.
func (r *ArtworkRepo) Update(ctx context.Context, w *model.Artwork) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE artworks SET artist_id=?, slug=?, title=?, description=?, medium=?, style=?,
			year=?, width_cm=?, height_cm=?, depth_cm=?, price_cents=?, currency=?, status=?,
			featured=?, edition=?, materials=?, signature=?, certificate=?, framed=?
		 WHERE id=?`,
		w.ArtistID, w.Slug, w.Title, w.Description, w.Medium, w.Style, w.Year,
		w.WidthCm, w.HeightCm, w.DepthCm, w.PriceCents, w.Currency, w.Status,
		w.Featured, w.Edition, w.Materials, w.Signature, w.Certificate, w.Framed, w.ID)
	if err != nil && isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Delete removes an artwork together with its dependent image, favorite and
// collection rows (FK cascades handle the children).
func (r *ArtworkRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM artworks WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArtworkNotFound
	}
	return nil
}

// ReplaceImages swaps the artwork's image rows for the given set in one
// transaction, preserving slice order as display order.
func (r *ArtworkRepo) ReplaceImages(ctx context.Context, artworkID uint64, images []model.ArtworkImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM artwork_images WHERE artwork_id=?", artworkID); err != nil {
		return err
	}
	for i, im := range images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artwork_images (artwork_id, public_id, url, secure_url, width, height,
				format, size_bytes, type, display_order)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			artworkID, im.PublicID, im.URL, im.SecureURL, im.Width, im.Height,
			im.Format, im.SizeBytes, im.Type, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetIDByCmsID resolves a CMS entry id to the local primary key.
func (r *ArtworkRepo) GetIDByCmsID(ctx context.Context, cmsID int64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM artworks WHERE cms_id=? LIMIT 1", cmsID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrArtworkNotFound
	}
	return id, err
}

// UpsertByCms inserts or updates an artwork keyed by its CMS entry id and
// returns the local primary key. Idempotent across webhook redeliveries.
func (r *ArtworkRepo) UpsertByCms(ctx context.Context, w *model.Artwork) (uint64, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO artworks (cms_id, artist_id, slug, title, description, medium, style, year,
			width_cm, height_cm, depth_cm, price_cents, currency, status, featured, edition,
			materials, signature, certificate, framed)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			artist_id=VALUES(artist_id), slug=VALUES(slug), title=VALUES(title),
			description=VALUES(description), medium=VALUES(medium), style=VALUES(style),
			year=VALUES(year), width_cm=VALUES(width_cm), height_cm=VALUES(height_cm),
			depth_cm=VALUES(depth_cm), price_cents=VALUES(price_cents), currency=VALUES(currency),
			status=VALUES(status), featured=VALUES(featured), edition=VALUES(edition),
			materials=VALUES(materials), signature=VALUES(signature),
			certificate=VALUES(certificate), framed=VALUES(framed)`,
		w.CmsID, w.ArtistID, w.Slug, w.Title, w.Description, w.Medium, w.Style, w.Year,
		w.WidthCm, w.HeightCm, w.DepthCm, w.PriceCents, w.Currency, w.Status, w.Featured,
		w.Edition, w.Materials, w.Signature, w.Certificate, w.Framed)
	if err != nil {
		return 0, err
	}
	return r.GetIDByCmsID(ctx, *w.CmsID)
}

// DeleteByCmsID removes the replica row for a deleted CMS entry.
func (r *ArtworkRepo) DeleteByCmsID(ctx context.Context, cmsID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM artworks WHERE cms_id=?", cmsID)
	return err
}
