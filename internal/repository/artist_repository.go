package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/artspot/gallery-api/internal/model"
)

// ErrArtistNotFound indicates that an artist was not located in the DB.
var ErrArtistNotFound = errors.New("artist not found")

// ArtistRepo manages persistence for artists.
type ArtistRepo struct{ db *sql.DB }

func NewArtistRepo(db *sql.DB) *ArtistRepo { return &ArtistRepo{db: db} }

// ArtistQuery defines filters and pagination for listing artists.
type ArtistQuery struct {
	Search   string // matches name, bio or location
	Featured *bool
	Verified *bool
	PageQuery
}

// ArtistRow is the list projection returned to clients, including a count of
// the artist's artworks.
type ArtistRow struct {
	model.Artist
	ArtworkCount int64 `json:"artwork_count"`
}

const artistCols = `a.id, a.cms_id, a.slug, a.name, a.bio, a.statement, a.location,
	a.website, a.email, a.phone, a.profile_image_url, a.featured, a.verified,
	a.created_at, a.updated_at`

func scanArtist(row interface{ Scan(...any) error }, a *model.Artist, extra ...any) error {
	dest := []any{&a.ID, &a.CmsID, &a.Slug, &a.Name, &a.Bio, &a.Statement, &a.Location,
		&a.Website, &a.Email, &a.Phone, &a.ProfileImageURL, &a.Featured, &a.Verified,
		&a.CreatedAt, &a.UpdatedAt}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// List returns a page of artists plus the total match count.
func (r *ArtistRepo) List(ctx context.Context, q ArtistQuery) ([]ArtistRow, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(a.name) LIKE ? OR LOWER(a.bio) LIKE ? OR LOWER(a.location) LIKE ?)")
		args = append(args, like, like, like)
	}
	if q.Featured != nil {
		where = append(where, "a.featured=?")
		args = append(args, *q.Featured)
	}
	if q.Verified != nil {
		where = append(where, "a.verified=?")
		args = append(args, *q.Verified)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM artists a WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := q.LimitOffset()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+artistCols+`,
			(SELECT COUNT(*) FROM artworks w WHERE w.artist_id = a.id) AS artwork_count
		 FROM artists a WHERE `+cond+`
		 ORDER BY a.created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []ArtistRow{}
	for rows.Next() {
		var a ArtistRow
		if err := scanArtist(rows, &a.Artist, &a.ArtworkCount); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// GetByID retrieves an artist by primary key.
func (r *ArtistRepo) GetByID(ctx context.Context, id uint64) (model.Artist, error) {
	return r.getOne(ctx, "a.id=?", id)
}

// GetBySlug retrieves an artist by its public slug.
func (r *ArtistRepo) GetBySlug(ctx context.Context, slug string) (model.Artist, error) {
	return r.getOne(ctx, "a.slug=?", slug)
}

func (r *ArtistRepo) getOne(ctx context.Context, cond string, arg any) (model.Artist, error) {
	var a model.Artist
	err := scanArtist(r.db.QueryRowContext(ctx,
		"SELECT "+artistCols+" FROM artists a WHERE "+cond+" LIMIT 1", arg), &a)
	if err == sql.ErrNoRows {
		return a, ErrArtistNotFound
	}
	return a, err
}

// Create inserts an artist and assigns the generated ID. Duplicate slugs map
// to ErrConflict.
func (r *ArtistRepo) Create(ctx context.Context, a *model.Artist) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO artists (cms_id, slug, name, bio, statement, location, website, email, phone,
			profile_image_url, featured, verified)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.CmsID, a.Slug, a.Name, a.Bio, a.Statement, a.Location, a.Website, a.Email, a.Phone,
		a.ProfileImageURL, a.Featured, a.Verified)
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
	a.ID = uint64(id)
	return nil
}

// Update rewrites every mutable column of the artist row.
func (r *ArtistRepo) Update(ctx context.Context, a *model.Artist) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE artists SET slug=?, name=?, bio=?, statement=?, location=?, website=?, email=?,
			phone=?, profile_image_url=?, featured=?, verified=? WHERE id=?`,
		a.Slug, a.Name, a.Bio, a.Statement, a.Location, a.Website, a.Email,
		a.Phone, a.ProfileImageURL, a.Featured, a.Verified, a.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean a no-change update; confirm existence.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM artists WHERE id=?)", a.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrArtistNotFound
		}
	}
	return nil
}

// Delete removes an artist. Deletion is blocked with ErrConflict while
// artworks still reference the artist.
func (r *ArtistRepo) Delete(ctx context.Context, id uint64) error {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM artworks WHERE artist_id=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM artists WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArtistNotFound
	}
	return nil
}

// GetIDByCmsID resolves a CMS entry id to the local primary key.
func (r *ArtistRepo) GetIDByCmsID(ctx context.Context, cmsID int64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM artists WHERE cms_id=? LIMIT 1", cmsID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrArtistNotFound
	}
	return id, err
}

// UpsertByCms inserts or updates an artist keyed by its CMS entry id.
// The operation is idempotent so webhook redeliveries are harmless.
func (r *ArtistRepo) UpsertByCms(ctx context.Context, a *model.Artist) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO artists (cms_id, slug, name, bio, statement, location, website, email, phone,
			profile_image_url, featured, verified)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			slug=VALUES(slug), name=VALUES(name), bio=VALUES(bio), statement=VALUES(statement),
			location=VALUES(location), website=VALUES(website), email=VALUES(email),
			phone=VALUES(phone), profile_image_url=VALUES(profile_image_url),
			featured=VALUES(featured), verified=VALUES(verified)`,
		a.CmsID, a.Slug, a.Name, a.Bio, a.Statement, a.Location, a.Website, a.Email, a.Phone,
		a.ProfileImageURL, a.Featured, a.Verified)
	return err
}

// DeleteByCmsID removes the replica row for a deleted CMS entry. Unknown ids
// are a no-op.
func (r *ArtistRepo) DeleteByCmsID(ctx context.Context, cmsID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM artists WHERE cms_id=?", cmsID)
	return err
}
