package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artspot/gallery-api/internal/model"
)

// ErrFavoriteNotFound indicates that a favorite was not located in the DB.
var ErrFavoriteNotFound = errors.New("favorite not found")

// FavoriteRepo manages the favorites join table.
type FavoriteRepo struct{ db *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// FavoriteRow is the list projection: the favorite plus a summary of the
// favorited artwork.
type FavoriteRow struct {
	model.Favorite
	ArtworkSlug   string  `json:"artwork_slug"`
	ArtworkTitle  string  `json:"artwork_title"`
	ArtworkStatus string  `json:"artwork_status"`
	PriceCents    int64   `json:"price_cents"`
	Currency      string  `json:"currency"`
	ArtistName    string  `json:"artist_name"`
	MainImageURL  *string `json:"main_image_url"`
}

// Toggle adds the artwork to the user's favorites, or removes it when already
// present. It returns the new favorited state and, when favorited, the row id.
// The unique (user_id, artwork_id) key resolves concurrent toggles: a losing
// duplicate insert is treated as already-favorited and removed.
func (r *FavoriteRepo) Toggle(ctx context.Context, userID, artworkID uint64) (bool, uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM favorites WHERE user_id=? AND artwork_id=? LIMIT 1",
		userID, artworkID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := r.db.ExecContext(ctx,
			"INSERT INTO favorites (user_id, artwork_id) VALUES (?,?)", userID, artworkID)
		if err != nil {
			if isDuplicate(err) {
				// Raced with another insert; fall through to removal.
				_, err = r.db.ExecContext(ctx,
					"DELETE FROM favorites WHERE user_id=? AND artwork_id=?", userID, artworkID)
				return false, 0, err
			}
			return false, 0, err
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return false, 0, err
		}
		return true, uint64(newID), nil
	case err != nil:
		return false, 0, err
	default:
		_, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE id=?", id)
		return false, 0, err
	}
}

// GetByID fetches a favorite row.
func (r *FavoriteRepo) GetByID(ctx context.Context, id uint64) (model.Favorite, error) {
	var f model.Favorite
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, artwork_id, created_at FROM favorites WHERE id=? LIMIT 1",
		id).Scan(&f.ID, &f.UserID, &f.ArtworkID, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return f, ErrFavoriteNotFound
	}
	return f, err
}

// Delete removes a favorite row.
func (r *FavoriteRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ListByUser returns a page of the user's favorites with artwork summaries.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uint64, p PageQuery) ([]FavoriteRow, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := p.LimitOffset()
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.id, f.user_id, f.artwork_id, f.created_at,
			w.slug, w.title, w.status, w.price_cents, w.currency, a.name,
			(SELECT i.secure_url FROM artwork_images i
			 WHERE i.artwork_id = w.id AND i.type = 'MAIN'
			 ORDER BY i.display_order LIMIT 1) AS main_image_url
		 FROM favorites f
		 JOIN artworks w ON w.id = f.artwork_id
		 JOIN artists a ON a.id = w.artist_id
		 WHERE f.user_id=?
		 ORDER BY f.created_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []FavoriteRow{}
	for rows.Next() {
		var fr FavoriteRow
		if err := rows.Scan(&fr.ID, &fr.UserID, &fr.ArtworkID, &fr.CreatedAt,
			&fr.ArtworkSlug, &fr.ArtworkTitle, &fr.ArtworkStatus, &fr.PriceCents,
			&fr.Currency, &fr.ArtistName, &fr.MainImageURL); err != nil {
			return nil, 0, err
		}
		out = append(out, fr)
	}
	return out, total, rows.Err()
}
