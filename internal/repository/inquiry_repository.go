package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/artspot/gallery-api/internal/model"
)

// ErrInquiryNotFound indicates that an inquiry was not located in the DB.
var ErrInquiryNotFound = errors.New("inquiry not found")

// InquiryRepo manages persistence for customer inquiries.
type InquiryRepo struct{ db *sql.DB }

func NewInquiryRepo(db *sql.DB) *InquiryRepo { return &InquiryRepo{db: db} }

// InquiryQuery defines filters and pagination for inquiry lists. Search is
// honored only by ListAll (staff view).
type InquiryQuery struct {
	Status string
	Search string // matches customer name or email
	PageQuery
}

// InquiryRow is the list projection with the artwork summary and, for the
// staff view, the owning account when the inquiry was not a guest submission.
type InquiryRow struct {
	model.Inquiry
	ArtworkTitle string  `json:"artwork_title"`
	ArtworkSlug  string  `json:"artwork_slug"`
	MainImageURL *string `json:"main_image_url"`
	UserEmail    *string `json:"user_email,omitempty"`
	UserName     *string `json:"user_name,omitempty"`
}

const inquiryCols = `q.id, q.artwork_id, q.user_id, q.name, q.email, q.phone, q.message,
	q.status, q.response, q.responded_at, q.responded_by, q.created_at, q.updated_at`

func scanInquiry(row interface{ Scan(...any) error }, i *model.Inquiry, extra ...any) error {
	dest := []any{&i.ID, &i.ArtworkID, &i.UserID, &i.Name, &i.Email, &i.Phone, &i.Message,
		&i.Status, &i.Response, &i.RespondedAt, &i.RespondedBy, &i.CreatedAt, &i.UpdatedAt}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// Create inserts an inquiry with status PENDING and populates the generated
// ID and timestamps on the given struct.
func (r *InquiryRepo) Create(ctx context.Context, i *model.Inquiry) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO inquiries (artwork_id, user_id, name, email, phone, message) VALUES (?,?,?,?,?,?)",
		i.ArtworkID, i.UserID, i.Name, i.Email, i.Phone, i.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	i.ID = uint64(id)
	return scanInquiry(r.db.QueryRowContext(ctx,
		"SELECT "+inquiryCols+" FROM inquiries q WHERE q.id=?", i.ID), i)
}

// GetByID retrieves an inquiry by primary key.
func (r *InquiryRepo) GetByID(ctx context.Context, id uint64) (model.Inquiry, error) {
	var i model.Inquiry
	err := scanInquiry(r.db.QueryRowContext(ctx,
		"SELECT "+inquiryCols+" FROM inquiries q WHERE q.id=? LIMIT 1", id), &i)
	if err == sql.ErrNoRows {
		return i, ErrInquiryNotFound
	}
	return i, err
}

// ApplyResponse writes the staff response and/or status change in a single
// conditional UPDATE guarded on the status the caller read. If another
// responder changed the inquiry in between, zero rows match and ErrStale is
// returned so the caller can surface the race instead of double-applying a
// transition.
func (r *InquiryRepo) ApplyResponse(ctx context.Context, id uint64, fromStatus, toStatus string, response *string, respondedBy uint64) error {
	var (
		res sql.Result
		err error
	)
	if response != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE inquiries SET status=?, response=?, responded_at=NOW(), responded_by=?
			 WHERE id=? AND status=?`,
			toStatus, *response, respondedBy, id, fromStatus)
	} else {
		res, err = r.db.ExecContext(ctx,
			"UPDATE inquiries SET status=? WHERE id=? AND status=?",
			toStatus, id, fromStatus)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a vanished row from a concurrent status change.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM inquiries WHERE id=?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrInquiryNotFound
		}
		// Same-state no-op updates still match the WHERE clause in MySQL
		// (RowsAffected is 0 only when nothing changed), so treat a matched
		// but unchanged row as success.
		var cur string
		if err := r.db.QueryRowContext(ctx,
			"SELECT status FROM inquiries WHERE id=?", id).Scan(&cur); err != nil {
			return err
		}
		if cur != fromStatus {
			return ErrStale
		}
	}
	return nil
}

// ListByUser returns a page of the user's own inquiries.
func (r *InquiryRepo) ListByUser(ctx context.Context, userID uint64, q InquiryQuery) ([]InquiryRow, int64, error) {
	where := []string{"q.user_id=?"}
	args := []any{userID}
	if q.Status != "" {
		where = append(where, "q.status=?")
		args = append(args, strings.ToUpper(q.Status))
	}
	return r.list(ctx, where, args, q.PageQuery, false)
}

// ListAll returns a page of all inquiries for the staff view, optionally
// filtered by status and free-text search over customer name and email.
func (r *InquiryRepo) ListAll(ctx context.Context, q InquiryQuery) ([]InquiryRow, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.Status != "" {
		where = append(where, "q.status=?")
		args = append(args, strings.ToUpper(q.Status))
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(q.name) LIKE ? OR LOWER(q.email) LIKE ?)")
		args = append(args, like, like)
	}
	return r.list(ctx, where, args, q.PageQuery, true)
}

func (r *InquiryRepo) list(ctx context.Context, where []string, args []any, p PageQuery, withUser bool) ([]InquiryRow, int64, error) {
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inquiries q WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	userCols := "NULL, NULL"
	join := ""
	if withUser {
		userCols = "u.email, u.name"
		join = " LEFT JOIN users u ON u.id = q.user_id"
	}

	limit, offset := p.LimitOffset()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inquiryCols+`, w.title, w.slug,
			(SELECT i.secure_url FROM artwork_images i
			 WHERE i.artwork_id = w.id AND i.type = 'MAIN'
			 ORDER BY i.display_order LIMIT 1) AS main_image_url,
			`+userCols+`
		 FROM inquiries q
		 JOIN artworks w ON w.id = q.artwork_id`+join+`
		 WHERE `+cond+`
		 ORDER BY q.created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []InquiryRow{}
	for rows.Next() {
		var ir InquiryRow
		if err := scanInquiry(rows, &ir.Inquiry, &ir.ArtworkTitle, &ir.ArtworkSlug,
			&ir.MainImageURL, &ir.UserEmail, &ir.UserName); err != nil {
			return nil, 0, err
		}
		out = append(out, ir)
	}
	return out, total, rows.Err()
}
