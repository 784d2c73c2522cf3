package repository

// PageQuery carries pagination parameters shared by every list method.
// Zero values are normalized by LimitOffset so callers can pass parsed
// query parameters straight through.
type PageQuery struct {
	Page  int
	Limit int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// LimitOffset returns SQL LIMIT/OFFSET values with the page clamped to >= 1
// and the limit clamped to 1..100.
func (p PageQuery) LimitOffset() (int, int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}

// Normalized returns the effective page and limit after clamping.
func (p PageQuery) Normalized() (int, int) {
	limit, offset := p.LimitOffset()
	return offset/limit + 1, limit
}
