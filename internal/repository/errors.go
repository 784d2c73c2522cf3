// Package repository contains the data access layer. Each repository wraps a
// *sql.DB and exposes typed methods over raw SQL. Sentinel errors defined
// here let handlers map failures onto HTTP status codes without inspecting
// driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as deleting an artist that still has artworks or
// inserting a duplicate slug. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrStale is returned by conditional updates that matched zero rows because
// another writer changed the row first. The caller's read is out of date.
var ErrStale = errors.New("stale update")

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	// go-sql-driver surfaces the server error text including the code.
	return strings.Contains(err.Error(), "1062")
}
