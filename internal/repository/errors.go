package repository

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrProductNotFound = errors.New("product not found")
)

// isUniqueViolation matches unique constraint errors from PostgreSQL,
// MySQL and SQLite.
func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "Duplicate entry")
}
