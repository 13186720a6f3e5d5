package db

import (
	"strings"

	"github.com/teranos/cersei/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database,
// typically a CLI command still draining work after the handle was closed.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// It matches wrapped ErrDatabaseClosed as well as raw driver errors, which
// cannot be wrapped at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	return strings.Contains(err.Error(), "database is closed")
}
