package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/db"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// Uses real migrations to ensure test schema matches production schema.
// The pool is limited to one connection: every connection to ":memory:"
// would otherwise be a separate, empty database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB := SetupEmptyDB(t)

	err := db.Migrate(testDB, nil)
	require.NoError(t, err, "Failed to run migrations")

	return testDB
}

// SetupEmptyDB creates an in-memory SQLite database without any schema.
// Used for testing error handling when tables are missing.
func SetupEmptyDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })
	return testDB
}
