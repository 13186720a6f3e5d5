package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenWithMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenWithMigrations(dbPath, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer db.Close()

	tables := []string{
		"schema_migrations", "text", "entry", "revision", "revision_item",
		"string", "freetext", "item", "time", "location", "quantity",
		"monolingual_string", "labels_etc", "scraper_item",
		"text2item", "event_log", "wikidata_mapping",
	}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist after migrations", table)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenWithMigrations(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, nil))

	var versions int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 5, versions)
}

func TestMigrate_ValueRowsAreIdempotent(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO "text" (value) VALUES ('42')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO entry (scraper_id, source_text_id, created_at) VALUES (1, 1, 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO revision (entry_id, created_at) VALUES (1, 0)`)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = db.Exec(`INSERT OR IGNORE INTO "item" (revision_id, property, qualifiers_text_id, item_id, item_type) VALUES (1, 31, 0, 5, 'item')`)
		require.NoError(t, err)
	}

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "item"`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestMigrate_ForeignKeysEnforced(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO revision (entry_id, created_at) VALUES (999, 0)`)
	assert.Error(t, err, "revision for unknown entry must be rejected")
}

func TestListMigrations(t *testing.T) {
	all, err := listMigrations()
	require.NoError(t, err)

	var versions []string
	for _, m := range all {
		versions = append(versions, m.version)
	}
	assert.Equal(t, []string{"000", "001", "002", "003", "004"}, versions)
	assert.Equal(t, "000_create_schema_migrations.sql", all[0].file)
}

func TestSchemaVersion(t *testing.T) {
	empty, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	empty.SetMaxOpenConns(1)
	defer empty.Close()

	version, err := SchemaVersion(empty)
	require.NoError(t, err)
	assert.Empty(t, version)

	require.NoError(t, Migrate(empty, nil))
	version, err = SchemaVersion(empty)
	require.NoError(t, err)
	assert.Equal(t, "004", version)
}
