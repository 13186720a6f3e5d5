// Package db opens the catalog's SQLite database and keeps its schema current.
//
// The schema is a sequence of embedded migrations, applied in version order,
// each in its own transaction and recorded in schema_migrations:
//
//	000  schema_migrations
//	001  text pool, entry (one per scraper and source id), revision and
//	     revision_item (the canonical snapshot of each revision)
//	002  one value table per value kind, keyed by revision, property and
//	     qualifiers, plus labels_etc
//	003  text2item (the resolution cache) and event_log (scrape runs)
//	004  wikidata_mapping (the entity an entry describes)
//
// Timestamps are unix nanoseconds. Texts are interned in "text" and value rows
// refer to them by id.
package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/sym"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationDir = "sqlite/migrations"

// migration is one embedded schema file, e.g. 003_resolver_and_events.sql.
type migration struct {
	version string
	file    string
}

// listMigrations returns the embedded migrations in version order.
func listMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			return nil, errors.Newf("migration %s has no version prefix", e.Name())
		}
		out = append(out, migration{version: version, file: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// Migrate applies every migration not yet recorded in schema_migrations.
// A nil logger migrates silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	log = logger.OrNop(log)
	all, err := listMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range all {
		done, err := isApplied(db, m)
		if err != nil {
			return err
		}
		if done {
			log.Debugw("Skipping migration (already applied)",
				"migration", m.file,
				"version", m.version)
			continue
		}

		log.Infow("Applying migration",
			"migration", m.file,
			"version", m.version)
		if err := apply(db, m); err != nil {
			return err
		}
		applied++
	}

	log.Infow("Migrations complete",
		"symbol", sym.DB,
		"total_migrations", len(all),
		"applied", applied)
	return nil
}

// isApplied reports whether m is recorded. Before 000 has run there is no
// schema_migrations table, and only 000 may be pending.
func isApplied(db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	if err != nil {
		if m.version != "000" {
			return false, errors.Newf("schema_migrations table missing, but migration is not 000: %s", m.file)
		}
		return false, nil
	}
	return exists, nil
}

// apply runs m and records it in one transaction.
func apply(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	if _, err := tx.Exec(string(body)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.file)
	}
	// 000 creates the table, then records itself
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}

// SchemaVersion returns the newest applied migration version, or "" for a
// database that was never migrated.
func SchemaVersion(db *sql.DB) (string, error) {
	var version sql.NullString
	err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return "", nil
		}
		return "", errors.Wrap(err, "read schema version")
	}
	return version.String, nil
}
