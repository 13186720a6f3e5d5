package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/db"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/storage"
)

// LoadDotEnv loads KEY=value pairs from path into the environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

// databasePath resolves the database path: --db flag, then config.
func databasePath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, nil
	}
	path, err := am.GetDatabasePath()
	if err != nil {
		return "", errors.Wrap(err, "failed to get database path")
	}
	if path == "" {
		path = "cersei.db"
	}
	return path, nil
}

// openStore opens and migrates the database and wraps it in a store.
// The returned func closes the database.
func openStore(cmd *cobra.Command) (*storage.SQLStore, func(), error) {
	path, err := databasePath(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.OpenWithMigrations(path, logger.ComponentLogger("db"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	store := storage.NewSQLStore(database, logger.ComponentLogger("storage"))
	return store, func() { _ = database.Close() }, nil
}

func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}
