package dbpkg

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"

	// Registers the postgres:// and postgresql:// database drivers.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// Registers the file:// migration source.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateUp applies every pending migration found at sourceURL to the database at databaseURL.
//
// An already up to date schema is not an error.
func MigrateUp(sourceURL, databaseURL string) (err error) {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate.New(%q): %w", sourceURL, err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}
