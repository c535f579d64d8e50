package catalog

import (
	"fmt"
	"io/fs"
	"net/http"

	migrate "github.com/ironsmile/sql-migrate"
	"github.com/rs/zerolog/log"
)

// sqlMigrateDirectory is the directory whithin the `sqlFiles` which contains
// the .sql files for sql-migrate.
const sqlMigrateDirectory = "migrations"

// applyMigrations reads the database migrations dir and applies them to the
// currently open database if it is necessary. sql-migrate keeps the applied
// migrations in its own table which serves as the schema version marker.
func (s *Store) applyMigrations() error {
	migrationFiles, err := fs.Sub(s.sqlFiles, sqlMigrateDirectory)
	if err != nil {
		return fmt.Errorf("locating migrate dir within sqlFiles fs.FS failed: %w", err)
	}

	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(migrationFiles),
	}

	applied, err := migrate.ExecMax(s.db.DB, "sqlite3", migrations, migrate.Up, 0)
	if err == nil {
		if applied > 0 {
			log.Info().Int("count", applied).Msg("applied database migrations")
		}
		return nil
	}

	if _, ok := err.(*migrate.PlanError); ok {
		log.Error().Err(err).Msg("error applying database migrations")
		return nil
	}

	return fmt.Errorf("executing db migration failed: %w", err)
}
