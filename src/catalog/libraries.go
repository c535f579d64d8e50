package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

// AddLibrary registers a new library root. Returns ErrDuplicateRoot when a
// library with the same path is already registered.
func (s *Store) AddLibrary(ctx context.Context, name, path string) (Library, error) {
	if !filepath.IsAbs(path) {
		return Library{}, fmt.Errorf("library path %q is not absolute", path)
	}
	path = filepath.Clean(path)

	lib := Library{Name: name, Path: path}
	work := func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO libraries (name, path) VALUES (@name, @path)`,
			sql.Named("name", name),
			sql.Named("path", path),
		)
		if isUniqueViolation(err) {
			return ErrDuplicateRoot
		} else if err != nil {
			return err
		}

		lib.ID, err = res.LastInsertId()
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return Library{}, fmt.Errorf("adding library %s: %w", path, err)
	}

	return lib, nil
}

// Libraries returns all registered libraries.
func (s *Store) Libraries(ctx context.Context) ([]Library, error) {
	var libs []Library
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &libs,
			`SELECT id, name, path FROM libraries ORDER BY id`)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing libraries: %w", err)
	}

	return libs, nil
}

// Library returns the library with ID `id`.
func (s *Store) Library(ctx context.Context, id int64) (Library, error) {
	var lib Library
	work := func(db *sqlx.DB) error {
		err := db.GetContext(ctx, &lib,
			`SELECT id, name, path FROM libraries WHERE id = @id`,
			sql.Named("id", id),
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return Library{}, fmt.Errorf("library %d: %w", id, err)
	}

	return lib, nil
}
