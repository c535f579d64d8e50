package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// KnownSong is the part of a stored song the scanner needs for
// reconciliation.
type KnownSong struct {
	ID   int64  `db:"id"`
	File string `db:"file"`
	Size int64  `db:"size"`
}

// DirID returns the ID of the directory cache entry `name` under `parent` in
// `library`, creating it when it does not exist. Parent 0 is the library
// root itself.
func (s *Store) DirID(ctx context.Context, library, parent int64, name string) (int64, error) {
	var id int64
	work := func(db *sqlx.DB) error {
		args := []any{
			sql.Named("library", library),
			sql.Named("parent", parent),
			sql.Named("name", name),
		}
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO dirs (library, parent, name)
			VALUES (@library, @parent, @name)
		`, args...)
		if err != nil {
			return err
		}

		return db.GetContext(ctx, &id, `
			SELECT id FROM dirs
			WHERE library = @library AND parent = @parent AND name = @name
		`, args...)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return 0, fmt.Errorf("dir %q: %w", name, err)
	}

	return id, nil
}

// ChildDirs returns the cached directories directly under `parent`.
func (s *Store) ChildDirs(ctx context.Context, library, parent int64) ([]Dir, error) {
	var dirs []Dir
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &dirs, `
			SELECT id, library, parent, name FROM dirs
			WHERE library = @library AND parent = @parent
		`,
			sql.Named("library", library),
			sql.Named("parent", parent),
		)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing child dirs: %w", err)
	}

	return dirs, nil
}

// UpsertArtist returns the ID of the artist for directory `dir`, creating it
// with `name` if it is not known yet. Existing artists keep their name.
func (s *Store) UpsertArtist(ctx context.Context, library, dir int64, name string) (int64, error) {
	var id int64
	work := func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO artists (libraryid, dir, name)
			VALUES (@library, @dir, @name)
		`,
			sql.Named("library", library),
			sql.Named("dir", dir),
			sql.Named("name", name),
		)
		if err != nil {
			return err
		}

		return db.GetContext(ctx, &id,
			`SELECT id FROM artists WHERE dir = @dir`,
			sql.Named("dir", dir),
		)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return 0, fmt.Errorf("artist %q: %w", name, err)
	}

	return id, nil
}

// UpsertAlbum returns the album of `artistID` for directory `dir`, creating
// it with `name` if it is not known yet.
func (s *Store) UpsertAlbum(ctx context.Context, artistID, dir int64, name string) (Album, error) {
	var album Album
	work := func(db *sqlx.DB) error {
		args := []any{
			sql.Named("artistid", artistID),
			sql.Named("dir", dir),
			sql.Named("name", name),
		}
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO albums (artistid, dir, name)
			VALUES (@artistid, @dir, @name)
		`, args...)
		if err != nil {
			return err
		}

		return db.GetContext(ctx, &album, `
			SELECT id, artistid, dir, name, coverid, added
			FROM albums
			WHERE artistid = @artistid AND dir = @dir
		`, args...)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return Album{}, fmt.Errorf("album %q: %w", name, err)
	}

	return album, nil
}

// AlbumSongs returns the stored songs of album `albumID`.
func (s *Store) AlbumSongs(ctx context.Context, albumID int64) ([]KnownSong, error) {
	var songs []KnownSong
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &songs,
			`SELECT id, file, size FROM songs WHERE albumid = @albumid ORDER BY id`,
			sql.Named("albumid", albumID),
		)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("album %d songs: %w", albumID, err)
	}

	return songs, nil
}

// BindCover stores the image at `path`, relative to the library root, and
// binds it to the album unless the album already has a cover. The first
// bound cover is never replaced. Returns whether the cover was bound.
func (s *Store) BindCover(
	ctx context.Context,
	library, albumID int64,
	path, imageType string,
	size int64,
) (bool, error) {
	var bound bool
	work := func(db *sqlx.DB) error {
		return inTx(ctx, db, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO covers (library, path, type, size)
				VALUES (@library, @path, @type, @size)
			`,
				sql.Named("library", library),
				sql.Named("path", path),
				sql.Named("type", imageType),
				sql.Named("size", size),
			)
			if err != nil {
				return fmt.Errorf("inserting cover: %w", err)
			}

			var coverID int64
			err = tx.GetContext(ctx, &coverID,
				`SELECT id FROM covers WHERE library = @library AND path = @path`,
				sql.Named("library", library),
				sql.Named("path", path),
			)
			if err != nil {
				return fmt.Errorf("selecting cover: %w", err)
			}

			res, err := tx.ExecContext(ctx, `
				UPDATE albums SET coverid = @coverid
				WHERE id = @albumid AND coverid IS NULL
			`,
				sql.Named("coverid", coverID),
				sql.Named("albumid", albumID),
			)
			if err != nil {
				return fmt.Errorf("binding cover: %w", err)
			}

			affected, err := res.RowsAffected()
			bound = affected > 0
			return err
		})
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return false, fmt.Errorf("cover %s: %w", path, err)
	}

	return bound, nil
}

// AlbumByDir returns the album of `artistID` in directory `dir` without
// creating it.
func (s *Store) AlbumByDir(ctx context.Context, artistID, dir int64) (Album, error) {
	var album Album
	work := func(db *sqlx.DB) error {
		err := db.GetContext(ctx, &album, `
			SELECT id, artistid, dir, name, coverid, added
			FROM albums
			WHERE artistid = @artistid AND dir = @dir
		`,
			sql.Named("artistid", artistID),
			sql.Named("dir", dir),
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return Album{}, fmt.Errorf("album in dir %d: %w", dir, err)
	}

	return album, nil
}
