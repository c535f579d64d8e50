package catalog

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a lookup by id or name matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRoot is returned when a library with the same path is
	// already registered.
	ErrDuplicateRoot = errors.New("library root already registered")

	// ErrDuplicatePlaylist is returned when the owner already has a playlist
	// with this name.
	ErrDuplicatePlaylist = errors.New("playlist with this name already exists")

	// ErrDuplicateUser is returned when a user with this username exists.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrWrongPassword is returned by CheckPassword for unknown users and
	// wrong passwords alike.
	ErrWrongPassword = errors.New("wrong username or password")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
