package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Star bookmarks the song for the user. Starring an already starred song is
// not an error.
func (s *Store) Star(ctx context.Context, userID, songID int64) error {
	work := func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO stars (userid, songid)
			VALUES (@userid, @songid)
		`,
			sql.Named("userid", userID),
			sql.Named("songid", songID),
		)
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("starring song %d: %w", songID, err)
	}

	return nil
}

// Unstar removes the bookmark. Unstarring a song which is not starred is
// not an error.
func (s *Store) Unstar(ctx context.Context, userID, songID int64) error {
	work := func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			DELETE FROM stars
			WHERE userid = @userid AND songid = @songid
		`,
			sql.Named("userid", userID),
			sql.Named("songid", songID),
		)
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("unstarring song %d: %w", songID, err)
	}

	return nil
}

// IsStarred reports whether the user has starred the song.
func (s *Store) IsStarred(ctx context.Context, userID, songID int64) (bool, error) {
	var count int64
	work := func(db *sqlx.DB) error {
		return db.GetContext(ctx, &count, `
			SELECT COUNT(*) FROM stars
			WHERE userid = @userid AND songid = @songid
		`,
			sql.Named("userid", userID),
			sql.Named("songid", songID),
		)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return false, fmt.Errorf("checking star: %w", err)
	}

	return count > 0, nil
}
