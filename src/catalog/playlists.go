package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
)

// PlaylistUpdate is everything which could be changed in a playlist. Zero
// values leave the playlist as it is. Entries are removed first, by index
// and then by song, and new songs are appended after that.
type PlaylistUpdate struct {
	Name          string
	Comment       *string
	Public        *bool
	RemoveIndexes []int
	RemoveSongs   []int64
	AddSongs      []int64
}

const selectPlaylistsQuery = `
	SELECT
		p.id,
		p.ownerid,
		IFNULL(u.username, '') AS owner,
		p.name,
		p.comment,
		p.public,
		p.created,
		p.changed,
		p.cover,
		COUNT(s.id) AS songcount,
		IFNULL(SUM(CASE WHEN s.length > 0 THEN s.length ELSE 0 END), 0) AS duration
	FROM playlists p
	LEFT JOIN users u ON u.id = p.ownerid
	LEFT JOIN playlist_entries e ON e.playlistid = p.id
	LEFT JOIN songs s ON s.id = e.songid
`

// CreatePlaylist creates a playlist of `ownerID` with the songs `songIDs` in
// this order. The playlist and its entries are created in one transaction.
func (s *Store) CreatePlaylist(
	ctx context.Context,
	ownerID int64,
	name string,
	songIDs []int64,
) (int64, error) {
	var id int64
	now := time.Now().Unix()

	work := func(db *sqlx.DB) error {
		return inTx(ctx, db, func(tx *sqlx.Tx) error {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO playlists (ownerid, name, created, changed)
				VALUES (@ownerid, @name, @now, @now)
			`,
				sql.Named("ownerid", ownerID),
				sql.Named("name", name),
				sql.Named("now", now),
			)
			if isUniqueViolation(err) {
				return ErrDuplicatePlaylist
			} else if err != nil {
				return fmt.Errorf("inserting playlist: %w", err)
			}

			id, err = res.LastInsertId()
			if err != nil {
				return err
			}

			return insertEntries(ctx, tx, id, 0, songIDs)
		})
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return 0, fmt.Errorf("creating playlist %q: %w", name, err)
	}

	return id, nil
}

func insertEntries(ctx context.Context, tx *sqlx.Tx, playlistID int64, from int, songIDs []int64) error {
	for i, songID := range songIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO playlist_entries (playlistid, songid, position)
			VALUES (@playlistid, @songid, @position)
		`,
			sql.Named("playlistid", playlistID),
			sql.Named("songid", songID),
			sql.Named("position", from+i),
		)
		if err != nil {
			return fmt.Errorf("inserting playlist entry: %w", err)
		}
	}

	return nil
}

// Playlists returns the playlists visible to `userID`: the ones they own
// and all public playlists.
func (s *Store) Playlists(ctx context.Context, userID int64) ([]Playlist, error) {
	var playlists []Playlist
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &playlists, selectPlaylistsQuery+`
			WHERE p.ownerid = @userid OR p.public = 1
			GROUP BY p.id
			ORDER BY p.name, p.id
		`, sql.Named("userid", userID))
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	return playlists, nil
}

// Playlist returns the playlist with ID `id` without its entries.
func (s *Store) Playlist(ctx context.Context, id int64) (Playlist, error) {
	var playlist Playlist
	work := func(db *sqlx.DB) error {
		err := db.GetContext(ctx, &playlist, selectPlaylistsQuery+`
			WHERE p.id = @id
			GROUP BY p.id
		`, sql.Named("id", id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return Playlist{}, fmt.Errorf("playlist %d: %w", id, err)
	}

	return playlist, nil
}

// PlaylistEntries returns the songs of a playlist in their order.
func (s *Store) PlaylistEntries(ctx context.Context, playlistID int64) ([]PlaylistEntry, error) {
	var entries []PlaylistEntry
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &entries,
			"SELECT e.position, "+songColumns+`
			FROM playlist_entries e
			JOIN songs s ON s.id = e.songid
			`+songJoins+`
			WHERE e.playlistid = @playlistid
			ORDER BY e.position
		`, sql.Named("playlistid", playlistID))
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("playlist %d entries: %w", playlistID, err)
	}

	return entries, nil
}

// UpdatePlaylist applies `update` to the playlist in one transaction.
func (s *Store) UpdatePlaylist(ctx context.Context, id int64, update PlaylistUpdate) error {
	now := time.Now().Unix()

	work := func(db *sqlx.DB) error {
		return inTx(ctx, db, func(tx *sqlx.Tx) error {
			var exists int64
			err := tx.GetContext(ctx, &exists,
				`SELECT COUNT(*) FROM playlists WHERE id = @id`,
				sql.Named("id", id),
			)
			if err != nil {
				return err
			}
			if exists == 0 {
				return ErrNotFound
			}

			if update.Name != "" {
				_, err := tx.ExecContext(ctx,
					`UPDATE playlists SET name = @name WHERE id = @id`,
					sql.Named("name", update.Name),
					sql.Named("id", id),
				)
				if isUniqueViolation(err) {
					return ErrDuplicatePlaylist
				} else if err != nil {
					return fmt.Errorf("renaming playlist: %w", err)
				}
			}

			if update.Comment != nil {
				_, err := tx.ExecContext(ctx,
					`UPDATE playlists SET comment = @comment WHERE id = @id`,
					sql.Named("comment", *update.Comment),
					sql.Named("id", id),
				)
				if err != nil {
					return fmt.Errorf("setting playlist comment: %w", err)
				}
			}

			if update.Public != nil {
				_, err := tx.ExecContext(ctx,
					`UPDATE playlists SET public = @public WHERE id = @id`,
					sql.Named("public", *update.Public),
					sql.Named("id", id),
				)
				if err != nil {
					return fmt.Errorf("setting playlist visibility: %w", err)
				}
			}

			if err := rewriteEntries(ctx, tx, id, update); err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx,
				`UPDATE playlists SET changed = @now WHERE id = @id`,
				sql.Named("now", now),
				sql.Named("id", id),
			)
			return err
		})
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("updating playlist %d: %w", id, err)
	}

	return nil
}

// rewriteEntries removes and appends the entries from `update` and then
// stores the playlist with positions 0..n-1.
func rewriteEntries(ctx context.Context, tx *sqlx.Tx, id int64, update PlaylistUpdate) error {
	if len(update.RemoveIndexes) == 0 &&
		len(update.RemoveSongs) == 0 &&
		len(update.AddSongs) == 0 {
		return nil
	}

	var current []int64
	err := tx.SelectContext(ctx, &current, `
		SELECT songid FROM playlist_entries
		WHERE playlistid = @id
		ORDER BY position
	`, sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("selecting playlist entries: %w", err)
	}

	songs := make([]int64, 0, len(current)+len(update.AddSongs))
	for index, songID := range current {
		if slices.Contains(update.RemoveIndexes, index) {
			continue
		}
		if slices.Contains(update.RemoveSongs, songID) {
			continue
		}
		songs = append(songs, songID)
	}
	songs = append(songs, update.AddSongs...)

	_, err = tx.ExecContext(ctx,
		`DELETE FROM playlist_entries WHERE playlistid = @id`,
		sql.Named("id", id),
	)
	if err != nil {
		return fmt.Errorf("clearing playlist entries: %w", err)
	}

	return insertEntries(ctx, tx, id, 0, songs)
}

// DeletePlaylist removes the playlist and its entries. There is no cascade
// in the schema so the entries are deleted first, in the same transaction.
func (s *Store) DeletePlaylist(ctx context.Context, id int64) error {
	work := func(db *sqlx.DB) error {
		return inTx(ctx, db, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM playlist_entries WHERE playlistid = @id`,
				sql.Named("id", id),
			)
			if err != nil {
				return fmt.Errorf("deleting entries: %w", err)
			}

			res, err := tx.ExecContext(ctx,
				`DELETE FROM playlists WHERE id = @id`,
				sql.Named("id", id),
			)
			if err != nil {
				return fmt.Errorf("deleting playlist: %w", err)
			}

			if affected, err := res.RowsAffected(); err != nil {
				return err
			} else if affected == 0 {
				return ErrNotFound
			}

			return nil
		})
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("deleting playlist %d: %w", id, err)
	}

	return nil
}
