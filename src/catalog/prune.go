package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// pruneBreak is the time the prune task will "rest" after doing a batch
// of its work.
var pruneBreak = 2 * time.Second

// pruneBatchLimit is the size of prune batch which will be selected from the
// database.
const pruneBatchLimit = 100

// RemovedEntry is a file or directory which is known to the catalog but is
// no longer on disk.
type RemovedEntry struct {
	LibraryID int64

	// Path is relative to the library root, with forward slashes.
	Path string

	// DirID is the directory cache entry for removed directories and zero
	// for removed files.
	DirID int64
}

// PruneStats counts the rows removed by Prune.
type PruneStats struct {
	Songs   int64
	Albums  int64
	Artists int64
}

// Prune removes from the catalog everything under the removed entries. Then
// it removes albums which were left without songs and artists which were
// left without albums. Only the libraries of the removed entries are swept
// for such orphans so that scans of other libraries running at the same
// time keep their artists and albums which are still being filled.
func (s *Store) Prune(ctx context.Context, removed []RemovedEntry) (PruneStats, error) {
	var (
		stats     PruneStats
		libraries []int64
	)

	for _, entry := range removed {
		deleted, err := s.pruneEntry(ctx, entry)
		if err != nil {
			return stats, fmt.Errorf("pruning %s: %w", entry.Path, err)
		}
		stats.Songs += deleted

		if !slices.Contains(libraries, entry.LibraryID) {
			libraries = append(libraries, entry.LibraryID)
		}
	}

	for _, libraryID := range libraries {
		albums, err := s.pruneOrphans(ctx, libraryID, `
			SELECT al.id FROM albums al
			JOIN artists ar ON ar.id = al.artistid
			LEFT JOIN songs s ON s.albumid = al.id
			WHERE s.id IS NULL AND ar.libraryid = @library
			LIMIT @limit
		`, `DELETE FROM albums WHERE id = @id AND NOT EXISTS (
			SELECT 1 FROM songs WHERE albumid = @id
		)`)
		stats.Albums += albums
		if err != nil {
			return stats, fmt.Errorf("pruning albums: %w", err)
		}

		artists, err := s.pruneOrphans(ctx, libraryID, `
			SELECT ar.id FROM artists ar
			LEFT JOIN albums al ON al.artistid = ar.id
			WHERE al.id IS NULL AND ar.libraryid = @library
			LIMIT @limit
		`, `DELETE FROM artists WHERE id = @id AND NOT EXISTS (
			SELECT 1 FROM albums WHERE artistid = @id
		)`)
		stats.Artists += artists
		if err != nil {
			return stats, fmt.Errorf("pruning artists: %w", err)
		}
	}

	return stats, nil
}

// pruneEntry deletes the songs, covers and directory cache entries at or
// under `entry`. Stars and playlist entries of the deleted songs go with
// them.
func (s *Store) pruneEntry(ctx context.Context, entry RemovedEntry) (int64, error) {
	var deleted int64

	work := func(db *sqlx.DB) error {
		return inTx(ctx, db, func(tx *sqlx.Tx) error {
			args := []any{
				sql.Named("library", entry.LibraryID),
				sql.Named("path", entry.Path),
				sql.Named("prefix", likePrefix(entry.Path)),
			}

			const matchingSongs = `
				SELECT id FROM songs
				WHERE library = @library
					AND (file = @path OR file LIKE @prefix ESCAPE '\')
			`

			statements := []string{
				`DELETE FROM stars WHERE songid IN (` + matchingSongs + `)`,
				`DELETE FROM playlist_entries WHERE songid IN (` + matchingSongs + `)`,
				`UPDATE albums SET coverid = NULL WHERE coverid IN (
					SELECT id FROM covers
					WHERE library = @library
						AND (path = @path OR path LIKE @prefix ESCAPE '\')
				)`,
				`DELETE FROM covers
				WHERE library = @library
					AND (path = @path OR path LIKE @prefix ESCAPE '\')`,
			}

			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
					return err
				}
			}

			res, err := tx.ExecContext(ctx, `
				DELETE FROM songs
				WHERE library = @library
					AND (file = @path OR file LIKE @prefix ESCAPE '\')
			`, args...)
			if err != nil {
				return err
			}
			deleted, err = res.RowsAffected()
			if err != nil {
				return err
			}

			if entry.DirID == 0 {
				return nil
			}

			_, err = tx.ExecContext(ctx, `
				DELETE FROM dirs WHERE id IN (
					WITH RECURSIVE subtree(id) AS (
						SELECT @dirid
						UNION ALL
						SELECT d.id FROM dirs d
						JOIN subtree ON d.parent = subtree.id
					)
					SELECT id FROM subtree
				)
			`, sql.Named("dirid", entry.DirID))
			return err
		})
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return 0, err
	}

	return deleted, nil
}

// pruneOrphans selects IDs of library `libraryID` with `selectQuery` in
// batches and deletes every one of them with `deleteQuery`. The delete query must check again that the
// row is still an orphan since the scanner may have added to it meanwhile.
func (s *Store) pruneOrphans(
	ctx context.Context,
	libraryID int64,
	selectQuery, deleteQuery string,
) (int64, error) {
	var total int64

	for {
		var ids []int64

		getIDs := func(db *sqlx.DB) error {
			return db.SelectContext(ctx, &ids, selectQuery,
				sql.Named("library", libraryID),
				sql.Named("limit", pruneBatchLimit),
			)
		}

		if err := s.ExecuteDBJobAndWait(getIDs); err != nil {
			return total, err
		}

		for _, id := range ids {
			removeOne := func(db *sqlx.DB) error {
				res, err := db.ExecContext(ctx, deleteQuery, sql.Named("id", id))
				if err != nil {
					return err
				}
				affected, err := res.RowsAffected()
				total += affected
				return err
			}

			if err := s.ExecuteDBJobAndWait(removeOne); err != nil {
				log.Error().Err(err).Int64("id", id).Msg("error pruning orphan")
			}
		}

		if len(ids) < pruneBatchLimit {
			return total, nil
		}

		select {
		case <-time.After(pruneBreak):
		case <-ctx.Done():
			return total, ctx.Err()
		}
	}
}

func likePrefix(path string) string {
	pattern := likePattern(path)
	// likePattern surrounds the value with wildcards. Only the trailing one
	// is wanted here.
	return pattern[1:len(pattern)-1] + "/%"
}
