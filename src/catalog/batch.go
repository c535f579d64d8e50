package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// NewSong is a song found on disk which is not in the catalog yet.
type NewSong struct {
	LibraryID int64
	AlbumID   int64
	File      string
	Size      int64
	Title     string
	Format    string
}

// SizeChange records that the file of a song has a new size on disk.
type SizeChange struct {
	SongID int64
	Size   int64
}

// SongMetadata is the result of reading the tags of a single song. Empty
// strings mean "keep what is stored".
type SongMetadata struct {
	SongID  int64
	Title   string
	Artist  string
	Album   string
	Genre   string
	Length  int64
	Bitrate int64
	Track   int64
	Year    int64
	Scanned int64
}

// PendingSong is a song waiting for metadata extraction.
type PendingSong struct {
	ID          int64  `db:"id"`
	File        string `db:"file"`
	Format      string `db:"format"`
	Size        int64  `db:"size"`
	LibraryPath string `db:"librarypath"`
}

// ScanBatch groups song writes of a scan pass. A batch is committed in one
// transaction.
type ScanBatch struct {
	NewSongs []NewSong
	Resized  []SizeChange
	Metadata []SongMetadata
}

// Len returns the number of songs written by the batch.
func (b *ScanBatch) Len() int {
	return len(b.NewSongs) + len(b.Resized) + len(b.Metadata)
}

// Reset empties the batch so it could be reused.
func (b *ScanBatch) Reset() {
	b.NewSongs = b.NewSongs[:0]
	b.Resized = b.Resized[:0]
	b.Metadata = b.Metadata[:0]
}

// CommitScanBatch writes everything in `batch` in a single transaction.
func (s *Store) CommitScanBatch(ctx context.Context, batch *ScanBatch) error {
	if batch.Len() == 0 {
		return nil
	}

	now := time.Now().Unix()
	work := func(db *sqlx.DB) error {
		return inTx(ctx, db, func(tx *sqlx.Tx) error {
			for _, song := range batch.NewSongs {
				if err := insertSong(ctx, tx, song, now); err != nil {
					return err
				}
			}

			for _, change := range batch.Resized {
				_, err := tx.ExecContext(ctx, `
					UPDATE songs SET size = @size, lastscan = -1
					WHERE id = @id
				`,
					sql.Named("size", change.Size),
					sql.Named("id", change.SongID),
				)
				if err != nil {
					return fmt.Errorf("marking song %d modified: %w", change.SongID, err)
				}
			}

			for _, meta := range batch.Metadata {
				if err := updateSongMetadata(ctx, tx, meta); err != nil {
					return err
				}
			}

			return nil
		})
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("committing scan batch: %w", err)
	}

	return nil
}

func insertSong(ctx context.Context, tx *sqlx.Tx, song NewSong, now int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO songs (library, albumid, file, size, title, format)
		VALUES (@library, @albumid, @file, @size, @title, @format)
	`,
		sql.Named("library", song.LibraryID),
		sql.Named("albumid", song.AlbumID),
		sql.Named("file", song.File),
		sql.Named("size", song.Size),
		sql.Named("title", song.Title),
		sql.Named("format", song.Format),
	)
	if err != nil {
		return fmt.Errorf("inserting song %s: %w", song.File, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE albums SET added = @now
		WHERE id = @albumid AND added = -1
	`,
		sql.Named("now", now),
		sql.Named("albumid", song.AlbumID),
	)
	if err != nil {
		return fmt.Errorf("setting album added time: %w", err)
	}

	return nil
}

func updateSongMetadata(ctx context.Context, tx *sqlx.Tx, meta SongMetadata) error {
	var genre sql.NullInt64
	if name := NormalizeGenre(meta.Genre); name != "" {
		id, err := genreID(ctx, tx, name)
		if err != nil {
			return err
		}
		genre = sql.NullInt64{Int64: id, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE songs SET
			title = CASE WHEN @title = '' THEN title ELSE @title END,
			length = @length,
			bitrate = @bitrate,
			track = @track,
			year = @year,
			genre = @genre,
			lastscan = @scanned
		WHERE id = @id
	`,
		sql.Named("title", meta.Title),
		sql.Named("length", meta.Length),
		sql.Named("bitrate", meta.Bitrate),
		sql.Named("track", meta.Track),
		sql.Named("year", meta.Year),
		sql.Named("genre", genre),
		sql.Named("scanned", meta.Scanned),
		sql.Named("id", meta.SongID),
	)
	if err != nil {
		return fmt.Errorf("updating song %d metadata: %w", meta.SongID, err)
	}

	if meta.Album != "" {
		_, err := tx.ExecContext(ctx, `
			UPDATE albums SET name = @name
			WHERE id = (SELECT albumid FROM songs WHERE id = @id)
				AND name <> @name
		`,
			sql.Named("name", meta.Album),
			sql.Named("id", meta.SongID),
		)
		if err != nil {
			return fmt.Errorf("renaming album of song %d: %w", meta.SongID, err)
		}
	}

	if meta.Artist != "" {
		_, err := tx.ExecContext(ctx, `
			UPDATE artists SET name = @name
			WHERE id = (
				SELECT al.artistid FROM songs s
				JOIN albums al ON al.id = s.albumid
				WHERE s.id = @id
			) AND name <> @name
		`,
			sql.Named("name", meta.Artist),
			sql.Named("id", meta.SongID),
		)
		if err != nil {
			return fmt.Errorf("renaming artist of song %d: %w", meta.SongID, err)
		}
	}

	return nil
}

// PendingSongs returns up to `limit` songs of `library` with ID greater than
// `afterID` which need their tags read. Those are the songs which were never
// scanned or, when `full` is true, all of them.
func (s *Store) PendingSongs(
	ctx context.Context,
	library int64,
	full bool,
	afterID int64,
	limit int,
) ([]PendingSong, error) {
	var songs []PendingSong
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &songs, `
			SELECT s.id, s.file, s.format, s.size, l.path AS librarypath
			FROM songs s
			JOIN libraries l ON l.id = s.library
			WHERE s.library = @library
				AND s.id > @after
				AND (@full OR s.lastscan = -1)
			ORDER BY s.id
			LIMIT @limit
		`,
			sql.Named("library", library),
			sql.Named("after", afterID),
			sql.Named("full", full),
			sql.Named("limit", limit),
		)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("selecting songs for tag scan: %w", err)
	}

	return songs, nil
}
