package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const songColumns = `
	s.id,
	s.library,
	s.albumid,
	s.file,
	s.size,
	s.title,
	s.format,
	s.length,
	s.bitrate,
	s.track,
	s.year,
	s.genre,
	s.lastscan,
	s.played,
	s.playcount,
	al.name AS album,
	al.artistid,
	al.coverid,
	ar.name AS artist,
	IFNULL(g.name, '') AS genrename,
	l.path AS librarypath
`

const songJoins = `
	JOIN albums al ON al.id = s.albumid
	JOIN artists ar ON ar.id = al.artistid
	JOIN libraries l ON l.id = s.library
	LEFT JOIN genres g ON g.id = s.genre
`

const selectSongsQuery = "SELECT " + songColumns + " FROM songs s " + songJoins

var songOrder = map[SortKey]string{
	SortDefault:   "s.albumid ASC, s.track ASC, s.title",
	SortName:      "s.title COLLATE NOCASE",
	SortAdded:     "al.added",
	SortPlayed:    "s.played",
	SortPlayCount: "s.playcount",
	SortRandom:    "RANDOM()",
}

func songConditions(f Filter) *queryParts {
	q := &queryParts{}

	if f.ID != 0 {
		q.add("s.id = @id", sql.Named("id", f.ID))
	}
	if f.LibraryID != 0 {
		q.add("s.library = @library", sql.Named("library", f.LibraryID))
	}
	if f.ArtistID != 0 {
		q.add("al.artistid = @artistid", sql.Named("artistid", f.ArtistID))
	}
	if f.AlbumID != 0 {
		q.add("s.albumid = @albumid", sql.Named("albumid", f.AlbumID))
	}
	if f.GenreID != 0 {
		q.add("s.genre = @genreid", sql.Named("genreid", f.GenreID))
	}
	if f.Genre != "" {
		q.add("g.name = @genre COLLATE NOCASE", sql.Named("genre", f.Genre))
	}
	if f.FromYear != 0 {
		q.add("s.year >= @fromyear", sql.Named("fromyear", f.FromYear))
	}
	if f.ToYear != 0 {
		q.add("s.year <= @toyear", sql.Named("toyear", f.ToYear))
	}
	if f.StarredBy != 0 {
		q.add(
			"s.id IN (SELECT songid FROM stars WHERE userid = @starredby)",
			sql.Named("starredby", f.StarredBy),
		)
	}
	if f.Search != "" {
		q.add(
			`s.title LIKE @search ESCAPE '\'`,
			sql.Named("search", likePattern(f.Search)),
		)
	}

	return q
}

// Songs returns the songs matching `f`.
func (s *Store) Songs(ctx context.Context, f Filter) ([]Song, error) {
	q := songConditions(f)
	query := selectSongsQuery + q.whereClause() + " " +
		orderClause(f, songOrder, "s.id") + " " +
		limitClause(f, q)

	var songs []Song
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &songs, query, q.args...)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}

	return songs, nil
}

// Song returns the song with ID `id`.
func (s *Store) Song(ctx context.Context, id int64) (Song, error) {
	songs, err := s.Songs(ctx, Filter{ID: id})
	if err != nil {
		return Song{}, err
	}
	if len(songs) == 0 {
		return Song{}, fmt.Errorf("song %d: %w", id, ErrNotFound)
	}

	return songs[0], nil
}

// RecordPlay marks the song as played now.
func (s *Store) RecordPlay(ctx context.Context, songID int64, at time.Time) error {
	work := func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx, `
			UPDATE songs SET
				played = @played,
				playcount = playcount + 1
			WHERE id = @id
		`,
			sql.Named("played", at.Unix()),
			sql.Named("id", songID),
		)
		if err != nil {
			return err
		}

		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return ErrNotFound
		}

		return nil
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("recording play of song %d: %w", songID, err)
	}

	return nil
}

// RecordTranscode stores that song `songID` was transcoded at `bitrate` kbps
// producing `size` bytes.
func (s *Store) RecordTranscode(ctx context.Context, songID int64, bitrate int, size int64) error {
	work := func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO song_transcodes (songid, bitrate, size)
			VALUES (@songid, @bitrate, @size)
			ON CONFLICT(songid, bitrate) DO UPDATE SET
				size = excluded.size,
				transfers = transfers + 1
		`,
			sql.Named("songid", songID),
			sql.Named("bitrate", bitrate),
			sql.Named("size", size),
		)
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return fmt.Errorf("recording transcode of song %d: %w", songID, err)
	}

	return nil
}

// Transcode is a recorded transcoding result.
type Transcode struct {
	SongID    int64 `db:"songid"`
	Bitrate   int   `db:"bitrate"`
	Size      int64 `db:"size"`
	Transfers int64 `db:"transfers"`
}

// Transcodes returns the recorded transcodes of a song.
func (s *Store) Transcodes(ctx context.Context, songID int64) ([]Transcode, error) {
	var transcodes []Transcode
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &transcodes, `
			SELECT songid, bitrate, size, transfers
			FROM song_transcodes
			WHERE songid = @songid
			ORDER BY bitrate
		`, sql.Named("songid", songID))
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing transcodes of song %d: %w", songID, err)
	}

	return transcodes, nil
}

// SongCount returns the number of songs in all libraries.
func (s *Store) SongCount(ctx context.Context) (int64, error) {
	var count int64
	work := func(db *sqlx.DB) error {
		return db.GetContext(ctx, &count, `SELECT COUNT(*) FROM songs`)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return 0, fmt.Errorf("counting songs: %w", err)
	}

	return count, nil
}
