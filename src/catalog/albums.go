package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const selectAlbumsQuery = `
	SELECT
		al.id,
		al.artistid,
		al.dir,
		al.name,
		al.coverid,
		al.added,
		ar.name AS artist,
		ar.libraryid AS library,
		COUNT(s.id) AS songcount,
		IFNULL(SUM(CASE WHEN s.length > 0 THEN s.length ELSE 0 END), 0) AS duration,
		IFNULL(MAX(s.year), -1) AS year,
		IFNULL(MAX(s.played), -1) AS played,
		IFNULL(SUM(s.playcount), 0) AS playcount
	FROM albums al
	JOIN artists ar ON ar.id = al.artistid
	LEFT JOIN songs s ON s.albumid = al.id
`

var albumOrder = map[SortKey]string{
	SortDefault:   "al.name COLLATE NOCASE",
	SortName:      "al.name COLLATE NOCASE",
	SortAdded:     "al.added",
	SortPlayed:    "played",
	SortPlayCount: "playcount",
	SortRandom:    "RANDOM()",
}

func albumConditions(f Filter) *queryParts {
	q := &queryParts{}

	if f.ID != 0 {
		q.add("al.id = @id", sql.Named("id", f.ID))
	}
	if f.LibraryID != 0 {
		q.add("ar.libraryid = @library", sql.Named("library", f.LibraryID))
	}
	if f.ArtistID != 0 {
		q.add("al.artistid = @artistid", sql.Named("artistid", f.ArtistID))
	}
	if f.GenreID != 0 {
		q.add(
			"al.id IN (SELECT albumid FROM songs WHERE genre = @genreid)",
			sql.Named("genreid", f.GenreID),
		)
	}
	if f.Genre != "" {
		q.add(`al.id IN (
				SELECT s2.albumid FROM songs s2
				JOIN genres g ON g.id = s2.genre
				WHERE g.name = @genre COLLATE NOCASE
			)`,
			sql.Named("genre", f.Genre),
		)
	}
	if f.FromYear != 0 {
		q.add(
			"al.id IN (SELECT albumid FROM songs WHERE year >= @fromyear)",
			sql.Named("fromyear", f.FromYear),
		)
	}
	if f.ToYear != 0 {
		q.add(
			"al.id IN (SELECT albumid FROM songs WHERE year > 0 AND year <= @toyear)",
			sql.Named("toyear", f.ToYear),
		)
	}
	if f.StarredBy != 0 {
		q.add(`al.id IN (
				SELECT s2.albumid FROM stars st
				JOIN songs s2 ON s2.id = st.songid
				WHERE st.userid = @starredby
			)`,
			sql.Named("starredby", f.StarredBy),
		)
	}
	if f.Search != "" {
		q.add(
			`al.name LIKE @search ESCAPE '\'`,
			sql.Named("search", likePattern(f.Search)),
		)
	}

	return q
}

// Albums returns the albums matching `f`.
func (s *Store) Albums(ctx context.Context, f Filter) ([]Album, error) {
	q := albumConditions(f)
	query := selectAlbumsQuery + q.whereClause() + " GROUP BY al.id " +
		orderClause(f, albumOrder, "al.id") + " " +
		limitClause(f, q)

	var albums []Album
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &albums, query, q.args...)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	return albums, nil
}

// Album returns the album with ID `id`.
func (s *Store) Album(ctx context.Context, id int64) (Album, error) {
	albums, err := s.Albums(ctx, Filter{ID: id})
	if err != nil {
		return Album{}, err
	}
	if len(albums) == 0 {
		return Album{}, fmt.Errorf("album %d: %w", id, ErrNotFound)
	}

	return albums[0], nil
}

const selectArtistsQuery = `
	SELECT
		ar.id,
		ar.libraryid,
		ar.dir,
		ar.name,
		COUNT(al.id) AS albumcount
	FROM artists ar
	LEFT JOIN albums al ON al.artistid = ar.id
`

var artistOrder = map[SortKey]string{
	SortDefault: "ar.name COLLATE NOCASE",
	SortName:    "ar.name COLLATE NOCASE",
	SortAdded:   "MAX(al.added)",
	SortPlayed: `(
		SELECT IFNULL(MAX(s.played), -1) FROM songs s
		JOIN albums a2 ON a2.id = s.albumid
		WHERE a2.artistid = ar.id
	)`,
	SortPlayCount: `(
		SELECT IFNULL(SUM(s.playcount), 0) FROM songs s
		JOIN albums a2 ON a2.id = s.albumid
		WHERE a2.artistid = ar.id
	)`,
	SortRandom: "RANDOM()",
}

func artistConditions(f Filter) *queryParts {
	q := &queryParts{}

	if f.ID != 0 {
		q.add("ar.id = @id", sql.Named("id", f.ID))
	}
	if f.LibraryID != 0 {
		q.add("ar.libraryid = @library", sql.Named("library", f.LibraryID))
	}
	if f.StarredBy != 0 {
		q.add(`ar.id IN (
				SELECT a2.artistid FROM stars st
				JOIN songs s2 ON s2.id = st.songid
				JOIN albums a2 ON a2.id = s2.albumid
				WHERE st.userid = @starredby
			)`,
			sql.Named("starredby", f.StarredBy),
		)
	}
	if f.Search != "" {
		q.add(
			`ar.name LIKE @search ESCAPE '\'`,
			sql.Named("search", likePattern(f.Search)),
		)
	}

	return q
}

// Artists returns the artists matching `f`.
func (s *Store) Artists(ctx context.Context, f Filter) ([]Artist, error) {
	q := artistConditions(f)
	query := selectArtistsQuery + q.whereClause() + " GROUP BY ar.id " +
		orderClause(f, artistOrder, "ar.id") + " " +
		limitClause(f, q)

	var artists []Artist
	work := func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &artists, query, q.args...)
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return nil, fmt.Errorf("listing artists: %w", err)
	}

	return artists, nil
}

// Artist returns the artist with ID `id`.
func (s *Store) Artist(ctx context.Context, id int64) (Artist, error) {
	artists, err := s.Artists(ctx, Filter{ID: id})
	if err != nil {
		return Artist{}, err
	}
	if len(artists) == 0 {
		return Artist{}, fmt.Errorf("artist %d: %w", id, ErrNotFound)
	}

	return artists[0], nil
}

// Cover returns the cover with ID `id`.
func (s *Store) Cover(ctx context.Context, id int64) (Cover, error) {
	var cover Cover
	work := func(db *sqlx.DB) error {
		err := db.GetContext(ctx, &cover, `
			SELECT c.id, c.library, c.path, c.type, c.size, l.path AS librarypath
			FROM covers c
			JOIN libraries l ON l.id = c.library
			WHERE c.id = @id
		`, sql.Named("id", id))
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return Cover{}, fmt.Errorf("cover %d: %w", id, err)
	}

	return cover, nil
}
