// Package library is the read and query API over the music catalog used by
// the delivery pipeline and the protocol layer.
//
// Every song and cover receives an ID in the catalog. Clients only ever see
// those IDs. The library resolves them to real file system paths so that the
// location of the files is never revealed to the interface.
package library

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/scanner"
)

// Errors returned by the library. They are the catalog errors so callers
// could check against either.
var (
	ErrNotFound      = catalog.ErrNotFound
	ErrDuplicateRoot = catalog.ErrDuplicateRoot
	ErrWrongPassword = catalog.ErrWrongPassword
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Rescanner

// Rescanner starts library scans in the background.
type Rescanner interface {
	// Trigger starts a scan unless one is already running. Returns whether
	// a scan was started.
	Trigger(opts scanner.ScanOptions) bool

	// IsScanning reports whether a scan is running.
	IsScanning() bool

	// LastStats returns the result of the last finished scan.
	LastStats() scanner.Stats
}

// Library is the catalog as seen by clients.
type Library struct {
	store   *catalog.Store
	scanner Rescanner
}

// New returns a library over `store`. `rescanner` may be nil in which case
// adding roots does not start scans.
func New(store *catalog.Store, rescanner Rescanner) *Library {
	return &Library{
		store:   store,
		scanner: rescanner,
	}
}

// AddRoot registers a new library directory and starts a scan for it.
func (l *Library) AddRoot(ctx context.Context, name, path string) (catalog.Library, error) {
	if name == "" {
		name = filepath.Base(path)
	}

	lib, err := l.store.AddLibrary(ctx, name, path)
	if err != nil {
		return catalog.Library{}, err
	}

	log.Info().Str("path", lib.Path).Int64("library_id", lib.ID).Msg("library root added")
	l.Rescan(false)

	return lib, nil
}

// Rescan starts a scan pass in the background. Returns false when a scan
// is already running or there is no scanner.
func (l *Library) Rescan(full bool) bool {
	if l.scanner == nil {
		return false
	}
	return l.scanner.Trigger(scanner.ScanOptions{Full: full})
}

// ScanStatus reports whether a scan is running and how many songs the
// catalog has.
func (l *Library) ScanStatus(ctx context.Context) (bool, int64, error) {
	var scanning bool
	if l.scanner != nil {
		scanning = l.scanner.IsScanning()
	}

	count, err := l.store.SongCount(ctx)
	return scanning, count, err
}

// Libraries returns all registered library roots.
func (l *Library) Libraries(ctx context.Context) ([]catalog.Library, error) {
	return l.store.Libraries(ctx)
}

// Artists returns the artists matching `f`.
func (l *Library) Artists(ctx context.Context, f catalog.Filter) ([]catalog.Artist, error) {
	return l.store.Artists(ctx, f)
}

// Artist returns the artist with ID `id`. Returns an error wrapping
// ErrNotFound when there is no such artist.
func (l *Library) Artist(ctx context.Context, id int64) (catalog.Artist, error) {
	return l.store.Artist(ctx, id)
}

// Albums returns the albums matching `f`.
func (l *Library) Albums(ctx context.Context, f catalog.Filter) ([]catalog.Album, error) {
	return l.store.Albums(ctx, f)
}

// Album returns the album with ID `id`.
func (l *Library) Album(ctx context.Context, id int64) (catalog.Album, error) {
	return l.store.Album(ctx, id)
}

// Songs returns the songs matching `f`.
func (l *Library) Songs(ctx context.Context, f catalog.Filter) ([]catalog.Song, error) {
	return l.store.Songs(ctx, f)
}

// Song returns the song with ID `id`.
func (l *Library) Song(ctx context.Context, id int64) (catalog.Song, error) {
	return l.store.Song(ctx, id)
}

// Genres returns all genres with their song and album counts.
func (l *Library) Genres(ctx context.Context) ([]catalog.Genre, error) {
	return l.store.Genres(ctx)
}

// Starred returns the songs starred by `userID`.
func (l *Library) Starred(ctx context.Context, userID int64) ([]catalog.Song, error) {
	return l.store.Songs(ctx, catalog.Filter{StarredBy: userID})
}

// SearchResult holds everything matching a search query.
type SearchResult struct {
	Artists []catalog.Artist
	Albums  []catalog.Album
	Songs   []catalog.Song
}

// SearchLimits limit each kind of search result. Zero counts mean no limit.
type SearchLimits struct {
	ArtistOffset, ArtistCount int
	AlbumOffset, AlbumCount   int
	SongOffset, SongCount     int
}

// Search looks for `query` as a substring in artist, album and song names.
func (l *Library) Search(ctx context.Context, query string, limits SearchLimits) (SearchResult, error) {
	var (
		res SearchResult
		err error
	)

	f := catalog.Filter{Search: query, Sort: catalog.SortName}

	res.Artists, err = l.store.Artists(ctx, f.Page(limits.ArtistOffset, limits.ArtistCount))
	if err != nil {
		return res, fmt.Errorf("searching artists: %w", err)
	}

	res.Albums, err = l.store.Albums(ctx, f.Page(limits.AlbumOffset, limits.AlbumCount))
	if err != nil {
		return res, fmt.Errorf("searching albums: %w", err)
	}

	res.Songs, err = l.store.Songs(ctx, f.Page(limits.SongOffset, limits.SongCount))
	if err != nil {
		return res, fmt.Errorf("searching songs: %w", err)
	}

	return res, nil
}

// SongPath returns the absolute file system path of a song.
func (l *Library) SongPath(ctx context.Context, id int64) (string, error) {
	song, err := l.store.Song(ctx, id)
	if err != nil {
		return "", err
	}
	return song.FullPath(), nil
}

// CoverPath returns the absolute file system path of a cover image.
func (l *Library) CoverPath(ctx context.Context, id int64) (string, error) {
	cover, err := l.store.Cover(ctx, id)
	if err != nil {
		return "", err
	}
	return cover.FullPath(), nil
}

// Cover returns the cover with this ID.
func (l *Library) Cover(ctx context.Context, id int64) (catalog.Cover, error) {
	return l.store.Cover(ctx, id)
}

// RecordTranscode stores that the song was delivered re-encoded at
// `bitrate` kbps which resulted in `size` bytes.
func (l *Library) RecordTranscode(ctx context.Context, songID int64, bitrate int, size int64) error {
	return l.store.RecordTranscode(ctx, songID, bitrate, size)
}
