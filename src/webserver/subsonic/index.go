// Package subsonic serves the Subsonic REST API (http://www.subsonic.org/pages/api.jsp)
// over the library and the delivery pipeline.
package subsonic

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/delivery"
	"github.com/sonicd/sonicd/src/library"
)

// Prefix is the URL path prefix for all subsonic API endpoints.
const Prefix = "/rest"

// Library is the part of the library which the API uses.
type Library interface {
	Authenticate(ctx context.Context, username, password string) (catalog.User, error)
	User(ctx context.Context, username string) (catalog.User, error)

	Libraries(ctx context.Context) ([]catalog.Library, error)
	Artists(ctx context.Context, f catalog.Filter) ([]catalog.Artist, error)
	Artist(ctx context.Context, id int64) (catalog.Artist, error)
	Albums(ctx context.Context, f catalog.Filter) ([]catalog.Album, error)
	Album(ctx context.Context, id int64) (catalog.Album, error)
	Songs(ctx context.Context, f catalog.Filter) ([]catalog.Song, error)
	Song(ctx context.Context, id int64) (catalog.Song, error)
	Genres(ctx context.Context) ([]catalog.Genre, error)
	Search(ctx context.Context, query string, limits library.SearchLimits) (library.SearchResult, error)

	Starred(ctx context.Context, userID int64) ([]catalog.Song, error)
	Star(ctx context.Context, user catalog.User, songIDs ...int64) error
	Unstar(ctx context.Context, user catalog.User, songIDs ...int64) error
	ScrobbleAt(ctx context.Context, songID int64, at time.Time) error

	Playlists(ctx context.Context, user catalog.User) ([]catalog.Playlist, error)
	Playlist(ctx context.Context, user catalog.User, id int64) (library.PlaylistWithEntries, error)
	CreatePlaylist(ctx context.Context, owner catalog.User, name string, songIDs []int64) (int64, error)
	ReplacePlaylist(ctx context.Context, user catalog.User, id int64, name string, songIDs []int64) error
	UpdatePlaylist(ctx context.Context, user catalog.User, id int64, update catalog.PlaylistUpdate) error
	DeletePlaylist(ctx context.Context, user catalog.User, id int64) error

	Rescan(full bool) bool
	ScanStatus(ctx context.Context) (bool, int64, error)
}

// Delivery opens audio and cover streams.
type Delivery interface {
	MaxBitrate() int
	Open(ctx context.Context, songID int64, requested int) (*delivery.Stream, error)
	OpenOriginal(ctx context.Context, songID int64) (*delivery.Stream, error)
	OpenCover(ctx context.Context, coverID int64, size int) (*delivery.CoverImage, error)
}

type subsonic struct {
	lib      Library
	delivery Delivery

	mux http.Handler
}

// NewHandler returns a HTTP handler which would serve the subsonic API
// under Prefix. Every request must be authenticated with a user of `lib`.
func NewHandler(lib Library, pipeline Delivery) http.Handler {
	handler := &subsonic{
		lib:      lib,
		delivery: pipeline,
	}

	handler.initRouter()

	return handler
}

func (s *subsonic) initRouter() {
	router := mux.NewRouter()
	router.StrictSlash(true)
	router.UseEncodedPath()

	endpoints := map[string]http.HandlerFunc{
		"ping":              s.apiPing,
		"getLicense":        s.getLicense,
		"getMusicFolders":   s.getMusicFolders,
		"getIndexes":        s.getIndexes,
		"getMusicDirectory": s.getMusicDirectory,
		"getArtists":        s.getArtists,
		"getArtist":         s.getArtist,
		"getAlbum":          s.getAlbum,
		"getAlbumList":      s.getAlbumList,
		"getAlbumList2":     s.getAlbumList2,
		"getRandomSongs":    s.getRandomSongs,
		"getSong":           s.getSong,
		"getGenres":         s.getGenres,
		"getArtistInfo":     s.getArtistInfo,
		"getArtistInfo2":    s.getArtistInfo,
		"getUser":           s.getUser,
		"stream":            s.stream,
		"download":          s.download,
		"getCoverArt":       s.getCoverArt,
		"star":              s.star,
		"unstar":            s.unstar,
		"getStarred":        s.getStarred,
		"getStarred2":       s.getStarred2,
		"scrobble":          s.scrobble,
		"search2":           s.search2,
		"search3":           s.search3,
		"getPlaylists":      s.getPlaylists,
		"getPlaylist":       s.getPlaylist,
		"createPlaylist":    s.createPlaylist,
		"updatePlaylist":    s.updatePlaylist,
		"deletePlaylist":    s.deletePlaylist,
		"startScan":         s.startScan,
		"getScanStatus":     s.getScanStatus,
	}

	for name, handler := range endpoints {
		router.Handle(Prefix+"/"+name, handler).Methods("GET", "POST")
		router.Handle(Prefix+"/"+name+".view", handler).Methods("GET", "POST")
	}

	router.NotFoundHandler = http.HandlerFunc(s.notFound)

	s.mux = s.authHandler(router)
}

func (s *subsonic) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(w, req)
}

func (s *subsonic) notFound(w http.ResponseWriter, req *http.Request) {
	resp := responseError(errCodeNotFound, "unknown API method")
	encodeResponseStatus(w, req, http.StatusNotFound, resp)
}
