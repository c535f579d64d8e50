package catalog

import (
	"database/sql"
	"path/filepath"
)

// Library is a registered library root.
type Library struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Path string `db:"path"`
}

// Dir is one entry of the directory tree cache.
type Dir struct {
	ID      int64  `db:"id"`
	Library int64  `db:"library"`
	Parent  int64  `db:"parent"`
	Name    string `db:"name"`
}

// Artist is an artist as stored in the catalog. Every top-level directory of
// a library is an artist.
type Artist struct {
	ID         int64  `db:"id"`
	LibraryID  int64  `db:"libraryid"`
	Dir        int64  `db:"dir"`
	Name       string `db:"name"`
	AlbumCount int64  `db:"albumcount"`
}

// Album is an album as stored in the catalog together with a few aggregates
// over its songs.
type Album struct {
	ID        int64         `db:"id"`
	ArtistID  int64         `db:"artistid"`
	Dir       int64         `db:"dir"`
	Name      string        `db:"name"`
	CoverID   sql.NullInt64 `db:"coverid"`
	Added     int64         `db:"added"`
	Artist    string        `db:"artist"`
	LibraryID int64         `db:"library"`
	SongCount int64         `db:"songcount"`
	Duration  int64         `db:"duration"`
	Year      int64         `db:"year"`
	Played    int64         `db:"played"`
	PlayCount int64         `db:"playcount"`
}

// Song is a single audio file together with the names of the album, artist
// and genre it belongs to.
type Song struct {
	ID        int64         `db:"id"`
	LibraryID int64         `db:"library"`
	AlbumID   int64         `db:"albumid"`
	File      string        `db:"file"`
	Size      int64         `db:"size"`
	Title     string        `db:"title"`
	Format    string        `db:"format"`
	Length    int64         `db:"length"`
	Bitrate   int64         `db:"bitrate"`
	Track     int64         `db:"track"`
	Year      int64         `db:"year"`
	GenreID   sql.NullInt64 `db:"genre"`
	LastScan  int64         `db:"lastscan"`
	Played    int64         `db:"played"`
	PlayCount int64         `db:"playcount"`

	Album       string        `db:"album"`
	ArtistID    int64         `db:"artistid"`
	Artist      string        `db:"artist"`
	CoverID     sql.NullInt64 `db:"coverid"`
	Genre       string        `db:"genrename"`
	LibraryPath string        `db:"librarypath"`
}

// FullPath returns the absolute path of the song's file.
func (s Song) FullPath() string {
	return filepath.Join(s.LibraryPath, filepath.FromSlash(s.File))
}

// Genre is a normalized genre name.
type Genre struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	SongCount  int64  `db:"songcount"`
	AlbumCount int64  `db:"albumcount"`
}

// Cover is an image file bound to an album.
type Cover struct {
	ID          int64  `db:"id"`
	LibraryID   int64  `db:"library"`
	Path        string `db:"path"`
	Type        string `db:"type"`
	Size        int64  `db:"size"`
	LibraryPath string `db:"librarypath"`
}

// FullPath returns the absolute path of the cover image.
func (c Cover) FullPath() string {
	return filepath.Join(c.LibraryPath, filepath.FromSlash(c.Path))
}

// User is a user account. Password is the bcrypt hash of the password.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
	Admin    bool   `db:"admin"`
	Email    string `db:"email"`
}

// Playlist is a user owned ordered list of songs.
type Playlist struct {
	ID        int64         `db:"id"`
	OwnerID   int64         `db:"ownerid"`
	Owner     string        `db:"owner"`
	Name      string        `db:"name"`
	Comment   string        `db:"comment"`
	Public    bool          `db:"public"`
	Created   int64         `db:"created"`
	Changed   int64         `db:"changed"`
	Cover     sql.NullInt64 `db:"cover"`
	SongCount int64         `db:"songcount"`
	Duration  int64         `db:"duration"`
}

// PlaylistEntry is a song at a position of a playlist.
type PlaylistEntry struct {
	Position int64 `db:"position"`
	Song
}
