package subsonic

import (
	"path"
	"time"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/delivery"
)

// albumCoverArtID returns the cover art ID of an album or an empty string
// when the album has no cover.
func albumCoverArtID(album catalog.Album) string {
	if !album.CoverID.Valid {
		return ""
	}
	return formatID(albumFSID(album.ID))
}

func songCoverArtID(song catalog.Song) string {
	if !song.CoverID.Valid {
		return ""
	}
	return formatID(albumFSID(song.AlbumID))
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// songElement describes a song. It is used for "child", "song" and
// "entry" elements alike.
func songElement(name string, song catalog.Song) *Element {
	el := NewElement(name).
		Set("id", formatID(trackFSID(song.ID))).
		Set("parent", formatID(albumFSID(song.AlbumID))).
		Set("isDir", false).
		Set("title", song.Title).
		Set("album", song.Album).
		Set("artist", song.Artist)

	if song.Track > 0 {
		el.Set("track", song.Track)
	}
	if song.Year > 0 {
		el.Set("year", song.Year)
	}

	el.Set("genre", song.Genre).
		Set("coverArt", songCoverArtID(song)).
		Set("size", song.Size).
		Set("contentType", delivery.AudioContentType(song.Format)).
		Set("suffix", song.Format)

	if song.Length > 0 {
		el.Set("duration", song.Length)
	}
	if song.Bitrate > 0 {
		el.Set("bitRate", song.Bitrate/1000)
	}

	return el.
		Set("path", path.Clean(song.File)).
		Set("playCount", song.PlayCount).
		Set("played", unixTime(song.Played)).
		Set("isVideo", false).
		Set("albumId", formatID(albumFSID(song.AlbumID))).
		Set("artistId", formatID(artistFSID(song.ArtistID))).
		Set("type", "music")
}

// albumChild describes an album as a directory.
func albumChild(name string, album catalog.Album) *Element {
	el := NewElement(name).
		Set("id", formatID(albumFSID(album.ID))).
		Set("parent", formatID(artistFSID(album.ArtistID))).
		Set("isDir", true).
		Set("title", album.Name).
		Set("album", album.Name).
		Set("artist", album.Artist)

	if album.Year > 0 {
		el.Set("year", album.Year)
	}

	return el.
		Set("coverArt", albumCoverArtID(album)).
		Set("playCount", album.PlayCount).
		Set("created", unixTime(album.Added))
}

// albumID3 describes an album by its tags.
func albumID3(album catalog.Album) *Element {
	el := NewElement("album").
		Set("id", formatID(albumFSID(album.ID))).
		Set("name", album.Name).
		Set("artist", album.Artist).
		Set("artistId", formatID(artistFSID(album.ArtistID))).
		Set("coverArt", albumCoverArtID(album)).
		Set("songCount", album.SongCount).
		Set("duration", album.Duration).
		Set("playCount", album.PlayCount).
		Set("created", unixTime(album.Added))

	if album.Year > 0 {
		el.Set("year", album.Year)
	}

	return el.Set("played", unixTime(album.Played))
}

func artistElement(artist catalog.Artist) *Element {
	return NewElement("artist").
		Set("id", formatID(artistFSID(artist.ID))).
		Set("name", artist.Name).
		Set("albumCount", artist.AlbumCount)
}

func playlistElement(playlist catalog.Playlist) *Element {
	return NewElement("playlist").
		Set("id", formatID(playlist.ID)).
		Set("name", playlist.Name).
		Set("comment", playlist.Comment).
		Set("owner", playlist.Owner).
		Set("public", playlist.Public).
		Set("songCount", playlist.SongCount).
		Set("duration", playlist.Duration).
		Set("created", unixTime(playlist.Created)).
		Set("changed", unixTime(playlist.Changed))
}
