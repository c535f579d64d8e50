package subsonic

import (
	"context"
	"net/http"

	"github.com/sonicd/sonicd/src/catalog"
)

func (s *subsonic) getMusicDirectory(w http.ResponseWriter, req *http.Request) {
	dirID, err := parseID(req.Form.Get("id"))
	if err != nil {
		respondError(w, req, err)
		return
	}

	var dir *Element
	switch {
	case isArtistID(dirID):
		dir, err = s.artistDirectory(req.Context(), toArtistDBID(dirID))
	case isAlbumID(dirID):
		dir, err = s.albumDirectory(req.Context(), toAlbumDBID(dirID))
	default:
		err = errUnknownID
	}

	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	resp.Append(dir)
	encodeResponse(w, req, resp)
}

func (s *subsonic) artistDirectory(ctx context.Context, artistID int64) (*Element, error) {
	artist, err := s.lib.Artist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	albums, err := s.lib.Albums(ctx, catalog.Filter{
		ArtistID: artistID,
		Sort:     catalog.SortName,
	})
	if err != nil {
		return nil, err
	}

	dir := NewElement("directory").
		Set("id", formatID(artistFSID(artist.ID))).
		Set("parent", formatID(artist.LibraryID)).
		Set("name", artist.Name).
		Set("albumCount", artist.AlbumCount)

	for _, album := range albums {
		dir.Append(albumChild("child", album))
	}

	return dir, nil
}

func (s *subsonic) albumDirectory(ctx context.Context, albumID int64) (*Element, error) {
	album, err := s.lib.Album(ctx, albumID)
	if err != nil {
		return nil, err
	}

	songs, err := s.lib.Songs(ctx, catalog.Filter{AlbumID: albumID})
	if err != nil {
		return nil, err
	}

	dir := NewElement("directory").
		Set("id", formatID(albumFSID(album.ID))).
		Set("parent", formatID(artistFSID(album.ArtistID))).
		Set("name", album.Name).
		Set("coverArt", albumCoverArtID(album)).
		Set("songCount", album.SongCount).
		Set("playCount", album.PlayCount)

	for _, song := range songs {
		dir.Append(songElement("child", song))
	}

	return dir, nil
}

func (s *subsonic) getArtist(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err == nil && !isArtistID(id) {
		err = errUnknownID
	}
	if err != nil {
		respondError(w, req, err)
		return
	}

	ctx := req.Context()
	artist, err := s.lib.Artist(ctx, toArtistDBID(id))
	if err != nil {
		respondError(w, req, err)
		return
	}

	albums, err := s.lib.Albums(ctx, catalog.Filter{
		ArtistID: artist.ID,
		Sort:     catalog.SortName,
	})
	if err != nil {
		respondError(w, req, err)
		return
	}

	el := artistElement(artist)
	for _, album := range albums {
		el.Append(albumID3(album))
	}

	resp := responseOk()
	resp.Append(el)
	encodeResponse(w, req, resp)
}

func (s *subsonic) getAlbum(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err == nil && !isAlbumID(id) {
		err = errUnknownID
	}
	if err != nil {
		respondError(w, req, err)
		return
	}

	ctx := req.Context()
	album, err := s.lib.Album(ctx, toAlbumDBID(id))
	if err != nil {
		respondError(w, req, err)
		return
	}

	songs, err := s.lib.Songs(ctx, catalog.Filter{AlbumID: album.ID})
	if err != nil {
		respondError(w, req, err)
		return
	}

	el := albumID3(album)
	for _, song := range songs {
		el.Append(songElement("song", song))
	}

	resp := responseOk()
	resp.Append(el)
	encodeResponse(w, req, resp)
}

func (s *subsonic) getSong(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err == nil && !isTrackID(id) {
		err = errUnknownID
	}
	if err != nil {
		respondError(w, req, err)
		return
	}

	song, err := s.lib.Song(req.Context(), id)
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	resp.Append(songElement("song", song))
	encodeResponse(w, req, resp)
}
