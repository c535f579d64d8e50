package subsonic

import (
	"net/http"
	"strings"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/library"
)

const (
	defaultSearchCount = 20
	maxSearchCount     = 500
)

type searchRenderers struct {
	artist func(catalog.Artist) *Element
	album  func(catalog.Album) *Element
	song   func(catalog.Song) *Element
}

func (s *subsonic) search2(w http.ResponseWriter, req *http.Request) {
	s.search(w, req, "searchResult2", searchRenderers{
		artist: artistElement,
		album: func(album catalog.Album) *Element {
			return albumChild("album", album)
		},
		song: func(song catalog.Song) *Element {
			return songElement("song", song)
		},
	})
}

func (s *subsonic) search3(w http.ResponseWriter, req *http.Request) {
	s.search(w, req, "searchResult3", searchRenderers{
		artist: artistElement,
		album:  albumID3,
		song: func(song catalog.Song) *Element {
			return songElement("song", song)
		},
	})
}

// search finds artists, albums and songs. A count of zero for any of them
// means that none of this kind are returned. Some clients wrap the query in
// double quotes and others send an empty query to list everything.
func (s *subsonic) search(
	w http.ResponseWriter,
	req *http.Request,
	resultName string,
	render searchRenderers,
) {
	query := strings.Trim(strings.TrimSpace(req.Form.Get("query")), `"`)

	var limits library.SearchLimits
	limits.ArtistCount, limits.ArtistOffset = pageArgs(
		req, "artistCount", "artistOffset", defaultSearchCount, maxSearchCount,
	)
	limits.AlbumCount, limits.AlbumOffset = pageArgs(
		req, "albumCount", "albumOffset", defaultSearchCount, maxSearchCount,
	)
	limits.SongCount, limits.SongOffset = pageArgs(
		req, "songCount", "songOffset", defaultSearchCount, maxSearchCount,
	)

	found, err := s.lib.Search(req.Context(), query, limits)
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	result := resp.Child(resultName)

	if limits.ArtistCount > 0 {
		for _, artist := range found.Artists {
			result.Append(render.artist(artist))
		}
	}
	if limits.AlbumCount > 0 {
		for _, album := range found.Albums {
			result.Append(render.album(album))
		}
	}
	if limits.SongCount > 0 {
		for _, song := range found.Songs {
			result.Append(render.song(song))
		}
	}

	encodeResponse(w, req, resp)
}
