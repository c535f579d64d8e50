package subsonic

import (
	"net/http"

	"github.com/sonicd/sonicd/src/library"
)

func (s *subsonic) getPlaylists(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	playlists, err := s.lib.Playlists(ctx, userFromContext(ctx))
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	list := resp.Child("playlists")
	for _, playlist := range playlists {
		list.Append(playlistElement(playlist))
	}

	encodeResponse(w, req, resp)
}

func (s *subsonic) getPlaylist(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err != nil {
		respondError(w, req, err)
		return
	}

	s.respondPlaylist(w, req, id)
}

func (s *subsonic) respondPlaylist(w http.ResponseWriter, req *http.Request, id int64) {
	ctx := req.Context()

	playlist, err := s.lib.Playlist(ctx, userFromContext(ctx), id)
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	resp.Append(playlistWithEntries(playlist))
	encodeResponse(w, req, resp)
}

func playlistWithEntries(playlist library.PlaylistWithEntries) *Element {
	el := playlistElement(playlist.Playlist)
	for _, entry := range playlist.Entries {
		el.Append(songElement("entry", entry.Song))
	}
	return el
}
