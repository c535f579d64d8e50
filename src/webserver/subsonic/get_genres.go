package subsonic

import (
	"net/http"
)

func (s *subsonic) getGenres(w http.ResponseWriter, req *http.Request) {
	genres, err := s.lib.Genres(req.Context())
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	list := resp.Child("genres")
	for _, genre := range genres {
		el := list.Child("genre").
			Set("songCount", genre.SongCount).
			Set("albumCount", genre.AlbumCount)
		el.Text = genre.Name
	}

	encodeResponse(w, req, resp)
}
