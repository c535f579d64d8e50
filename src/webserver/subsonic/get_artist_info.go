package subsonic

import (
	"net/http"
	"strings"
)

// getArtistInfo answers both getArtistInfo and getArtistInfo2. There are
// no external sources of artist information so the info is always empty.
func (s *subsonic) getArtistInfo(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err == nil && !isArtistID(id) {
		err = errUnknownID
	}
	if err != nil {
		respondError(w, req, err)
		return
	}

	if _, err := s.lib.Artist(req.Context(), toArtistDBID(id)); err != nil {
		respondError(w, req, err)
		return
	}

	elName := "artistInfo"
	if strings.Contains(req.URL.Path, "getArtistInfo2") {
		elName = "artistInfo2"
	}

	resp := responseOk()
	resp.Child(elName)
	encodeResponse(w, req, resp)
}
