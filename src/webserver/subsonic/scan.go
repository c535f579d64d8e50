package subsonic

import (
	"net/http"
)

// startScan starts a rescan of all libraries. A full scan re-reads the
// tags of every file. Only admins could start scans.
func (s *subsonic) startScan(w http.ResponseWriter, req *http.Request) {
	if !userFromContext(req.Context()).Admin {
		resp := responseError(errCodeNotAuthorized, "only admins could start scans")
		encodeResponse(w, req, resp)
		return
	}

	s.lib.Rescan(req.Form.Get("fullScan") == "true")
	s.getScanStatus(w, req)
}

func (s *subsonic) getScanStatus(w http.ResponseWriter, req *http.Request) {
	scanning, count, err := s.lib.ScanStatus(req.Context())
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	resp.Child("scanStatus").
		Set("scanning", scanning).
		Set("count", count)

	encodeResponse(w, req, resp)
}
