package subsonic

import (
	"net/http"
)

func (s *subsonic) apiPing(w http.ResponseWriter, req *http.Request) {
	encodeResponse(w, req, responseOk())
}

func (s *subsonic) getLicense(w http.ResponseWriter, req *http.Request) {
	resp := responseOk()
	resp.Child("license").
		Set("valid", true).
		Set("email", "admin@localhost").
		Set("licenseExpires", "2100-01-01T00:00:00.000Z")

	encodeResponse(w, req, resp)
}
