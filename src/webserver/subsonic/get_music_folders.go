package subsonic

import (
	"net/http"
	"strconv"
)

func (s *subsonic) getMusicFolders(w http.ResponseWriter, req *http.Request) {
	libs, err := s.lib.Libraries(req.Context())
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	folders := resp.Child("musicFolders")
	for _, lib := range libs {
		folders.Child("musicFolder").
			Set("id", lib.ID).
			Set("name", lib.Name)
	}

	encodeResponse(w, req, resp)
}

// musicFolderArg returns the library selected with the `musicFolderId`
// parameter or 0 when there is none.
func (s *subsonic) musicFolderArg(req *http.Request) (int64, error) {
	idString := req.Form.Get("musicFolderId")
	if idString == "" {
		return 0, nil
	}

	id, err := strconv.ParseInt(idString, 10, 64)
	if err != nil {
		return 0, errUnknownFolder
	}

	libs, err := s.lib.Libraries(req.Context())
	if err != nil {
		return 0, err
	}

	for _, lib := range libs {
		if lib.ID == id {
			return id, nil
		}
	}

	return 0, errUnknownFolder
}
