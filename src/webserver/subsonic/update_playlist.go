package subsonic

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sonicd/sonicd/src/catalog"
)

func (s *subsonic) updatePlaylist(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("playlistId"))
	if err != nil {
		respondError(w, req, err)
		return
	}

	update := catalog.PlaylistUpdate{
		Name: req.Form.Get("name"),
	}

	if _, ok := req.Form["comment"]; ok {
		comment := req.Form.Get("comment")
		update.Comment = &comment
	}

	if public := req.Form.Get("public"); public == "true" {
		t := true
		update.Public = &t
	} else if public == "false" {
		t := false
		update.Public = &t
	}

	for _, removeIndexStr := range req.Form["songIndexToRemove"] {
		removeIndex, err := strconv.Atoi(removeIndexStr)
		if err != nil || removeIndex < 0 {
			resp := responseError(errCodeGeneric,
				fmt.Sprintf("malformed song index %q", removeIndexStr),
			)
			encodeResponse(w, req, resp)
			return
		}

		update.RemoveIndexes = append(update.RemoveIndexes, removeIndex)
	}

	update.AddSongs, err = parseTrackIDs(req, "songIdToAdd")
	if err != nil {
		respondError(w, req, err)
		return
	}

	ctx := req.Context()
	if err := s.lib.UpdatePlaylist(ctx, userFromContext(ctx), id, update); err != nil {
		respondError(w, req, err)
		return
	}

	encodeResponse(w, req, responseOk())
}

func (s *subsonic) deletePlaylist(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err != nil {
		respondError(w, req, err)
		return
	}

	ctx := req.Context()
	if err := s.lib.DeletePlaylist(ctx, userFromContext(ctx), id); err != nil {
		respondError(w, req, err)
		return
	}

	encodeResponse(w, req, responseOk())
}
