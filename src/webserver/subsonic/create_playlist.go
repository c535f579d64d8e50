package subsonic

import (
	"fmt"
	"net/http"
)

// createPlaylist creates a new playlist or, when `playlistId` is set,
// replaces the songs of an existing one.
func (s *subsonic) createPlaylist(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	user := userFromContext(ctx)

	songIDs, err := parseTrackIDs(req, "songId")
	if err != nil {
		respondError(w, req, err)
		return
	}

	name := req.Form.Get("name")

	if idString := req.Form.Get("playlistId"); idString != "" {
		id, err := parseID(idString)
		if err != nil {
			respondError(w, req, err)
			return
		}

		if err := s.lib.ReplacePlaylist(ctx, user, id, name, songIDs); err != nil {
			respondError(w, req, err)
			return
		}

		s.respondPlaylist(w, req, id)
		return
	}

	if name == "" {
		respondError(w, req, fmt.Errorf("%w: name", errMissingParameter))
		return
	}

	id, err := s.lib.CreatePlaylist(ctx, user, name, songIDs)
	if err != nil {
		respondError(w, req, err)
		return
	}

	s.respondPlaylist(w, req, id)
}

// parseTrackIDs parses the values of `name` as song IDs.
func parseTrackIDs(req *http.Request, name string) ([]int64, error) {
	ids, err := parseIDs(req, name)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if !isTrackID(id) {
			return nil, fmt.Errorf("song %d: %w", id, errUnknownID)
		}
	}

	return ids, nil
}
