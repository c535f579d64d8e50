package subsonic

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

func (s *subsonic) scrobble(w http.ResponseWriter, req *http.Request) {
	if submission := req.Form.Get("submission"); submission == "false" {
		// "Now playing" notifications do not change play counts.
		encodeResponse(w, req, responseOk())
		return
	}

	ids, err := parseIDs(req, "id")
	if err == nil && len(ids) == 0 {
		err = fmt.Errorf("%w: id", errMissingParameter)
	}
	if err != nil {
		respondError(w, req, err)
		return
	}

	for _, id := range ids {
		if !isTrackID(id) {
			respondError(w, req, fmt.Errorf("track %d: %w", id, errUnknownID))
			return
		}
	}

	scrobbleTime := time.Now()
	if timeArg := req.Form.Get("time"); timeArg != "" {
		unixTimeMs, err := strconv.ParseInt(timeArg, 10, 64)
		if err != nil || unixTimeMs <= 0 {
			resp := responseError(
				errCodeGeneric,
				"bad `time` in parameters. It must be a positive int.",
			)
			encodeResponse(w, req, resp)
			return
		}

		scrobbleTime = time.UnixMilli(unixTimeMs)
	}

	ctx := req.Context()
	for _, id := range ids {
		if err := s.lib.ScrobbleAt(ctx, id, scrobbleTime); err != nil {
			log.Warn().Err(err).Int64("song_id", id).Msg("recording play")
			respondError(w, req, err)
			return
		}
	}

	encodeResponse(w, req, responseOk())
}
