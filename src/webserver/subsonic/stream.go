package subsonic

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/delivery"
)

func trackIDArg(req *http.Request) (int64, error) {
	id, err := parseID(req.Form.Get("id"))
	if err != nil {
		return 0, err
	}
	if !isTrackID(id) {
		return 0, errUnknownID
	}
	return id, nil
}

// maxBitrateArg returns the requested bitrate in kbps or zero when the
// client did not ask for one.
func maxBitrateArg(req *http.Request) (int, error) {
	raw := req.Form.Get("maxBitRate")
	if raw == "" {
		return 0, nil
	}

	bitrate, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: maxBitRate %q", delivery.ErrInvalidBitrate, raw)
	}
	return int(bitrate), nil
}

// stream sends a song at no more than `maxBitRate` kbps. Zero or a missing
// `maxBitRate` means the server's ceiling and anything which is not a
// number is refused. With format=raw the file is sent as it is stored.
func (s *subsonic) stream(w http.ResponseWriter, req *http.Request) {
	id, err := trackIDArg(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	var stream *delivery.Stream
	if req.Form.Get("format") == "raw" {
		stream, err = s.delivery.OpenOriginal(req.Context(), id)
	} else {
		bitrate, bitrateErr := maxBitrateArg(req)
		if bitrateErr != nil {
			respondError(w, req, bitrateErr)
			return
		}
		if bitrate == 0 {
			bitrate = s.delivery.MaxBitrate()
		}
		stream, err = s.delivery.Open(req.Context(), id, bitrate)
	}

	if err != nil {
		respondError(w, req, err)
		return
	}

	sendStream(w, req, stream, "inline")
}

func (s *subsonic) download(w http.ResponseWriter, req *http.Request) {
	id, err := trackIDArg(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	stream, err := s.delivery.OpenOriginal(req.Context(), id)
	if err != nil {
		respondError(w, req, err)
		return
	}

	sendStream(w, req, stream, "attachment")
}

func sendStream(w http.ResponseWriter, req *http.Request, stream *delivery.Stream, disposition string) {
	defer stream.Close()

	header := w.Header()
	header.Set("Content-Type", stream.ContentType)
	header.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": stream.Name,
	}))
	header.Set("X-Content-Kbitrate", strconv.Itoa(stream.Bitrate))
	if stream.Size >= 0 {
		header.Set("Content-Length", strconv.FormatInt(stream.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if req.Method == http.MethodHead {
		return
	}

	logger := log.With().Int64("song_id", stream.SongID).Str("mode", stream.Mode.String()).Logger()

	if _, err := stream.WriteTo(w); err != nil {
		logger.Debug().Err(err).Int64("bytes", stream.Sent()).Msg("stream interrupted")
	}

	if err := stream.Close(); err != nil {
		logger.Debug().Err(err).Msg("closing stream")
	}

	if err := stream.Wait(); err != nil {
		logger.Warn().Err(err).Msg("encoder did not finish cleanly")
	}
}
