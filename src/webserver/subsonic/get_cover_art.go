package subsonic

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

func (s *subsonic) getCoverArt(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.Form.Get("id"))
	if err != nil {
		respondError(w, req, err)
		return
	}

	ctx := req.Context()
	coverID, err := s.coverOf(ctx, id)
	if err != nil {
		respondError(w, req, err)
		return
	}

	size := parseIntOrDefault(req.Form.Get("size"), 0)
	img, err := s.delivery.OpenCover(ctx, coverID, size)
	if err != nil {
		respondError(w, req, err)
		return
	}
	defer func() {
		if err := img.Close(); err != nil {
			log.Debug().Err(err).Int64("cover_id", coverID).Msg("closing cover")
		}
	}()

	w.Header().Set("Content-Type", img.ContentType)
	http.ServeContent(w, req, img.Name, img.ModTime, img.Content)
}

// coverOf returns the catalog cover ID for the cover art ID `id`. Both
// albums and songs have the cover of the album.
func (s *subsonic) coverOf(ctx context.Context, id int64) (int64, error) {
	switch {
	case isAlbumID(id):
		album, err := s.lib.Album(ctx, toAlbumDBID(id))
		if err != nil {
			return 0, err
		}
		if album.CoverID.Valid {
			return album.CoverID.Int64, nil
		}
	case isTrackID(id):
		song, err := s.lib.Song(ctx, id)
		if err != nil {
			return 0, err
		}
		if song.CoverID.Valid {
			return song.CoverID.Int64, nil
		}
	}

	return 0, errUnknownID
}
