package subsonic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sonicd/sonicd/src/catalog"
)

func (s *subsonic) star(w http.ResponseWriter, req *http.Request) {
	s.changeStars(w, req, s.lib.Star)
}

func (s *subsonic) unstar(w http.ResponseWriter, req *http.Request) {
	s.changeStars(w, req, s.lib.Unstar)
}

func (s *subsonic) changeStars(
	w http.ResponseWriter,
	req *http.Request,
	change func(ctx context.Context, user catalog.User, songIDs ...int64) error,
) {
	ctx := req.Context()

	songIDs, err := s.parseStarArguments(ctx, req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	if err := change(ctx, userFromContext(ctx), songIDs...); err != nil {
		respondError(w, req, err)
		return
	}

	encodeResponse(w, req, responseOk())
}

// parseStarArguments returns the songs selected with the `id`, `albumId`
// and `artistId` arguments of "star" and "unstar". Only songs carry stars
// so albums and artists stand for all of their songs.
func (s *subsonic) parseStarArguments(ctx context.Context, req *http.Request) ([]int64, error) {
	var ids []int64
	for _, name := range []string{"id", "albumId", "artistId"} {
		parsed, err := parseIDs(req, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, parsed...)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: id, albumId or artistId", errMissingParameter)
	}

	var songIDs []int64
	for _, id := range ids {
		var f catalog.Filter
		switch {
		case isTrackID(id):
			songIDs = append(songIDs, id)
			continue
		case isAlbumID(id):
			f.AlbumID = toAlbumDBID(id)
		case isArtistID(id):
			f.ArtistID = toArtistDBID(id)
		default:
			return nil, errUnknownID
		}

		songs, err := s.lib.Songs(ctx, f)
		if err != nil {
			return nil, err
		}
		if len(songs) == 0 {
			return nil, errUnknownID
		}
		for _, song := range songs {
			songIDs = append(songIDs, song.ID)
		}
	}

	return songIDs, nil
}
