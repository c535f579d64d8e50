package subsonic

import (
	"fmt"
	"strconv"
)

// IDs of the API live in one space. Songs keep their catalog IDs, artists
// and albums are moved above them so that a directory ID tells what it
// points to. This allows up to a billion songs and a billion artists.
const (
	artistIDOffset int64 = 1e9
	albumIDOffset  int64 = 2e9
)

func trackFSID(trackID int64) int64 {
	return trackID
}

func isTrackID(id int64) bool {
	return id > 0 && id < artistIDOffset
}

func artistFSID(artistID int64) int64 {
	return artistIDOffset + artistID
}

func toArtistDBID(artistFSID int64) int64 {
	return artistFSID - artistIDOffset
}

func isArtistID(id int64) bool {
	return id > artistIDOffset && id <= albumIDOffset
}

func albumFSID(albumID int64) int64 {
	return albumIDOffset + albumID
}

func toAlbumDBID(albumFSID int64) int64 {
	return albumFSID - albumIDOffset
}

func isAlbumID(id int64) bool {
	return id > albumIDOffset
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID parses an API ID and returns an error suitable for clients.
func parseID(idString string) (int64, error) {
	if idString == "" {
		return 0, fmt.Errorf("%w: id", errMissingParameter)
	}

	id, err := strconv.ParseInt(idString, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed ID %q", idString)
	}
	return id, nil
}
