package subsonic

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sonicd/sonicd/src/catalog"
)

// letterGroups are the index groups in the order they are listed.
var letterGroups = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X-Z", "#",
}

// letterGroup returns the index group of a name. Accents are ignored so
// "Édith Piaf" is under "E". Names which do not start with a latin letter
// are under "#".
func letterGroup(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.TrimSpace(name),
	)
	if err != nil || folded == "" {
		return "#"
	}

	first := unicode.ToUpper([]rune(folded)[0])
	switch {
	case first >= 'X' && first <= 'Z':
		return "X-Z"
	case first >= 'A' && first <= 'W':
		return string(first)
	default:
		return "#"
	}
}

// artistIndex builds the `parent` element with artists grouped in
// "index" children.
func (s *subsonic) artistIndex(ctx context.Context, parent string, libraryID int64) (*Element, error) {
	artists, err := s.lib.Artists(ctx, catalog.Filter{
		LibraryID: libraryID,
		Sort:      catalog.SortName,
	})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]catalog.Artist)
	for _, artist := range artists {
		group := letterGroup(artist.Name)
		grouped[group] = append(grouped[group], artist)
	}

	el := NewElement(parent)
	for _, group := range letterGroups {
		if len(grouped[group]) == 0 {
			continue
		}

		index := el.Child("index").Set("name", group)
		for _, artist := range grouped[group] {
			index.Append(artistElement(artist))
		}
	}

	return el, nil
}

func (s *subsonic) getIndexes(w http.ResponseWriter, req *http.Request) {
	libraryID, err := s.musicFolderArg(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	indexes, err := s.artistIndex(req.Context(), "indexes", libraryID)
	if err != nil {
		respondError(w, req, err)
		return
	}
	indexes.Set("lastModified", time.Now().UnixMilli())

	resp := responseOk()
	resp.Append(indexes)
	encodeResponse(w, req, resp)
}

func (s *subsonic) getArtists(w http.ResponseWriter, req *http.Request) {
	libraryID, err := s.musicFolderArg(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	artists, err := s.artistIndex(req.Context(), "artists", libraryID)
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	resp.Append(artists)
	encodeResponse(w, req, resp)
}
