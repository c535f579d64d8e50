package subsonic

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sonicd/sonicd/src/catalog"
)

// albumListFilter converts the arguments of getAlbumList and getAlbumList2
// into a catalog filter.
func (s *subsonic) albumListFilter(req *http.Request) (catalog.Filter, error) {
	var f catalog.Filter

	listType, err := requireParam(req, "type")
	if err != nil {
		return f, err
	}

	switch listType {
	case "random":
		f.Sort = catalog.SortRandom
	case "newest":
		f.Sort = catalog.SortAdded
		f.Desc = true
	case "frequent":
		f.Sort = catalog.SortPlayCount
		f.Desc = true
	case "recent":
		f.Sort = catalog.SortPlayed
		f.Desc = true
	case "alphabeticalByName":
		f.Sort = catalog.SortName
	case "starred":
		f.Sort = catalog.SortName
		f.StarredBy = userFromContext(req.Context()).ID
	case "byGenre":
		f.Genre, err = requireParam(req, "genre")
		if err != nil {
			return f, err
		}
		f.Sort = catalog.SortName
	case "byYear":
		fromYear, fromErr := strconv.Atoi(req.Form.Get("fromYear"))
		toYear, toErr := strconv.Atoi(req.Form.Get("toYear"))
		if fromErr != nil || toErr != nil {
			return f, fmt.Errorf(
				"%w: valid fromYear and toYear are required when type=byYear",
				errMissingParameter,
			)
		}

		f.FromYear, f.ToYear = fromYear, toYear
		if fromYear > toYear {
			f.FromYear, f.ToYear = toYear, fromYear
			f.Desc = true
		}
	default:
		return f, fmt.Errorf("unknown list type %q", listType)
	}

	f.LibraryID, err = s.musicFolderArg(req)
	if err != nil {
		return f, err
	}

	count, offset := pageArgs(req, "size", "offset", 10, 500)
	return f.Page(offset, count), nil
}

func (s *subsonic) getAlbumList(w http.ResponseWriter, req *http.Request) {
	s.albumList(w, req, "albumList", func(album catalog.Album) *Element {
		return albumChild("album", album)
	})
}

func (s *subsonic) getAlbumList2(w http.ResponseWriter, req *http.Request) {
	s.albumList(w, req, "albumList2", albumID3)
}

func (s *subsonic) albumList(
	w http.ResponseWriter,
	req *http.Request,
	listName string,
	render func(catalog.Album) *Element,
) {
	f, err := s.albumListFilter(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	list := NewElement(listName)

	if f.Count > 0 {
		albums, err := s.lib.Albums(req.Context(), f)
		if err != nil {
			respondError(w, req, err)
			return
		}

		for _, album := range albums {
			list.Append(render(album))
		}
	}

	resp := responseOk()
	resp.Append(list)
	encodeResponse(w, req, resp)
}

func (s *subsonic) getRandomSongs(w http.ResponseWriter, req *http.Request) {
	libraryID, err := s.musicFolderArg(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	count, _ := pageArgs(req, "size", "", 10, 500)
	f := catalog.Filter{
		LibraryID: libraryID,
		Genre:     req.Form.Get("genre"),
		FromYear:  parseIntOrDefault(req.Form.Get("fromYear"), 0),
		ToYear:    parseIntOrDefault(req.Form.Get("toYear"), 0),
		Sort:      catalog.SortRandom,
	}.Limit(count)

	list := NewElement("randomSongs")

	if count > 0 {
		songs, err := s.lib.Songs(req.Context(), f)
		if err != nil {
			respondError(w, req, err)
			return
		}

		for _, song := range songs {
			list.Append(songElement("song", song))
		}
	}

	resp := responseOk()
	resp.Append(list)
	encodeResponse(w, req, resp)
}
