package subsonic

import (
	"net/http"

	"github.com/sonicd/sonicd/src/catalog"
)

func (s *subsonic) getStarred(w http.ResponseWriter, req *http.Request) {
	s.starred(w, req, "starred", func(album catalog.Album) *Element {
		return albumChild("album", album)
	})
}

func (s *subsonic) getStarred2(w http.ResponseWriter, req *http.Request) {
	s.starred(w, req, "starred2", albumID3)
}

func (s *subsonic) starred(
	w http.ResponseWriter,
	req *http.Request,
	listName string,
	renderAlbum func(catalog.Album) *Element,
) {
	ctx := req.Context()
	user := userFromContext(ctx)

	libraryID, err := s.musicFolderArg(req)
	if err != nil {
		respondError(w, req, err)
		return
	}

	f := catalog.Filter{
		StarredBy: user.ID,
		LibraryID: libraryID,
		Sort:      catalog.SortName,
	}

	artists, err := s.lib.Artists(ctx, f)
	if err != nil {
		respondError(w, req, err)
		return
	}

	albums, err := s.lib.Albums(ctx, f)
	if err != nil {
		respondError(w, req, err)
		return
	}

	f.Sort = catalog.SortDefault
	songs, err := s.lib.Songs(ctx, f)
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	list := resp.Child(listName)
	for _, artist := range artists {
		list.Append(artistElement(artist))
	}
	for _, album := range albums {
		list.Append(renderAlbum(album))
	}
	for _, song := range songs {
		list.Append(songElement("song", song).Set("starred", true))
	}

	encodeResponse(w, req, resp)
}
