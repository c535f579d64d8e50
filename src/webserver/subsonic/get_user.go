package subsonic

import (
	"fmt"
	"net/http"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/library"
)

func (s *subsonic) getUser(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	current := userFromContext(ctx)

	username, err := requireParam(req, "username")
	if err != nil {
		respondError(w, req, err)
		return
	}

	user := current
	if username != current.Username {
		if !current.Admin {
			err := fmt.Errorf("only admins could see other users: %w", library.ErrNotAuthorized)
			respondError(w, req, err)
			return
		}

		user, err = s.lib.User(ctx, username)
		if err != nil {
			respondError(w, req, err)
			return
		}
	}

	libs, err := s.lib.Libraries(ctx)
	if err != nil {
		respondError(w, req, err)
		return
	}

	resp := responseOk()
	resp.Append(userElement(user, libs))
	encodeResponse(w, req, resp)
}

func userElement(user catalog.User, libs []catalog.Library) *Element {
	el := NewElement("user").
		Set("username", user.Username).
		Set("email", user.Email).
		Set("scrobblingEnabled", true).
		Set("adminRole", user.Admin).
		Set("settingsRole", false).
		Set("downloadRole", true).
		Set("uploadRole", false).
		Set("playlistRole", true).
		Set("coverArtRole", false).
		Set("commentRole", false).
		Set("podcastRole", false).
		Set("streamRole", true).
		Set("jukeboxRole", false).
		Set("shareRole", false).
		Set("videoConversionRole", false)

	for _, lib := range libs {
		el.TextChild("folder", lib.ID)
	}

	return el
}
