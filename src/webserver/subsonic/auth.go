package subsonic

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/library"
)

type userContextKey struct{}

// userFromContext returns the authenticated user of a request.
func userFromContext(ctx context.Context) catalog.User {
	user, _ := ctx.Value(userContextKey{}).(catalog.User)
	return user
}

// credentials returns the user name and password of a request. HTTP basic
// authentication wins over the `u` and `p` parameters. Passwords could be
// hex encoded with the "enc:" prefix.
func credentials(r *http.Request) (string, string, error) {
	if user, pass, ok := r.BasicAuth(); ok {
		return user, pass, nil
	}

	user := r.Form.Get("u")
	pass := r.Form.Get("p")

	if !strings.HasPrefix(pass, "enc:") {
		return user, pass, nil
	}

	decPass, err := hex.DecodeString(strings.TrimPrefix(pass, "enc:"))
	if err != nil {
		return "", "", fmt.Errorf("password encoded wrong: %w", err)
	}

	return user, string(decPass), nil
}

func (s *subsonic) authHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(
		w http.ResponseWriter,
		r *http.Request,
	) {
		if err := r.ParseForm(); err != nil {
			http.Error(
				w,
				fmt.Sprintf("cannot parse request: %s", err),
				http.StatusBadRequest,
			)
			return
		}

		unauthorized := func(code apiErrorCode, msg string) {
			resp := responseError(code, msg)
			encodeResponseStatus(w, r, http.StatusUnauthorized, resp)
		}

		user, pass, err := credentials(r)
		if err != nil {
			unauthorized(errCodeWrongUserOrPass, err.Error())
			return
		}

		if pass == "" && r.Form.Get("t") != "" {
			unauthorized(
				errCodeTokenAuthLDAP,
				"Token authentication is not supported. Use a password.",
			)
			return
		}

		if user == "" || pass == "" {
			unauthorized(errCodeMissingParameter, "Required parameter is missing")
			return
		}

		account, err := s.lib.Authenticate(r.Context(), user, pass)
		if errors.Is(err, library.ErrWrongPassword) {
			log.Info().Str("username", user).Str("remote", r.RemoteAddr).Msg("failed login")
			unauthorized(errCodeWrongUserOrPass, "Wrong username or password")
			return
		} else if err != nil {
			resp := responseError(errCodeGeneric, err.Error())
			encodeResponseStatus(w, r, http.StatusInternalServerError, resp)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, account)
		handler.ServeHTTP(w, r.WithContext(ctx))
	})
}
