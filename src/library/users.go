package library

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/catalog"
)

// ErrNotAuthorized is returned when a user tries to change something they
// do not own.
var ErrNotAuthorized = errors.New("user is not authorized for this action")

// Authenticate returns the user when `password` is theirs. Returns
// ErrWrongPassword for unknown users too.
func (l *Library) Authenticate(ctx context.Context, username, password string) (catalog.User, error) {
	return l.store.CheckPassword(ctx, username, password)
}

// EnsureUser creates the user unless one with the same name exists. The
// password of an existing user is left as it is.
func (l *Library) EnsureUser(
	ctx context.Context,
	username, password string,
	admin bool,
	email string,
) (catalog.User, error) {
	user, err := l.store.AddUser(ctx, username, password, admin, email)
	if errors.Is(err, catalog.ErrDuplicateUser) {
		return l.store.UserByName(ctx, username)
	} else if err != nil {
		return catalog.User{}, err
	}

	log.Info().Str("username", username).Bool("admin", admin).Msg("user created")
	return user, nil
}

// User returns the user with this username.
func (l *Library) User(ctx context.Context, username string) (catalog.User, error) {
	return l.store.UserByName(ctx, username)
}
