package library

import (
	"context"
	"fmt"

	"github.com/sonicd/sonicd/src/catalog"
)

// PlaylistWithEntries is a playlist together with its songs in order.
type PlaylistWithEntries struct {
	catalog.Playlist
	Entries []catalog.PlaylistEntry
}

// Playlists returns the playlists the user owns and all public ones.
func (l *Library) Playlists(ctx context.Context, user catalog.User) ([]catalog.Playlist, error) {
	return l.store.Playlists(ctx, user.ID)
}

// Playlist returns a playlist with its entries. Private playlists of other
// users are ErrNotAuthorized.
func (l *Library) Playlist(ctx context.Context, user catalog.User, id int64) (PlaylistWithEntries, error) {
	playlist, err := l.store.Playlist(ctx, id)
	if err != nil {
		return PlaylistWithEntries{}, err
	}

	if !playlist.Public && playlist.OwnerID != user.ID && !user.Admin {
		return PlaylistWithEntries{}, fmt.Errorf("playlist %d: %w", id, ErrNotAuthorized)
	}

	entries, err := l.store.PlaylistEntries(ctx, id)
	if err != nil {
		return PlaylistWithEntries{}, err
	}

	return PlaylistWithEntries{Playlist: playlist, Entries: entries}, nil
}

// CreatePlaylist creates a playlist of `owner` holding `songIDs` in this
// order. Unknown songs are ErrNotFound.
func (l *Library) CreatePlaylist(
	ctx context.Context,
	owner catalog.User,
	name string,
	songIDs []int64,
) (int64, error) {
	if err := l.checkSongs(ctx, songIDs); err != nil {
		return 0, err
	}

	return l.store.CreatePlaylist(ctx, owner.ID, name, songIDs)
}

// ReplacePlaylist sets the songs of an existing playlist to `songIDs`.
func (l *Library) ReplacePlaylist(
	ctx context.Context,
	user catalog.User,
	id int64,
	name string,
	songIDs []int64,
) error {
	current, err := l.Playlist(ctx, user, id)
	if err != nil {
		return err
	}

	indexes := make([]int, len(current.Entries))
	for i := range indexes {
		indexes[i] = i
	}

	return l.UpdatePlaylist(ctx, user, id, catalog.PlaylistUpdate{
		Name:          name,
		RemoveIndexes: indexes,
		AddSongs:      songIDs,
	})
}

// UpdatePlaylist changes a playlist owned by `user`. Admins could change
// any playlist.
func (l *Library) UpdatePlaylist(
	ctx context.Context,
	user catalog.User,
	id int64,
	update catalog.PlaylistUpdate,
) error {
	if err := l.checkOwner(ctx, user, id); err != nil {
		return err
	}
	if err := l.checkSongs(ctx, update.AddSongs); err != nil {
		return err
	}

	return l.store.UpdatePlaylist(ctx, id, update)
}

// DeletePlaylist removes a playlist owned by `user` and all its entries.
func (l *Library) DeletePlaylist(ctx context.Context, user catalog.User, id int64) error {
	if err := l.checkOwner(ctx, user, id); err != nil {
		return err
	}

	return l.store.DeletePlaylist(ctx, id)
}

func (l *Library) checkOwner(ctx context.Context, user catalog.User, id int64) error {
	playlist, err := l.store.Playlist(ctx, id)
	if err != nil {
		return err
	}

	if playlist.OwnerID != user.ID && !user.Admin {
		return fmt.Errorf("playlist %d: %w", id, ErrNotAuthorized)
	}

	return nil
}

func (l *Library) checkSongs(ctx context.Context, songIDs []int64) error {
	for _, id := range songIDs {
		if _, err := l.store.Song(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
