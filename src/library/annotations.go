package library

import (
	"context"
	"time"

	"github.com/sonicd/sonicd/src/catalog"
)

// Star marks songs as starred by the user. Starring a starred song again
// changes nothing. Unknown songs are ErrNotFound.
func (l *Library) Star(ctx context.Context, user catalog.User, songIDs ...int64) error {
	for _, id := range songIDs {
		if _, err := l.store.Song(ctx, id); err != nil {
			return err
		}
		if err := l.store.Star(ctx, user.ID, id); err != nil {
			return err
		}
	}
	return nil
}

// Unstar removes the stars of the user from songs. Songs which were not
// starred are skipped.
func (l *Library) Unstar(ctx context.Context, user catalog.User, songIDs ...int64) error {
	for _, id := range songIDs {
		if err := l.store.Unstar(ctx, user.ID, id); err != nil {
			return err
		}
	}
	return nil
}

// IsStarred reports whether the user starred the song.
func (l *Library) IsStarred(ctx context.Context, user catalog.User, songID int64) (bool, error) {
	return l.store.IsStarred(ctx, user.ID, songID)
}

// Scrobble records that a song was played now.
func (l *Library) Scrobble(ctx context.Context, songID int64) error {
	return l.store.RecordPlay(ctx, songID, time.Now())
}

// ScrobbleAt records that a song was played at `at`.
func (l *Library) ScrobbleAt(ctx context.Context, songID int64, at time.Time) error {
	return l.store.RecordPlay(ctx, songID, at)
}
