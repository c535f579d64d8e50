package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/catalog"
)

// extractMetadata reads the tags of all songs of the library which need it.
// Songs which cannot be read keep their last scan time unset and are tried
// again on the next pass.
func (p *libraryPass) extractMetadata(ctx context.Context, full bool) error {
	store := p.scanner.store
	limit := p.scanner.cfg.BatchSize

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		songs, err := store.PendingSongs(ctx, p.lib.ID, full, afterID, limit)
		if err != nil {
			return err
		}
		if len(songs) == 0 {
			break
		}

		for _, song := range songs {
			afterID = song.ID

			meta, err := p.readSong(song)
			if err != nil {
				log.Warn().Err(err).Str("file", song.File).Msg("cannot read song tags")
				p.stats.Unreadable++
				continue
			}

			p.batch.Metadata = append(p.batch.Metadata, meta)
			p.stats.Tagged++
		}

		if err := p.flush(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (p *libraryPass) readSong(song catalog.PendingSong) (catalog.SongMetadata, error) {
	fullPath := catalog.Song{File: song.File, LibraryPath: song.LibraryPath}.FullPath()

	tags, err := p.scanner.readers.For(song.Format).ReadTags(fullPath)
	if err != nil {
		return catalog.SongMetadata{}, fmt.Errorf("%w: %w", ErrUnreadableMedia, err)
	}

	return catalog.SongMetadata{
		SongID:  song.ID,
		Title:   tags.Title,
		Artist:  tags.Artist,
		Album:   tags.Album,
		Genre:   tags.Genre,
		Length:  int64(tags.Duration / time.Second),
		Bitrate: tags.Bitrate,
		Track:   parseTrack(tags.Track),
		Year:    parseYear(tags.Year),
		Scanned: time.Now().Unix(),
	}, nil
}
