package scanner

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/sonicd/sonicd/src/catalog"
)

// libraryPass is the state of scanning a single library root.
type libraryPass struct {
	scanner *Scanner
	lib     catalog.Library

	batch   catalog.ScanBatch
	removed []catalog.RemovedEntry
	stats   Stats
}

// dirNode is a directory somewhere in the library tree.
type dirNode struct {
	id       int64  // directory cache id, 0 for the library root
	rel      string // slash separated path relative to the root
	depth    int
	artistID int64 // set for everything at depth 1 and below
}

func (p *libraryPass) reconcileRoot(ctx context.Context) error {
	return p.reconcileDir(ctx, dirNode{})
}

// reconcileDir brings the catalog in line with a single directory and then
// descends into its subdirectories.
//
// Depth 1 directories are artists. Directories at depth 2 and below which
// contain audio files are albums. Files anywhere else are ignored.
func (p *libraryPass) reconcileDir(ctx context.Context, node dirNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store := p.scanner.store
	fullPath := filepath.Join(p.lib.Path, filepath.FromSlash(node.rel))

	entries, err := afero.ReadDir(p.scanner.fs, fullPath)
	if err != nil {
		log.Warn().Err(err).Str("path", fullPath).Msg("cannot list directory")
		p.stats.Errors++
		return nil
	}
	p.stats.Dirs++
	p.scanner.watch(fullPath)

	var (
		onDisk   []string
		files    = make(map[string]os.FileInfo)
		subdirs  []string
		images   []string
		hasAudio bool
	)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		switch {
		case entry.IsDir():
			subdirs = append(subdirs, name)
			onDisk = append(onDisk, name)
		case node.depth >= 2 && IsAudio(name):
			hasAudio = true
			files[name] = entry
			onDisk = append(onDisk, name)
		case node.depth >= 2 && IsImage(name):
			images = append(images, name)
		}
	}

	knownDirs, err := store.ChildDirs(ctx, p.lib.ID, node.id)
	if err != nil {
		return err
	}

	var (
		known      []string
		dirIDs     = make(map[string]int64, len(knownDirs))
		knownSongs = make(map[string]catalog.KnownSong)
		album      catalog.Album
		haveAlbum  bool
	)
	for _, dir := range knownDirs {
		known = append(known, dir.Name)
		dirIDs[dir.Name] = dir.ID
	}

	if node.depth >= 2 {
		album, haveAlbum, err = p.album(ctx, node, hasAudio)
		if err != nil {
			log.Warn().Err(err).Str("path", fullPath).Msg("cannot store album")
			p.stats.Errors++
			return nil
		}
	}

	if haveAlbum {
		songs, err := store.AlbumSongs(ctx, album.ID)
		if err != nil {
			return err
		}
		for _, song := range songs {
			name := path.Base(song.File)
			knownSongs[name] = song
			known = append(known, name)
		}
	}

	diff := diffEntries(onDisk, known)

	for _, name := range diff.Create {
		info, isFile := files[name]
		if !isFile || !haveAlbum {
			continue
		}

		p.batch.NewSongs = append(p.batch.NewSongs, catalog.NewSong{
			LibraryID: p.lib.ID,
			AlbumID:   album.ID,
			File:      path.Join(node.rel, name),
			Size:      info.Size(),
			Title:     name,
			Format:    extension(name),
		})
		p.stats.NewSongs++

		if err := p.flushIfFull(ctx); err != nil {
			return err
		}
	}

	for _, name := range diff.Keep {
		info, isFile := files[name]
		song, isSong := knownSongs[name]
		if !isFile || !isSong || info.Size() == song.Size {
			continue
		}

		log.Debug().Str("file", song.File).Int64("size", info.Size()).Msg("song file changed")
		p.batch.Resized = append(p.batch.Resized, catalog.SizeChange{
			SongID: song.ID,
			Size:   info.Size(),
		})
		p.stats.Modified++

		if err := p.flushIfFull(ctx); err != nil {
			return err
		}
	}

	for _, name := range diff.Remove {
		rel := path.Join(node.rel, name)
		if !p.scanner.cfg.Prune {
			log.Debug().Str("path", rel).Msg("entry no longer on disk")
			continue
		}

		p.removed = append(p.removed, catalog.RemovedEntry{
			LibraryID: p.lib.ID,
			Path:      rel,
			DirID:     dirIDs[name],
		})
	}

	if haveAlbum && !album.CoverID.Valid && len(images) > 0 {
		p.bindCover(ctx, album, node, images)
	}

	for _, name := range sortedCopy(subdirs) {
		if err := p.descend(ctx, node, name); err != nil {
			return err
		}
	}

	return nil
}

// album returns the album stored for `node`. It is created only when the
// directory has audio files in it.
func (p *libraryPass) album(ctx context.Context, node dirNode, hasAudio bool) (catalog.Album, bool, error) {
	store := p.scanner.store

	album, err := store.AlbumByDir(ctx, node.artistID, node.id)
	if err == nil {
		return album, true, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return catalog.Album{}, false, err
	}
	if !hasAudio {
		return catalog.Album{}, false, nil
	}

	album, err = store.UpsertAlbum(ctx, node.artistID, node.id, path.Base(node.rel))
	if err != nil {
		return catalog.Album{}, false, err
	}

	return album, true, nil
}

// bindCover binds the first of `images` in name order as the album cover.
func (p *libraryPass) bindCover(ctx context.Context, album catalog.Album, node dirNode, images []string) {
	name := sortedCopy(images)[0]
	rel := path.Join(node.rel, name)

	var size int64 = -1
	fullPath := filepath.Join(p.lib.Path, filepath.FromSlash(rel))
	if info, err := p.scanner.fs.Stat(fullPath); err == nil {
		size = info.Size()
	}

	bound, err := p.scanner.store.BindCover(ctx, p.lib.ID, album.ID, rel, extension(name), size)
	if err != nil {
		log.Warn().Err(err).Str("path", rel).Msg("cannot bind album cover")
		p.stats.Errors++
		return
	}

	if bound {
		log.Debug().Str("path", rel).Int64("album_id", album.ID).Msg("bound album cover")
	}
}

// descend creates the directory cache entry for `name` under `parent` and
// reconciles it. Directories right under the root become artists.
func (p *libraryPass) descend(ctx context.Context, parent dirNode, name string) error {
	store := p.scanner.store

	dirID, err := store.DirID(ctx, p.lib.ID, parent.id, name)
	if err != nil {
		log.Warn().Err(err).Str("dir", name).Msg("cannot store directory")
		p.stats.Errors++
		return nil
	}

	child := dirNode{
		id:       dirID,
		rel:      path.Join(parent.rel, name),
		depth:    parent.depth + 1,
		artistID: parent.artistID,
	}

	if child.depth == 1 {
		child.artistID, err = store.UpsertArtist(ctx, p.lib.ID, dirID, name)
		if err != nil {
			log.Warn().Err(err).Str("dir", name).Msg("cannot store artist")
			p.stats.Errors++
			return nil
		}
	}

	return p.reconcileDir(ctx, child)
}

func (p *libraryPass) flushIfFull(ctx context.Context) error {
	if p.batch.Len() < p.scanner.cfg.BatchSize {
		return nil
	}
	return p.flush(ctx)
}

// flush commits the pending song writes.
func (p *libraryPass) flush(ctx context.Context) error {
	if p.batch.Len() == 0 {
		return nil
	}

	err := p.scanner.store.CommitScanBatch(ctx, &p.batch)
	p.batch.Reset()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Error().Err(err).Str("library", p.lib.Path).Msg("committing scan batch failed")
		p.stats.Errors++
	}

	return nil
}

func sortedCopy(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	slices.Sort(out)
	return out
}
