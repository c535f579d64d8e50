package scanner_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/scanner"
	"github.com/sonicd/sonicd/src/scanner/scannerfakes"
)

const libraryRoot = "/music"

type fixture struct {
	store   *catalog.Store
	fs      afero.Fs
	reader  *scannerfakes.FakeTagReader
	scanner *scanner.Scanner
}

func newFixture(t *testing.T, cfg scanner.Config) *fixture {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "sonicd.db")
	store, err := catalog.Open(t.Context(), dbPath, os.DirFS("../../sqls"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	_, err = store.AddLibrary(t.Context(), "music", libraryRoot)
	require.NoError(t, err)

	reader := &scannerfakes.FakeTagReader{}
	reader.ReadTagsReturns(scanner.Tags{
		Title:    "Title",
		Genre:    " hard rock ",
		Track:    "3/12",
		Year:     "2004-05-01",
		Duration: 185700 * time.Millisecond,
		Bitrate:  192000,
	}, nil)

	cfg.Readers = &scanner.Readers{
		MP3:      reader,
		Lossless: reader,
		Generic:  reader,
	}

	fs := afero.NewMemMapFs()
	return &fixture{
		store:   store,
		fs:      fs,
		reader:  reader,
		scanner: scanner.New(store, fs, cfg),
	}
}

func (f *fixture) writeFile(t *testing.T, rel string, size int) {
	t.Helper()

	full := filepath.Join(libraryRoot, filepath.FromSlash(rel))
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, afero.WriteFile(f.fs, full, []byte(strings.Repeat("x", size)), 0o644))
}

func (f *fixture) removeAll(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, f.fs.RemoveAll(filepath.Join(libraryRoot, filepath.FromSlash(rel))))
}

func (f *fixture) rescan(t *testing.T) scanner.Stats {
	t.Helper()

	stats, err := f.scanner.Rescan(t.Context(), scanner.ScanOptions{})
	require.NoError(t, err)
	return stats
}

func (f *fixture) songs(t *testing.T) map[string]catalog.Song {
	t.Helper()

	songs, err := f.store.Songs(t.Context(), catalog.Filter{})
	require.NoError(t, err)

	byFile := make(map[string]catalog.Song, len(songs))
	for _, song := range songs {
		byFile[song.File] = song
	}
	return byFile
}

// TestScanDiscoversLibrary scans a small tree and checks the catalog
// matches it.
func TestScanDiscoversLibrary(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.writeFile(t, "Artist/Album/02.flac", 200)
	f.writeFile(t, "Artist/Album/cover.jpg", 10)
	f.writeFile(t, "Artist/Album/back.png", 20)
	f.writeFile(t, "Artist/Album/.hidden.mp3", 10)
	f.writeFile(t, "Artist/loose.mp3", 10)
	f.writeFile(t, "root.mp3", 10)

	stats := f.rescan(t)
	assert.Equal(t, 1, stats.Libraries)
	assert.Equal(t, 2, stats.NewSongs)
	assert.Equal(t, 2, stats.Tagged)
	assert.Zero(t, stats.Unreadable)
	assert.Zero(t, stats.Errors)
	assert.Equal(t, 2, f.reader.ReadTagsCallCount())

	songs := f.songs(t)
	require.Len(t, songs, 2)

	song, ok := songs["Artist/Album/01.mp3"]
	require.True(t, ok)
	assert.Equal(t, "Title", song.Title)
	assert.Equal(t, "mp3", song.Format)
	assert.Equal(t, int64(100), song.Size)
	assert.Equal(t, int64(185), song.Length)
	assert.Equal(t, int64(192000), song.Bitrate)
	assert.Equal(t, int64(3), song.Track)
	assert.Equal(t, int64(2004), song.Year)
	assert.Equal(t, "Hard Rock", song.Genre)
	assert.Equal(t, "Artist", song.Artist)
	assert.Equal(t, "Album", song.Album)
	assert.NotEqual(t, int64(-1), song.LastScan)
	assert.Equal(t, "/music/Artist/Album/01.mp3", song.FullPath())

	albums, err := f.store.Albums(t.Context(), catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, albums, 1)
	require.True(t, albums[0].CoverID.Valid)
	assert.NotEqual(t, int64(-1), albums[0].Added)

	cover, err := f.store.Cover(t.Context(), albums[0].CoverID.Int64)
	require.NoError(t, err)
	assert.Equal(t, "Artist/Album/back.png", cover.Path)
	assert.Equal(t, int64(20), cover.Size)
}

// TestRescanIsIdempotent checks that scanning an unchanged tree again
// neither creates rows nor reads tags.
func TestRescanIsIdempotent(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.writeFile(t, "Artist/Other/01.mp3", 100)
	f.rescan(t)

	before := f.songs(t)
	calls := f.reader.ReadTagsCallCount()

	stats := f.rescan(t)
	assert.Zero(t, stats.NewSongs)
	assert.Zero(t, stats.Modified)
	assert.Zero(t, stats.Tagged)
	assert.Equal(t, calls, f.reader.ReadTagsCallCount())
	assert.Equal(t, before, f.songs(t))

	albums, err := f.store.Albums(t.Context(), catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, albums, 2)

	artists, err := f.store.Artists(t.Context(), catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, artists, 1)
}

// TestChangedFilesAreReread makes sure a file whose size changed gets its
// tags read again.
func TestChangedFilesAreReread(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.writeFile(t, "Artist/Album/02.mp3", 100)
	f.rescan(t)

	f.writeFile(t, "Artist/Album/01.mp3", 150)
	stats := f.rescan(t)
	assert.Equal(t, 1, stats.Modified)
	assert.Equal(t, 1, stats.Tagged)
	assert.Zero(t, stats.NewSongs)

	song := f.songs(t)["Artist/Album/01.mp3"]
	assert.Equal(t, int64(150), song.Size)
	assert.Equal(t, "/music/Artist/Album/01.mp3", f.reader.ReadTagsArgsForCall(2))
}

// TestFullRescanRereadsEverything checks the full scan option.
func TestFullRescanRereadsEverything(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.writeFile(t, "Artist/Album/02.mp3", 100)
	f.rescan(t)

	stats, err := f.scanner.Rescan(t.Context(), scanner.ScanOptions{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Tagged)
	assert.Equal(t, 4, f.reader.ReadTagsCallCount())
}

// TestCoverFirstWins adds an image which sorts before the bound cover and
// checks the cover does not change.
func TestCoverFirstWins(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.writeFile(t, "Artist/Album/folder.jpg", 10)
	f.rescan(t)

	f.writeFile(t, "Artist/Album/aaa.jpg", 10)
	f.rescan(t)

	albums, err := f.store.Albums(t.Context(), catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, albums, 1)

	cover, err := f.store.Cover(t.Context(), albums[0].CoverID.Int64)
	require.NoError(t, err)
	assert.Equal(t, "Artist/Album/folder.jpg", cover.Path)
}

// TestUnreadableSongsAreRetried makes sure songs which could not be read
// stay pending and are tried again.
func TestUnreadableSongsAreRetried(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	good := f.reader
	good.ReadTagsCalls(func(path string) (scanner.Tags, error) {
		if strings.HasSuffix(path, "broken.mp3") {
			return scanner.Tags{}, errors.New("not an mp3")
		}
		return scanner.Tags{Title: "Fine"}, nil
	})

	f.writeFile(t, "Artist/Album/broken.mp3", 100)
	f.writeFile(t, "Artist/Album/fine.mp3", 100)

	stats := f.rescan(t)
	assert.Equal(t, 1, stats.Unreadable)
	assert.Equal(t, 1, stats.Tagged)

	songs := f.songs(t)
	assert.Equal(t, int64(-1), songs["Artist/Album/broken.mp3"].LastScan)
	assert.Equal(t, "broken.mp3", songs["Artist/Album/broken.mp3"].Title)
	assert.Equal(t, "Fine", songs["Artist/Album/fine.mp3"].Title)

	stats = f.rescan(t)
	assert.Equal(t, 1, stats.Unreadable)
	assert.Zero(t, stats.Tagged)
	assert.Equal(t, 3, f.reader.ReadTagsCallCount())
}

// TestTagsRenameAlbumAndArtist checks that album and artist tags override
// the directory names.
func TestTagsRenameAlbumAndArtist(t *testing.T) {
	f := newFixture(t, scanner.Config{})
	f.reader.ReadTagsReturns(scanner.Tags{
		Title:  "Song",
		Artist: "The Artist",
		Album:  "The Album",
	}, nil)

	f.writeFile(t, "artist/2004 - album/01.mp3", 100)
	f.rescan(t)

	song := f.songs(t)["artist/2004 - album/01.mp3"]
	assert.Equal(t, "The Artist", song.Artist)
	assert.Equal(t, "The Album", song.Album)
	assert.Equal(t, int64(-1), song.Track)
	assert.Equal(t, int64(-1), song.Year)
}

// TestConcurrentRescan checks only one scan runs at a time.
func TestConcurrentRescan(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	release := make(chan struct{})
	reading := make(chan struct{}, 1)
	f.reader.ReadTagsCalls(func(string) (scanner.Tags, error) {
		select {
		case reading <- struct{}{}:
		default:
		}
		<-release
		return scanner.Tags{}, nil
	})

	f.writeFile(t, "Artist/Album/01.mp3", 100)

	done := make(chan error, 1)
	go func() {
		_, err := f.scanner.Rescan(t.Context(), scanner.ScanOptions{})
		done <- err
	}()

	<-reading
	assert.True(t, f.scanner.IsScanning())

	_, err := f.scanner.Rescan(t.Context(), scanner.ScanOptions{})
	assert.ErrorIs(t, err, scanner.ErrAlreadyScanning)
	assert.False(t, f.scanner.Trigger(scanner.ScanOptions{}))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.scanner.IsScanning())
}

// TestTriggerAndOnComplete runs a background scan and waits for it.
func TestTriggerAndOnComplete(t *testing.T) {
	f := newFixture(t, scanner.Config{})
	f.writeFile(t, "Artist/Album/01.mp3", 100)

	completed := make(chan scanner.Stats, 1)
	f.scanner.OnComplete(func(stats scanner.Stats) {
		completed <- stats
	})

	f.scanner.Start(t.Context())
	f.scanner.Wait()

	stats := <-completed
	assert.Equal(t, 1, stats.NewSongs)
	assert.Equal(t, stats, f.scanner.LastStats())
	assert.False(t, stats.Finished.Before(stats.Started))
}

// TestRemovedFilesStayWithoutPrune checks that scans only add to the
// catalog unless pruning is enabled.
func TestRemovedFilesStayWithoutPrune(t *testing.T) {
	f := newFixture(t, scanner.Config{})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.rescan(t)

	f.removeAll(t, "Artist")
	f.rescan(t)

	assert.Len(t, f.songs(t), 1)
}

// TestPrune removes files and directories from disk and checks the catalog
// follows.
func TestPrune(t *testing.T) {
	f := newFixture(t, scanner.Config{Prune: true})

	f.writeFile(t, "Artist/Album/01.mp3", 100)
	f.writeFile(t, "Artist/Album/02.mp3", 100)
	f.writeFile(t, "Artist/Album/cover.jpg", 10)
	f.writeFile(t, "Other/Album/01.mp3", 100)
	f.rescan(t)
	require.Len(t, f.songs(t), 3)

	f.removeAll(t, "Artist/Album/02.mp3")
	stats := f.rescan(t)
	assert.Equal(t, int64(1), stats.Pruned.Songs)
	assert.Len(t, f.songs(t), 2)

	f.removeAll(t, "Artist")
	stats = f.rescan(t)
	assert.Equal(t, int64(1), stats.Pruned.Songs)
	assert.Equal(t, int64(1), stats.Pruned.Albums)
	assert.Equal(t, int64(1), stats.Pruned.Artists)

	songs := f.songs(t)
	assert.Len(t, songs, 1)
	assert.Contains(t, songs, "Other/Album/01.mp3")

	artists, err := f.store.Artists(t.Context(), catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, "Other", artists[0].Name)

	// The tree comes back under new IDs.
	f.writeFile(t, "Artist/Album/01.mp3", 100)
	stats = f.rescan(t)
	assert.Equal(t, 1, stats.NewSongs)
	assert.Len(t, f.songs(t), 2)
}

// TestBatchedCommits scans more songs than fit in a batch and checks every
// batch is written, the last partial one included.
func TestBatchedCommits(t *testing.T) {
	f := newFixture(t, scanner.Config{BatchSize: 2})

	for _, name := range []string{"01", "02", "03", "04", "05"} {
		f.writeFile(t, "Artist/Album/"+name+".mp3", 100)
	}

	var (
		stored []int
		tagged []int
	)
	f.reader.ReadTagsCalls(func(string) (scanner.Tags, error) {
		songs := f.songs(t)
		stored = append(stored, len(songs))

		var done int
		for _, song := range songs {
			if song.LastScan != -1 {
				done++
			}
		}
		tagged = append(tagged, done)

		return scanner.Tags{Title: "Tagged", Duration: 61 * time.Second, Bitrate: 128000}, nil
	})

	stats := f.rescan(t)
	assert.Equal(t, 5, stats.NewSongs)
	assert.Equal(t, 5, stats.Tagged)
	assert.Zero(t, stats.Errors)

	assert.Equal(t, []int{5, 5, 5, 5, 5}, stored)
	assert.Equal(t, []int{0, 0, 2, 2, 4}, tagged)

	songs := f.songs(t)
	require.Len(t, songs, 5)
	for file, song := range songs {
		assert.Equal(t, "Tagged", song.Title, file)
		assert.Equal(t, int64(61), song.Length, file)
		assert.Equal(t, int64(128000), song.Bitrate, file)
		assert.NotEqual(t, int64(-1), song.LastScan, file)
	}
}
