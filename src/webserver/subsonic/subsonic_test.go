package subsonic_test

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/delivery"
	"github.com/sonicd/sonicd/src/library"
	"github.com/sonicd/sonicd/src/library/libraryfakes"
	"github.com/sonicd/sonicd/src/webserver/subsonic"
)

const (
	artistOffset = 1000000000
	albumOffset  = 2000000000
)

type fixture struct {
	rescan   *libraryfakes.FakeRescanner
	lib      *library.Library
	handler  http.Handler
	songIDs  []int64
	artistID int64
	album    catalog.Album
}

// newFixture returns an API handler over a library with one album of three
// songs. The files of the songs and the album cover are in memory.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := t.Context()

	dbPath := filepath.Join(t.TempDir(), "sonicd.db")
	store, err := catalog.Open(ctx, dbPath, os.DirFS("../../../sqls"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	rescan := &libraryfakes.FakeRescanner{}
	rescan.TriggerReturns(true)
	lib := library.New(store, rescan)

	root, err := lib.AddRoot(ctx, "", "/music")
	require.NoError(t, err)

	artistDir, err := store.DirID(ctx, root.ID, 0, "Blur")
	require.NoError(t, err)
	artistID, err := store.UpsertArtist(ctx, root.ID, artistDir, "Blur")
	require.NoError(t, err)
	albumDir, err := store.DirID(ctx, root.ID, artistDir, "Parklife")
	require.NoError(t, err)
	album, err := store.UpsertAlbum(ctx, artistID, albumDir, "Parklife")
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	batch := &catalog.ScanBatch{}
	for _, name := range []string{"Girls & Boys.mp3", "Tracy Jacks.mp3", "End of a Century.mp3"} {
		file := "Blur/Parklife/" + name
		require.NoError(t, afero.WriteFile(fs, "/music/"+file, []byte("audio of "+name), 0o644))

		batch.NewSongs = append(batch.NewSongs, catalog.NewSong{
			LibraryID: root.ID,
			AlbumID:   album.ID,
			File:      file,
			Size:      int64(len("audio of " + name)),
			Title:     name,
			Format:    "mp3",
		})
	}
	require.NoError(t, store.CommitScanBatch(ctx, batch))

	require.NoError(t, afero.WriteFile(fs, "/music/Blur/Parklife/cover.jpg", []byte("jpeg"), 0o644))
	_, err = store.BindCover(ctx, root.ID, album.ID, "Blur/Parklife/cover.jpg", "jpg", 4)
	require.NoError(t, err)

	album, err = lib.Album(ctx, album.ID)
	require.NoError(t, err)

	songs, err := store.AlbumSongs(ctx, album.ID)
	require.NoError(t, err)

	_, err = lib.EnsureUser(ctx, "admin", "admin-pass", true, "")
	require.NoError(t, err)
	_, err = lib.EnsureUser(ctx, "guest", "guest-pass", false, "")
	require.NoError(t, err)

	pipeline := delivery.New(lib, fs, nil, delivery.Config{SkipTranscode: true})

	f := &fixture{
		rescan:   rescan,
		lib:      lib,
		handler:  subsonic.NewHandler(lib, pipeline),
		artistID: artistID,
		album:    album,
	}
	for _, song := range songs {
		f.songIDs = append(f.songIDs, song.ID)
	}

	return f
}

// call sends a request as `user` whose password is "<user>-pass". The
// response is requested as JSON unless `params` says otherwise.
func (f *fixture) call(t *testing.T, user, endpoint string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()

	if params == nil {
		params = url.Values{}
	}
	if user != "" {
		params.Set("u", user)
		params.Set("p", user+"-pass")
	}
	if params.Get("f") == "" {
		params.Set("f", "json")
	}

	req := httptest.NewRequest(http.MethodGet, "/rest/"+endpoint+"?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// ok sends a request as admin and returns the decoded response, which
// must be successful.
func (f *fixture) ok(t *testing.T, endpoint string, params url.Values) map[string]any {
	t.Helper()

	rec := f.call(t, "admin", endpoint, params)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	require.Equal(t, "ok", resp["status"], rec.Body.String())
	return resp
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	require.Contains(t, doc, "subsonic-response")
	return doc["subsonic-response"]
}

func errorCode(t *testing.T, resp map[string]any) int {
	t.Helper()

	require.Equal(t, "failed", resp["status"])
	apiErr, ok := resp["error"].(map[string]any)
	require.True(t, ok)
	return int(apiErr["code"].(float64))
}

func list(t *testing.T, obj map[string]any, name string) []any {
	t.Helper()

	items, ok := obj[name].([]any)
	require.True(t, ok, "%s is not a list in %v", name, obj)
	return items
}

func object(t *testing.T, value any) map[string]any {
	t.Helper()

	obj, ok := value.(map[string]any)
	require.True(t, ok, "%v is not an object", value)
	return obj
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	t.Run("parameters", func(t *testing.T) {
		f.ok(t, "ping", nil)
		f.ok(t, "ping.view", nil)
	})

	t.Run("hex encoded password", func(t *testing.T) {
		params := url.Values{}
		params.Set("u", "guest")
		params.Set("p", "enc:"+hex.EncodeToString([]byte("guest-pass")))
		rec := f.call(t, "", "ping", params)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("basic auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rest/ping?f=json", nil)
		req.SetBasicAuth("guest", "guest-pass")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	tests := []struct {
		desc   string
		params url.Values
		code   int
	}{
		{
			desc:   "missing credentials",
			params: url.Values{},
			code:   10,
		},
		{
			desc:   "wrong password",
			params: url.Values{"u": {"guest"}, "p": {"nope"}},
			code:   40,
		},
		{
			desc:   "unknown user",
			params: url.Values{"u": {"nobody"}, "p": {"guest-pass"}},
			code:   40,
		},
		{
			desc:   "bad hex password",
			params: url.Values{"u": {"guest"}, "p": {"enc:zz"}},
			code:   40,
		},
		{
			desc:   "token authentication",
			params: url.Values{"u": {"guest"}, "t": {"26719a1196d2a940705a59634eb18eab"}, "s": {"c19b2d"}},
			code:   41,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			rec := f.call(t, "", "ping", test.params)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, test.code, errorCode(t, decode(t, rec)))
		})
	}
}

func TestUnknownMethod(t *testing.T) {
	f := newFixture(t)

	rec := f.call(t, "admin", "getNowPlaying", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))
}

func TestXMLIsTheDefault(t *testing.T) {
	f := newFixture(t)

	rec := f.call(t, "admin", "ping", url.Values{"f": {"xml"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `status="ok"`)
	assert.Contains(t, rec.Body.String(), `xmlns="http://subsonic.org/restapi"`)
}

func TestBrowsing(t *testing.T) {
	f := newFixture(t)
	artistFSID := id(artistOffset + f.artistID)
	albumFSID := id(albumOffset + f.album.ID)

	resp := f.ok(t, "getMusicFolders", nil)
	folders := list(t, object(t, resp["musicFolders"]), "musicFolder")
	require.Len(t, folders, 1)
	folder := object(t, folders[0])
	assert.Equal(t, "music", folder["name"])
	folderID := strconv.Itoa(int(folder["id"].(float64)))

	resp = f.ok(t, "getIndexes", url.Values{"musicFolderId": {folderID}})
	indexes := list(t, object(t, resp["indexes"]), "index")
	require.Len(t, indexes, 1)
	index := object(t, indexes[0])
	assert.Equal(t, "B", index["name"])
	artists := list(t, index, "artist")
	require.Len(t, artists, 1)
	assert.Equal(t, artistFSID, object(t, artists[0])["id"])

	rec := f.call(t, "admin", "getIndexes", url.Values{"musicFolderId": {"9999"}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))

	resp = f.ok(t, "getArtists", nil)
	indexes = list(t, object(t, resp["artists"]), "index")
	assert.Len(t, indexes, 1)

	resp = f.ok(t, "getMusicDirectory", url.Values{"id": {artistFSID}})
	dir := object(t, resp["directory"])
	assert.Equal(t, "Blur", dir["name"])
	children := list(t, dir, "child")
	require.Len(t, children, 1)
	album := object(t, children[0])
	assert.Equal(t, albumFSID, album["id"])
	assert.Equal(t, true, album["isDir"])
	assert.Equal(t, albumFSID, album["coverArt"])

	resp = f.ok(t, "getMusicDirectory", url.Values{"id": {albumFSID}})
	children = list(t, object(t, resp["directory"]), "child")
	require.Len(t, children, 3)
	song := object(t, children[0])
	assert.Equal(t, false, song["isDir"])
	assert.Equal(t, albumFSID, song["parent"])
	assert.Equal(t, "audio/mpeg", song["contentType"])
	assert.Equal(t, "mp3", song["suffix"])

	rec = f.call(t, "admin", "getMusicDirectory", nil)
	assert.Equal(t, 10, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "getMusicDirectory", url.Values{"id": {id(albumOffset + 9999)}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))

	resp = f.ok(t, "getArtist", url.Values{"id": {artistFSID}})
	albums := list(t, object(t, resp["artist"]), "album")
	assert.Len(t, albums, 1)

	resp = f.ok(t, "getAlbum", url.Values{"id": {albumFSID}})
	albumObj := object(t, resp["album"])
	assert.Equal(t, "Parklife", albumObj["name"])
	assert.Len(t, list(t, albumObj, "song"), 3)

	resp = f.ok(t, "getSong", url.Values{"id": {id(f.songIDs[0])}})
	assert.Equal(t, id(f.songIDs[0]), object(t, resp["song"])["id"])

	rec = f.call(t, "admin", "getAlbum", url.Values{"id": {artistFSID}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))
}

func TestAlbumLists(t *testing.T) {
	f := newFixture(t)

	for _, listType := range []string{"random", "newest", "frequent", "recent", "alphabeticalByName"} {
		resp := f.ok(t, "getAlbumList2", url.Values{"type": {listType}})
		albums := list(t, object(t, resp["albumList2"]), "album")
		assert.Len(t, albums, 1, listType)
	}

	resp := f.ok(t, "getAlbumList", url.Values{"type": {"newest"}, "size": {"0"}})
	assert.NotContains(t, object(t, resp["albumList"]), "album")

	rec := f.call(t, "admin", "getAlbumList", nil)
	assert.Equal(t, 10, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "getAlbumList", url.Values{"type": {"byGenre"}})
	assert.Equal(t, 10, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "getAlbumList", url.Values{"type": {"highest-ish"}})
	assert.Equal(t, 0, errorCode(t, decode(t, rec)))

	resp = f.ok(t, "getRandomSongs", url.Values{"size": {"2"}})
	assert.Len(t, list(t, object(t, resp["randomSongs"]), "song"), 2)
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	songID := id(f.songIDs[0])

	rec := f.call(t, "admin", "stream", url.Values{"id": {songID}})
	require.Equal(t, http.StatusOK, rec.Code)

	song, err := f.lib.Song(t.Context(), f.songIDs[0])
	require.NoError(t, err)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "audio of "+filepath.Base(song.File), string(body))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(len(body)), rec.Header().Get("Content-Length"))

	rec = f.call(t, "admin", "download", url.Values{"id": {songID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = f.call(t, "admin", "stream", url.Values{"id": {songID}, "maxBitRate": {"0"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))

	for _, bitrate := range []string{"abc", "12.5", "99999999999"} {
		rec = f.call(t, "admin", "stream", url.Values{"id": {songID}, "maxBitRate": {bitrate}})
		assert.Equal(t, 0, errorCode(t, decode(t, rec)), bitrate)
		assert.Contains(t, rec.Body.String(), "maxBitRate", bitrate)
	}

	rec = f.call(t, "admin", "stream", url.Values{"id": {"9999"}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "stream", url.Values{"id": {id(albumOffset + f.album.ID)}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))
}

func TestCoverArt(t *testing.T) {
	f := newFixture(t)

	for _, coverID := range []string{id(albumOffset + f.album.ID), id(f.songIDs[1])} {
		rec := f.call(t, "admin", "getCoverArt", url.Values{"id": {coverID}})
		require.Equal(t, http.StatusOK, rec.Code, coverID)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, "jpeg", rec.Body.String())
	}

	rec := f.call(t, "admin", "getCoverArt", url.Values{"id": {id(artistOffset + f.artistID)}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))
}

func TestStars(t *testing.T) {
	f := newFixture(t)
	albumFSID := id(albumOffset + f.album.ID)

	f.ok(t, "star", url.Values{"id": {id(f.songIDs[0])}})

	resp := f.ok(t, "getStarred2", nil)
	starred := object(t, resp["starred2"])
	songs := list(t, starred, "song")
	require.Len(t, songs, 1)
	assert.Equal(t, true, object(t, songs[0])["starred"])

	f.ok(t, "star", url.Values{"albumId": {albumFSID}})
	resp = f.ok(t, "getStarred", nil)
	assert.Len(t, list(t, object(t, resp["starred"]), "song"), 3)

	rec := f.call(t, "guest", "getStarred", nil)
	assert.NotContains(t, object(t, decode(t, rec)["starred"]), "song")

	f.ok(t, "unstar", url.Values{"artistId": {id(artistOffset + f.artistID)}})
	resp = f.ok(t, "getStarred", nil)
	assert.NotContains(t, object(t, resp["starred"]), "song")

	rec = f.call(t, "admin", "star", nil)
	assert.Equal(t, 10, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "star", url.Values{"albumId": {id(albumOffset + 9999)}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))
}

func TestScrobble(t *testing.T) {
	f := newFixture(t)
	songID := id(f.songIDs[2])

	f.ok(t, "scrobble", url.Values{"id": {songID}, "submission": {"false"}})
	f.ok(t, "scrobble", url.Values{"id": {songID}, "time": {"1600000000000"}})
	f.ok(t, "scrobble", url.Values{"id": {songID}})

	song, err := f.lib.Song(t.Context(), f.songIDs[2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), song.PlayCount)

	rec := f.call(t, "admin", "scrobble", url.Values{"id": {songID}, "time": {"yesterday"}})
	assert.Equal(t, 0, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "scrobble", url.Values{"id": {id(albumOffset + f.album.ID)}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "scrobble", nil)
	assert.Equal(t, 10, errorCode(t, decode(t, rec)))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	resp := f.ok(t, "search3", url.Values{"query": {`"park"`}})
	result := object(t, resp["searchResult3"])
	assert.Len(t, list(t, result, "album"), 1)
	assert.NotContains(t, result, "song")

	resp = f.ok(t, "search2", url.Values{"query": {"a"}, "songCount": {"2"}, "albumCount": {"0"}})
	result = object(t, resp["searchResult2"])
	assert.Len(t, list(t, result, "song"), 2)
	assert.NotContains(t, result, "album")
}

func TestPlaylists(t *testing.T) {
	f := newFixture(t)

	resp := f.ok(t, "createPlaylist", url.Values{
		"name":   {"mix"},
		"songId": {id(f.songIDs[0]), id(f.songIDs[1])},
	})
	playlist := object(t, resp["playlist"])
	assert.Equal(t, "mix", playlist["name"])
	assert.Equal(t, "admin", playlist["owner"])
	assert.Len(t, list(t, playlist, "entry"), 2)
	playlistID := playlist["id"].(string)

	rec := f.call(t, "guest", "getPlaylist", url.Values{"id": {playlistID}})
	assert.Equal(t, 50, errorCode(t, decode(t, rec)))

	f.ok(t, "updatePlaylist", url.Values{
		"playlistId":        {playlistID},
		"public":            {"true"},
		"comment":           {"for the road"},
		"songIndexToRemove": {"0"},
		"songIdToAdd":       {id(f.songIDs[2])},
	})

	rec = f.call(t, "guest", "getPlaylist", url.Values{"id": {playlistID}})
	require.Equal(t, http.StatusOK, rec.Code)
	playlist = object(t, decode(t, rec)["playlist"])
	assert.Equal(t, "for the road", playlist["comment"])
	entries := list(t, playlist, "entry")
	require.Len(t, entries, 2)
	assert.Equal(t, id(f.songIDs[1]), object(t, entries[0])["id"])
	assert.Equal(t, id(f.songIDs[2]), object(t, entries[1])["id"])

	rec = f.call(t, "guest", "getPlaylists", nil)
	assert.Len(t, list(t, object(t, decode(t, rec)["playlists"]), "playlist"), 1)

	rec = f.call(t, "guest", "deletePlaylist", url.Values{"id": {playlistID}})
	assert.Equal(t, 50, errorCode(t, decode(t, rec)))

	resp = f.ok(t, "createPlaylist", url.Values{
		"playlistId": {playlistID},
		"songId":     {id(f.songIDs[0])},
	})
	assert.Len(t, list(t, object(t, resp["playlist"]), "entry"), 1)

	rec = f.call(t, "admin", "createPlaylist", url.Values{"songId": {id(f.songIDs[0])}})
	assert.Equal(t, 10, errorCode(t, decode(t, rec)))

	rec = f.call(t, "admin", "createPlaylist", url.Values{"name": {"x"}, "songId": {"9999"}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))

	f.ok(t, "deletePlaylist", url.Values{"id": {playlistID}})
	rec = f.call(t, "admin", "getPlaylist", url.Values{"id": {playlistID}})
	assert.Equal(t, 70, errorCode(t, decode(t, rec)))
}

func TestUsersAndScans(t *testing.T) {
	f := newFixture(t)

	resp := f.ok(t, "getUser", url.Values{"username": {"guest"}})
	user := object(t, resp["user"])
	assert.Equal(t, "guest", user["username"])
	assert.Equal(t, false, user["adminRole"])
	assert.Len(t, list(t, user, "folder"), 1)

	rec := f.call(t, "guest", "getUser", url.Values{"username": {"admin"}})
	assert.Equal(t, 50, errorCode(t, decode(t, rec)))

	rec = f.call(t, "guest", "startScan", nil)
	assert.Equal(t, 50, errorCode(t, decode(t, rec)))

	triggered := f.rescan.TriggerCallCount()
	f.rescan.IsScanningReturns(true)
	resp = f.ok(t, "startScan", url.Values{"fullScan": {"true"}})
	require.Equal(t, triggered+1, f.rescan.TriggerCallCount())
	assert.True(t, f.rescan.TriggerArgsForCall(triggered).Full)

	status := object(t, resp["scanStatus"])
	assert.Equal(t, true, status["scanning"])
	assert.Equal(t, float64(3), status["count"])

	resp = f.ok(t, "getGenres", nil)
	assert.Contains(t, resp, "genres")

	resp = f.ok(t, "getArtistInfo2", url.Values{"id": {id(artistOffset + f.artistID)}})
	assert.Contains(t, resp, "artistInfo2")
}
