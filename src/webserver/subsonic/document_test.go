package subsonic

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() *Element {
	resp := responseOk()
	folders := resp.Child("musicFolders")
	folders.Child("musicFolder").Set("id", 1).Set("name", "music")

	user := resp.Child("user").Set("username", "alex")
	user.TextChild("folder", 1)
	return resp
}

func TestRenderXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderXML(&buf, testDocument(), ""))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `xmlns="http://subsonic.org/restapi"`)
	assert.Contains(t, out, `<musicFolder id="1" name="music"></musicFolder>`)
	assert.Contains(t, out, `<folder>1</folder>`)
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, testDocument(), ""))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	resp := decoded["subsonic-response"]
	require.NotNil(t, resp)
	assert.NotContains(t, resp, "xmlns")
	assert.Equal(t, "ok", resp["status"])

	folders := resp["musicFolders"].(map[string]any)
	list, ok := folders["musicFolder"].([]any)
	require.True(t, ok, "single music folder must still be a list")
	assert.Len(t, list, 1)

	user := resp["user"].(map[string]any)
	assert.Equal(t, []any{float64(1)}, user["folder"])
}

func TestRenderJSONSingleChild(t *testing.T) {
	doc := responseOk()
	doc.Child("scanStatus").Set("scanning", false).Set("count", int64(3))

	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, doc, ""))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	status, ok := decoded["subsonic-response"]["scanStatus"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, status["scanning"])
	assert.Equal(t, float64(3), status["count"])
}

func TestRenderTextWithAttributes(t *testing.T) {
	genre := NewElement("genre").Set("songCount", 2)
	genre.Text = "Rock"

	assert.Equal(t, map[string]any{
		"songCount": 2,
		"value":     "Rock",
	}, jsonValue(genre))
}

func TestSetSkipsEmpty(t *testing.T) {
	el := NewElement("child").
		Set("title", "").
		Set("created", time.Time{}).
		Set("playCount", 0).
		Set("changed", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))

	assert.Nil(t, el.Attr("title"))
	assert.Nil(t, el.Attr("created"))
	assert.Equal(t, 0, el.Attr("playCount"))
	assert.Equal(t, "2020-01-02T03:04:05.000Z", el.Attr("changed"))
}

func TestEncodeResponseFormats(t *testing.T) {
	tests := []struct {
		desc        string
		query       string
		status      int
		contentType string
		prefix      string
	}{
		{
			desc:        "default is xml",
			query:       "",
			status:      http.StatusOK,
			contentType: "text/xml; charset=utf-8",
			prefix:      "<?xml",
		},
		{
			desc:        "json",
			query:       "f=json",
			status:      http.StatusOK,
			contentType: "application/json; charset=utf-8",
			prefix:      "{",
		},
		{
			desc:        "jsonp",
			query:       "f=jsonp&callback=cb_1",
			status:      http.StatusOK,
			contentType: "text/javascript; charset=utf-8",
			prefix:      "cb_1({",
		},
		{
			desc:        "jsonp without callback",
			query:       "f=jsonp",
			status:      http.StatusOK,
			contentType: "text/xml; charset=utf-8",
			prefix:      "<?xml",
		},
		{
			desc:        "jsonp with bad callback",
			query:       "f=jsonp&callback=alert(1)",
			status:      http.StatusBadRequest,
			contentType: "text/xml; charset=utf-8",
			prefix:      "<?xml",
		},
		{
			desc:        "unknown format",
			query:       "f=yaml",
			status:      http.StatusOK,
			contentType: "text/xml; charset=utf-8",
			prefix:      "<?xml",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rest/ping?"+test.query, nil)
			require.NoError(t, req.ParseForm())
			rec := httptest.NewRecorder()

			encodeResponse(rec, req, responseOk())

			assert.Equal(t, test.status, rec.Code)
			assert.Equal(t, test.contentType, rec.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), test.prefix), rec.Body.String())
		})
	}
}

func TestBadCallbackIsNotEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rest/ping?f=jsonp&callback=alert(1)", nil)
	require.NoError(t, req.ParseForm())
	rec := httptest.NewRecorder()

	encodeResponse(rec, req, responseOk())

	assert.NotContains(t, rec.Body.String(), "alert(1)")
	assert.Contains(t, rec.Body.String(), `status="failed"`)
}

func TestLetterGroup(t *testing.T) {
	tests := map[string]string{
		"Blur":         "B",
		"blur":         "B",
		"  Oasis":      "O",
		"Édith Piaf":   "E",
		"Ángel":        "A",
		"Xiu Xiu":      "X-Z",
		"yeah yeah":    "X-Z",
		"Zappa":        "X-Z",
		"2Pac":         "#",
		"!!!":          "#",
		"":             "#",
		"Мумий Тролль": "#",
	}

	for name, expected := range tests {
		assert.Equal(t, expected, letterGroup(name), "group of %q", name)
	}
}

func TestIDSpaces(t *testing.T) {
	assert.True(t, isTrackID(trackFSID(42)))
	assert.False(t, isArtistID(trackFSID(42)))

	artist := artistFSID(42)
	assert.True(t, isArtistID(artist))
	assert.False(t, isTrackID(artist))
	assert.False(t, isAlbumID(artist))
	assert.Equal(t, int64(42), toArtistDBID(artist))

	album := albumFSID(42)
	assert.True(t, isAlbumID(album))
	assert.False(t, isArtistID(album))
	assert.Equal(t, int64(42), toAlbumDBID(album))

	_, err := parseID("")
	assert.ErrorIs(t, err, errMissingParameter)

	_, err = parseID("-3")
	assert.Error(t, err)

	id, err := parseID("2000000005")
	require.NoError(t, err)
	assert.Equal(t, int64(2000000005), id)
}

func TestPageArgs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?size=1000&offset=-4", nil)
	require.NoError(t, req.ParseForm())

	count, offset := pageArgs(req, "size", "offset", 10, 500)
	assert.Equal(t, 500, count)
	assert.Equal(t, 0, offset)

	count, offset = pageArgs(req, "missing", "other", 10, 500)
	assert.Equal(t, 10, count)
	assert.Equal(t, 0, offset)
}
