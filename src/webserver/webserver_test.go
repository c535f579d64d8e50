package webserver_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/config"
	"github.com/sonicd/sonicd/src/delivery"
	"github.com/sonicd/sonicd/src/library"
	"github.com/sonicd/sonicd/src/webserver"
)

func newLibrary(t *testing.T) (*library.Library, *delivery.Pipeline) {
	t.Helper()
	ctx := t.Context()

	store, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "sonicd.db"), os.DirFS("../../sqls"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	lib := library.New(store, nil)
	_, err = lib.EnsureUser(ctx, "admin", "secret", true, "")
	require.NoError(t, err)

	return lib, delivery.New(lib, afero.NewMemMapFs(), nil, delivery.DefaultConfig())
}

func testConfig() config.Config {
	return config.Config{
		Listen:         "127.0.0.1:0",
		Gzip:           true,
		Metrics:        true,
		ReadTimeout:    5,
		MaxHeadersSize: 1 << 20,
	}
}

func TestServerLifecycle(t *testing.T) {
	lib, pipeline := newLibrary(t)
	srv := webserver.NewServer(testConfig(), lib, pipeline)

	assert.Nil(t, srv.Addr())
	require.NoError(t, srv.Serve())
	assert.Error(t, srv.Serve(), "second Serve must fail")

	base := "http://" + srv.Addr().String()

	resp, err := http.Get(base + "/rest/ping?u=admin&p=secret&f=json")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status": "ok"`)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sonicd_http_requests_total")

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeFailsOnBusyAddress(t *testing.T) {
	lsn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lsn.Close()

	lib, pipeline := newLibrary(t)
	cfg := testConfig()
	cfg.Listen = lsn.Addr().String()

	srv := webserver.NewServer(cfg, lib, pipeline)
	assert.Error(t, srv.Serve())

	// Wait must not block on a server which never started.
	srv.Wait()
	assert.NoError(t, srv.Stop(t.Context()))
}

func TestMissingCertificates(t *testing.T) {
	lib, pipeline := newLibrary(t)
	cfg := testConfig()
	cfg.SSL = true
	cfg.SSLCertificate = config.Cert{
		Crt: filepath.Join(t.TempDir(), "missing.crt"),
		Key: filepath.Join(t.TempDir(), "missing.key"),
	}

	srv := webserver.NewServer(cfg, lib, pipeline)
	assert.Error(t, srv.Serve())
}

func TestMetricsCanBeDisabled(t *testing.T) {
	lib, pipeline := newLibrary(t)
	cfg := testConfig()
	cfg.Metrics = false

	handler := webserver.NewHandler(cfg, lib, pipeline)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIResponsesAreCompressed(t *testing.T) {
	lib, pipeline := newLibrary(t)
	handler := webserver.NewHandler(testConfig(), lib, pipeline)

	req := httptest.NewRequest(http.MethodGet, "/rest/ping?u=admin&p=secret", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(body), `status="ok"`)
}

func TestGzipHandler(t *testing.T) {
	payload := strings.Repeat("sonicd ", 100)
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, payload[:10])
		w.(http.Flusher).Flush()
		_, _ = io.WriteString(w, payload[10:])
	})
	handler := webserver.NewGzipHandler(wrapped, []string{"/rest/stream"})

	tests := []struct {
		desc       string
		path       string
		encoding   string
		compressed bool
	}{
		{
			desc:       "compressed",
			path:       "/rest/ping",
			encoding:   "gzip",
			compressed: true,
		},
		{
			desc:     "not accepted by the client",
			path:     "/rest/ping",
			encoding: "",
		},
		{
			desc:     "exception",
			path:     "/rest/stream.view",
			encoding: "gzip",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.path, nil)
			if test.encoding != "" {
				req.Header.Set("Accept-Encoding", test.encoding)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.True(t, rec.Flushed)

			if !test.compressed {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				assert.Equal(t, payload, rec.Body.String())
				return
			}

			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
			assert.NotEmpty(t, rec.Header().Get("Content-Type"))

			gz, err := gzip.NewReader(rec.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(gz)
			require.NoError(t, err)
			assert.Equal(t, payload, string(body))
		})
	}
}

// TestAccessHandler makes sure that the access handler works and also that
// sensitive strings are not stored into the access log. These are passwords
// and tokens.
func TestAccessHandler(t *testing.T) {
	const (
		pass    = "hidden-subsonic-password"
		ssToken = "hidden-subsonic-token"
		salt    = "hidden-subsonic-salt"
		token   = "hidden-token"
	)

	buffer := &bytes.Buffer{}
	previous := log.Logger
	log.Logger = zerolog.New(buffer)
	defer func() {
		log.Logger = previous
	}()

	var called int
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called++
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "short and stout")
	})

	req := httptest.NewRequest(
		http.MethodGet,
		"/rest/ping.view?p="+pass+"&t="+ssToken+"&s="+salt+"&token="+token+"&unrelated=5",
		nil,
	)
	req.Header.Set("User-Agent", "http-unit-test")

	rec := httptest.NewRecorder()
	webserver.NewAccessHandler(wrapped).ServeHTTP(rec, req)

	assert.Equal(t, 1, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	logged := buffer.String()
	require.NotEmpty(t, logged)

	for _, secret := range []string{pass, ssToken, salt, token} {
		assert.NotContains(t, logged, secret)
	}
	assert.Contains(t, logged, "unrelated=5")
	assert.Contains(t, logged, "REDACTED")
	assert.Contains(t, logged, `"status":418`)
	assert.Contains(t, logged, `"bytes":15`)
	assert.Contains(t, logged, "http-unit-test")
}
