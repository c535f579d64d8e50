package webserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/metrics"
	"github.com/sonicd/sonicd/src/webserver/subsonic"
)

// AccessHandler is an http.Handler which wraps around another handler, logs
// every request and records the HTTP metrics.
type AccessHandler struct {
	wrapped http.Handler
}

// NewAccessHandler returns an AccessHandler which will call `h` and then log
// information about the http request and response.
func NewAccessHandler(h http.Handler) *AccessHandler {
	return &AccessHandler{
		wrapped: h,
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *AccessHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	started := time.Now()
	ww := newLoggedResponseWriter(w)
	h.wrapped.ServeHTTP(ww, req)
	elapsed := time.Since(started)

	endpoint := endpointLabel(req.URL.Path, ww.code)
	metrics.HTTPRequestsTotal.WithLabelValues(req.Method, endpoint, strconv.Itoa(ww.code)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(req.Method, endpoint).Observe(elapsed.Seconds())

	log.Info().
		Str("method", req.Method).
		Str("url", redactedURL(req)).
		Int("status", ww.code).
		Int64("bytes", ww.written).
		Dur("duration", elapsed).
		Str("user_agent", req.Header.Get("User-Agent")).
		Str("remote_addr", req.RemoteAddr).
		Msg("request")
}

// redactedQueryArgs are never written in the logs.
var redactedQueryArgs = []string{"p", "t", "s", "token"}

const queryRedactedValue = "REDACTED"

func redactedURL(req *http.Request) string {
	reqURL := *req.URL
	query := reqURL.Query()
	for _, arg := range redactedQueryArgs {
		if query.Get(arg) != "" {
			query.Set(arg, queryRedactedValue)
		}
	}
	reqURL.RawQuery = query.Encode()
	return reqURL.String()
}

// endpointLabel returns the metrics label of a request path. Unknown paths
// share one label so that clients could not grow the number of series.
func endpointLabel(path string, status int) string {
	if status == http.StatusNotFound {
		return "unknown"
	}

	if name, ok := strings.CutPrefix(path, subsonic.Prefix+"/"); ok {
		return strings.TrimSuffix(name, ".view")
	}

	if path == "/metrics" {
		return "metrics"
	}

	return "unknown"
}

type loggedResponseWriter struct {
	http.ResponseWriter
	code        int
	written     int64
	wroteHeader bool
}

func newLoggedResponseWriter(w http.ResponseWriter) *loggedResponseWriter {
	return &loggedResponseWriter{
		ResponseWriter: w,
		code:           http.StatusOK,
	}
}

func (w *loggedResponseWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.code = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggedResponseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *loggedResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *loggedResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
