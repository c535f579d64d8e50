package webserver

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// gzipResponseWriter makes our webserver gzip output when possible.
type gzipResponseWriter struct {
	gz *gzip.Writer
	http.ResponseWriter
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	// The length of the compressed body is not known in advance.
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.Header().Get("Content-Type") == "" {
		// If no content type, apply sniffing algorithm to un-gzipped body.
		w.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return w.gz.Write(b)
}

// Flush sends the compressed data written so far to the client.
func (w *gzipResponseWriter) Flush() {
	if err := w.gz.Flush(); err != nil {
		log.Debug().Err(err).Msg("flushing gzip writer")
		return
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// GzipHandler gzips our output using a custom Writer. It will check if gzip
// is among the accepted encodings and gzip if so. Otherwise it will do
// nothing.
type GzipHandler struct {
	wrapped    http.Handler
	exceptions []string
}

// ServeHTTP satisfies the http.Handler interface.
func (gzh GzipHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodHead ||
		!strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		gzh.wrapped.ServeHTTP(writer, req)
		return
	}

	for _, path := range gzh.exceptions {
		if strings.HasPrefix(req.URL.Path, path) {
			gzh.wrapped.ServeHTTP(writer, req)
			return
		}
	}

	writer.Header().Set("Content-Encoding", "gzip")
	writer.Header().Add("Vary", "Accept-Encoding")

	gz := gzip.NewWriter(writer)
	defer func() {
		if err := gz.Close(); err != nil {
			log.Debug().Err(err).Str("path", req.URL.Path).Msg("closing gzip writer")
		}
	}()

	gzh.wrapped.ServeHTTP(&gzipResponseWriter{gz: gz, ResponseWriter: writer}, req)
}

// NewGzipHandler returns GzipHandler which will gzip anything written in the
// supplied handler. Requests for paths starting with any of `exceptions`
// are never compressed.
func NewGzipHandler(handler http.Handler, exceptions []string) http.Handler {
	return &GzipHandler{
		wrapped:    handler,
		exceptions: exceptions,
	}
}
