// Package webserver contains the HTTP server which serves the subsonic API
// and the prometheus metrics.
package webserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/config"
	"github.com/sonicd/sonicd/src/webserver/subsonic"
)

// gzipExceptions are the paths which are never compressed. Audio and images
// are compressed already and streams must reach clients as they are sent.
var gzipExceptions = []string{
	subsonic.Prefix + "/stream",
	subsonic.Prefix + "/download",
	subsonic.Prefix + "/getCoverArt",
	"/metrics",
}

// Server represents our webserver. It will be controlled from here.
type Server struct {
	cfg     config.Config
	handler http.Handler

	// wg is used in Server.Wait to sync with server's end.
	wg sync.WaitGroup

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
}

// NewServer returns a new Server using the supplied configuration cfg. The
// returned server is ready and calling its Serve method will start it.
func NewServer(cfg config.Config, lib subsonic.Library, pipeline subsonic.Delivery) *Server {
	return &Server{
		cfg:     cfg,
		handler: NewHandler(cfg, lib, pipeline),
	}
}

// NewHandler returns the handler of all HTTP endpoints with the
// middlewares selected by `cfg` around it.
func NewHandler(cfg config.Config, lib subsonic.Library, pipeline subsonic.Delivery) http.Handler {
	router := mux.NewRouter()
	router.PathPrefix(subsonic.Prefix + "/").Handler(subsonic.NewHandler(lib, pipeline))

	if cfg.Metrics {
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = router

	if cfg.Gzip {
		handler = NewGzipHandler(handler, gzipExceptions)
	}

	return NewAccessHandler(handler)
}

// Serve binds the listen address and starts serving requests in the
// background. It returns an error when the address could not be bound or
// the server was started already.
func (srv *Server) Serve() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.httpSrv != nil {
		return errors.New("server already started")
	}

	readTimeout, writeTimeout := srv.cfg.Timeouts()
	httpSrv := &http.Server{
		Addr:              srv.cfg.Listen,
		Handler:           srv.handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		MaxHeaderBytes:    srv.cfg.MaxHeadersSize,
	}

	lsn, err := srv.listen()
	if err != nil {
		return err
	}

	srv.httpSrv = httpSrv
	srv.listener = lsn

	log.Info().
		Str("address", lsn.Addr().String()).
		Bool("ssl", srv.cfg.SSL).
		Msg("webserver started")

	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()

		err := httpSrv.Serve(lsn)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("webserver stopped")
			return
		}
		log.Info().Msg("webserver stopped")
	}()

	return nil
}

// listen is similar to net.http.Server.ListenAndServe only this version
// keeps the listener so that its address is known before serving.
func (srv *Server) listen() (net.Listener, error) {
	addr := srv.cfg.Listen
	if !srv.cfg.SSL {
		lsn, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		return lsn, nil
	}

	cert, err := tls.LoadX509KeyPair(srv.cfg.SSLCertificate.Crt, srv.cfg.SSLCertificate.Key)
	if err != nil {
		return nil, fmt.Errorf("loading certificate: %w", err)
	}

	lsn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	return tls.NewListener(lsn, &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// Addr returns the address the server listens on or nil before Serve.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// Stop stops accepting connections and waits for the active ones to finish
// until ctx is done.
func (srv *Server) Stop(ctx context.Context) error {
	srv.mu.Lock()
	httpSrv := srv.httpSrv
	srv.mu.Unlock()

	if httpSrv == nil {
		return nil
	}
	return httpSrv.Shutdown(ctx)
}

// Wait syncs whoever called this with the server's stop.
func (srv *Server) Wait() {
	srv.wg.Wait()
}
