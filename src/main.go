// Package src wires the packages of sonicd into a running server.
//
// It is in package src because it is imported from the project's root
// folder.
package src

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/config"
	"github.com/sonicd/sonicd/src/daemon"
	"github.com/sonicd/sonicd/src/delivery"
	"github.com/sonicd/sonicd/src/library"
	"github.com/sonicd/sonicd/src/logs"
	"github.com/sonicd/sonicd/src/metrics"
	"github.com/sonicd/sonicd/src/scaler"
	"github.com/sonicd/sonicd/src/scanner"
	"github.com/sonicd/sonicd/src/version"
	"github.com/sonicd/sonicd/src/webserver"
)

// shutdownTimeout is how long active requests have to finish on stop.
const shutdownTimeout = 10 * time.Second

// Main is the only thing run in the project's root main.go file. For all
// intent and purposes this is the main function. `sqls` holds the database
// migrations.
func Main(sqls fs.FS) {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if showVersion, _ := flags.GetBool("version"); showVersion {
		version.Print(os.Stdout)
		return
	}

	if err := run(flags, sqls); err != nil {
		log.Error().Err(err).Msg("sonicd stopped")
		fmt.Fprintf(os.Stderr, "sonicd: %s\n", err)
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet, sqls fs.FS) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	logFile, err := logs.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()

	if err := os.MkdirAll(cfg.UserPath, 0o750); err != nil {
		return fmt.Errorf("creating user path: %w", err)
	}

	ctx, stop := daemon.StopContext(context.Background())
	defer stop()

	store, err := catalog.Open(ctx, cfg.DatabasePath(), sqls)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("closing the catalog")
		}
	}()

	osFs := afero.NewOsFs()

	scan := scanner.New(store, osFs, scanner.Config{
		BatchSize:  cfg.Scanner.BatchSize,
		Prune:      cfg.Scanner.Prune,
		Watch:      cfg.Scanner.Watch,
		WatchDelay: cfg.Scanner.WatchDelay,
	})
	scan.OnComplete(recordScanMetrics)

	// Configured libraries are registered before the first scan so that it
	// covers them.
	if err := registerConfigured(ctx, library.New(store, nil), cfg); err != nil {
		return err
	}

	scan.Start(ctx)
	defer func() {
		if err := scan.Close(); err != nil {
			log.Error().Err(err).Msg("stopping library watcher")
		}
		scan.Wait()
	}()

	lib := library.New(store, scan)

	covers := scaler.New(ctx, cfg.Scaler.Workers)
	defer covers.Cancel()

	pipeline := delivery.New(lib, osFs, covers, delivery.Config{
		MaxBitrate:    cfg.Transcode.MaxBitrate,
		SkipTranscode: cfg.Transcode.Skip,
		TargetFormat:  cfg.Transcode.Format,
		EncoderPath:   cfg.Transcode.Encoder,
		GracePeriod:   cfg.Transcode.GracePeriod,
		ChunkSize:     cfg.Transcode.ChunkSize,
	})

	srv := webserver.NewServer(cfg, lib, pipeline)
	if err := srv.Serve(); err != nil {
		return err
	}

	log.Info().Str("version", version.Version).Msg("sonicd started")
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("stopping webserver")
	}
	srv.Wait()

	return nil
}

// registerConfigured adds the libraries and users from the configuration
// which are not in the catalog yet.
func registerConfigured(ctx context.Context, lib *library.Library, cfg config.Config) error {
	for _, root := range cfg.Libraries {
		added, err := lib.AddRoot(ctx, root.Name, root.Path)
		if errors.Is(err, library.ErrDuplicateRoot) {
			continue
		} else if err != nil {
			return fmt.Errorf("adding library %s: %w", root.Path, err)
		}
		log.Info().Str("name", added.Name).Str("path", added.Path).Msg("library added")
	}

	for _, user := range cfg.Users {
		_, err := lib.EnsureUser(ctx, user.Username, user.Password, user.Admin, user.Email)
		if err != nil {
			return fmt.Errorf("adding user %s: %w", user.Username, err)
		}
	}

	return nil
}

func recordScanMetrics(stats scanner.Stats) {
	metrics.ScansTotal.Inc()
	metrics.ScanLastDuration.Set(stats.Finished.Sub(stats.Started).Seconds())
	metrics.ScanLastTimestamp.Set(float64(stats.Finished.Unix()))
	metrics.ScanErrors.Add(float64(stats.Errors))

	songs := metrics.ScanSongs
	songs.WithLabelValues("new").Add(float64(stats.NewSongs))
	songs.WithLabelValues("modified").Add(float64(stats.Modified))
	songs.WithLabelValues("tagged").Add(float64(stats.Tagged))
	songs.WithLabelValues("unreadable").Add(float64(stats.Unreadable))
	songs.WithLabelValues("pruned").Add(float64(stats.Pruned.Songs))
}
