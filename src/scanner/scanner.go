// Package scanner keeps the catalog consistent with the library directories
// on disk and reads the tags of the audio files found in them.
//
// A scan pass has two phases for every library root. First the directory
// tree is reconciled with the catalog: new artists, albums and songs are
// created, resized songs are marked for re-reading and album covers are
// bound. Then the tags of every song which was never read are extracted.
package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/sonicd/sonicd/src/catalog"
)

// DefaultBatchSize is the number of processed songs after which the pending
// writes are committed.
const DefaultBatchSize = 50

// Config configures a Scanner.
type Config struct {
	// BatchSize is the number of songs written per transaction.
	BatchSize int

	// Prune enables removing catalog entries for files and directories which
	// are no longer on disk. When false scans only ever add to the catalog.
	Prune bool

	// Watch starts a file system watcher which triggers a rescan on changes.
	Watch bool

	// WatchDelay is how long the watcher waits for more changes before it
	// triggers a rescan.
	WatchDelay time.Duration

	// Readers overrides the tag readers. The zero value uses DefaultReaders.
	Readers *Readers
}

// ScanOptions modify a single scan pass.
type ScanOptions struct {
	// Full makes the scan re-read the tags of all songs, not only of those
	// which were never read.
	Full bool
}

// Stats describes the work done by a scan pass.
type Stats struct {
	Started  time.Time
	Finished time.Time

	Libraries  int
	Dirs       int
	NewSongs   int
	Modified   int
	Tagged     int
	Unreadable int
	Errors     int

	Pruned catalog.PruneStats
}

func (s *Stats) add(other Stats) {
	s.Libraries += other.Libraries
	s.Dirs += other.Dirs
	s.NewSongs += other.NewSongs
	s.Modified += other.Modified
	s.Tagged += other.Tagged
	s.Unreadable += other.Unreadable
	s.Errors += other.Errors
	s.Pruned.Songs += other.Pruned.Songs
	s.Pruned.Albums += other.Pruned.Albums
	s.Pruned.Artists += other.Pruned.Artists
}

// Scanner scans all libraries registered in the catalog. At most one scan
// runs at a time.
type Scanner struct {
	store   *catalog.Store
	fs      afero.Fs
	cfg     Config
	readers Readers

	scanning atomic.Bool
	running  sync.WaitGroup

	mu         sync.Mutex
	ctx        context.Context
	lastStats  Stats
	onComplete []func(Stats)
	watcher    *watcher
}

// New returns a scanner which reads the libraries of `store` through `fs`.
func New(store *catalog.Store, fs afero.Fs, cfg Config) *Scanner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.WatchDelay <= 0 {
		cfg.WatchDelay = 10 * time.Second
	}

	readers := DefaultReaders(fs)
	if cfg.Readers != nil {
		readers = *cfg.Readers
	}

	return &Scanner{
		store:   store,
		fs:      fs,
		cfg:     cfg,
		readers: readers,
		ctx:     context.Background(),
	}
}

// OnComplete registers a function which is called with the stats of every
// finished scan pass.
func (s *Scanner) OnComplete(fn func(Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onComplete = append(s.onComplete, fn)
}

// IsScanning reports whether a scan pass is running at the moment.
func (s *Scanner) IsScanning() bool {
	return s.scanning.Load()
}

// LastStats returns the stats of the last finished scan pass.
func (s *Scanner) LastStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastStats
}

// Rescan runs a scan pass over all registered libraries and returns when it
// is done. Returns ErrAlreadyScanning if another pass is in progress.
//
// Errors for single files and directories are logged and counted in the
// stats. They never stop the pass.
func (s *Scanner) Rescan(ctx context.Context, opts ScanOptions) (Stats, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return Stats{}, ErrAlreadyScanning
	}
	defer s.scanning.Store(false)

	stats := Stats{Started: time.Now()}
	log.Info().Bool("full", opts.Full).Msg("library scan started")

	libs, err := s.store.Libraries(ctx)
	if err != nil {
		return stats, err
	}

	var statsLock sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, lib := range libs {
		g.Go(func() error {
			libStats, err := s.scanLibrary(gctx, lib, opts)

			statsLock.Lock()
			stats.add(libStats)
			statsLock.Unlock()

			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("library", lib.Path).Msg("library scan failed")
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	stats.Finished = time.Now()

	log.Info().
		Int("libraries", stats.Libraries).
		Int("new_songs", stats.NewSongs).
		Int("modified", stats.Modified).
		Int("tagged", stats.Tagged).
		Int("unreadable", stats.Unreadable).
		Int("errors", stats.Errors).
		Dur("took", stats.Finished.Sub(stats.Started)).
		Msg("library scan finished")

	s.mu.Lock()
	s.lastStats = stats
	hooks := s.onComplete
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(stats)
	}

	return stats, err
}

// scanLibrary reconciles the tree of `lib` and then reads the tags of the
// songs which need it. The first phase is fully committed before the second
// one starts.
func (s *Scanner) scanLibrary(ctx context.Context, lib catalog.Library, opts ScanOptions) (Stats, error) {
	pass := &libraryPass{
		scanner: s,
		lib:     lib,
	}
	pass.stats.Libraries = 1

	if err := pass.reconcileRoot(ctx); err != nil {
		return pass.stats, err
	}

	if err := pass.flush(ctx); err != nil {
		return pass.stats, err
	}

	if s.cfg.Prune && len(pass.removed) > 0 {
		pruned, err := s.store.Prune(ctx, pass.removed)
		pass.stats.Pruned = pruned
		if err != nil {
			log.Error().Err(err).Str("library", lib.Path).Msg("pruning removed entries")
			pass.stats.Errors++
		}
	}

	if err := pass.extractMetadata(ctx, opts.Full); err != nil {
		return pass.stats, err
	}

	return pass.stats, nil
}

// Start triggers the first background scan and starts the watcher when it
// is enabled. It does not wait for the scan. `ctx` is used for all scans
// triggered later.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.cfg.Watch {
		w, err := newWatcher(s.cfg.WatchDelay, func() {
			s.Trigger(ScanOptions{})
		})
		if err != nil {
			log.Error().Err(err).Msg("starting library watcher failed")
		} else {
			s.mu.Lock()
			s.watcher = w
			s.mu.Unlock()
		}
	}

	s.Trigger(ScanOptions{})
}

// Trigger starts a scan pass in the background. Returns false without
// doing anything when a pass is already running.
func (s *Scanner) Trigger(opts ScanOptions) bool {
	if s.IsScanning() {
		log.Info().Msg("library scan already running, not starting another")
		return false
	}

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.running.Add(1)
	go func() {
		defer s.running.Done()

		_, err := s.Rescan(ctx, opts)
		if errors.Is(err, ErrAlreadyScanning) {
			log.Info().Msg("library scan already running, not starting another")
		} else if err != nil {
			log.Error().Err(err).Msg("library scan failed")
		}
	}()

	return true
}

// Wait blocks until all background scans have finished.
func (s *Scanner) Wait() {
	s.running.Wait()
}

// Close stops the watcher. Running scans are stopped by cancelling the
// context given to Start.
func (s *Scanner) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

func (s *Scanner) watch(dir string) {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()

	if w != nil {
		w.Watch(dir)
	}
}
