// Package catalog is the persistent relational storage of sonicd. It keeps the
// registered libraries, the directory tree cache, artists, albums, songs, genres,
// covers, users, stars and playlists in a single SQLite database.
//
// All access to the database goes through a single database worker goroutine.
// Every logical operation is sent to it as one short DatabaseExecutable so that
// no transaction is ever kept open while the caller does file or process I/O.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

// DatabaseExecutable is the type used for passing "work unit" to the database
// worker. Every function which wants to do something with the database creates
// one and sends it to the worker for execution.
type DatabaseExecutable func(db *sqlx.DB) error

// Store is the catalog store. It is safe for concurrent use.
type Store struct {
	path     string
	db       *sqlx.DB
	sqlFiles fs.FS

	ctx    context.Context
	cancel context.CancelFunc

	dbExecutes chan DatabaseExecutable
	workerDone chan struct{}
}

// Open opens or creates the SQLite database at `path`, applies all pending
// migrations found in `sqlFiles` and starts the database worker. Migrations
// are applied before Open returns so nothing may use the store before the
// schema is current.
func Open(ctx context.Context, path string, sqlFiles fs.FS) (*Store, error) {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", path, err)
	}

	store := &Store{
		path:       path,
		db:         db,
		sqlFiles:   sqlFiles,
		dbExecutes: make(chan DatabaseExecutable),
		workerDone: make(chan struct{}),
	}

	if err := store.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.ctx, store.cancel = context.WithCancel(ctx)
	go store.databaseWorker()

	return store, nil
}

// Close stops the database worker and closes the database. Jobs sent after
// Close return the context error.
func (s *Store) Close() error {
	s.cancel()
	<-s.workerDone
	return s.db.Close()
}

// Path returns the file path of the database.
func (s *Store) Path() string {
	return s.path
}

// databaseWorker reads from the executes channel and runs every job it
// receives against the database, one at a time.
func (s *Store) databaseWorker() {
	defer close(s.workerDone)
	runtime.LockOSThread()

	for {
		select {
		case executable := <-s.dbExecutes:
			if err := executable(s.db); err != nil {
				log.Error().Err(err).Msg("error from db executable")
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// ExecuteDBJob sends `executable` to the database worker without waiting for
// it. The only possible error is the one from the store's closed context.
func (s *Store) ExecuteDBJob(executable DatabaseExecutable) error {
	select {
	case s.dbExecutes <- executable:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// ExecuteDBJobAndWait executes the `executable`, waits for it to finish. Then
// returns its error.
//
// Never call it from inside another executable. The worker runs one job at a
// time and would wait for itself forever.
func (s *Store) ExecuteDBJobAndWait(executable DatabaseExecutable) error {
	var executableErr error
	done := make(chan struct{}, 1)

	work := func(db *sqlx.DB) error {
		defer func() {
			done <- struct{}{}
		}()
		executableErr = executable(db)
		return nil
	}

	if err := s.ExecuteDBJob(work); err != nil {
		return err
	}

	<-done
	return executableErr
}

// inTx runs `fn` in a transaction. The transaction is committed when `fn`
// returns nil and rolled back otherwise.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (workErr error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer func() {
		if workErr != nil {
			_ = tx.Rollback()
			return
		}

		if err := tx.Commit(); err != nil {
			workErr = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(tx)
}
