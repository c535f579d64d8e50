package scanner

import (
	"sync"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/rs/zerolog/log"
)

// watcher watches the directories seen by scans and calls its trigger
// function once no file system event has arrived for `delay`.
type watcher struct {
	fsw     *fsnotify.Watcher
	delay   time.Duration
	trigger func()

	mu      sync.Mutex
	watched map[string]struct{}
	timer   *time.Timer
	closed  chan struct{}
}

func newWatcher(delay time.Duration, trigger func()) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:     fsw,
		delay:   delay,
		trigger: trigger,
		watched: make(map[string]struct{}),
		closed:  make(chan struct{}),
	}
	go w.eventRoutine()

	return w, nil
}

// Watch starts watching `dir`. Watching the same directory again does
// nothing.
func (w *watcher) Watch(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[dir]; ok {
		return
	}

	if err := w.fsw.Watch(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("cannot watch directory")
		return
	}
	w.watched[dir] = struct{}{}
}

// Close stops the watching and any pending trigger.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.closed)
	return w.fsw.Close()
}

func (w *watcher) eventRoutine() {
	defer log.Debug().Msg("library watcher event receiver stopped")

	for {
		select {
		case ev := <-w.fsw.Event:
			if ev == nil {
				return
			}
			w.handleEvent(ev)
		case err := <-w.fsw.Error:
			if err == nil {
				return
			}
			log.Warn().Err(err).Msg("library watcher error")
		case <-w.closed:
			return
		}
	}
}

func (w *watcher) handleEvent(ev *fsnotify.FileEvent) {
	if ev.IsAttrib() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ev.IsDelete() || ev.IsRename() {
		if _, ok := w.watched[ev.Name]; ok {
			_ = w.fsw.RemoveWatch(ev.Name)
			delete(w.watched, ev.Name)
		}
	}

	log.Debug().Str("path", ev.Name).Msg("library change detected")

	if w.timer != nil {
		w.timer.Reset(w.delay)
		return
	}
	w.timer = time.AfterFunc(w.delay, w.fire)
}

func (w *watcher) fire() {
	select {
	case <-w.closed:
		return
	default:
	}

	w.trigger()
}
