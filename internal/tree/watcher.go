package tree

import (
	"sync"
	"time"

	"copypath/internal/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounce = 150 * time.Millisecond

// Watcher reports that something changed under the watched folders.
// Bursts of events collapse into a single notification.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger

	mu      sync.Mutex
	watched map[string]bool
}

// NewWatcher starts watching dirs (non-recursively).
func NewWatcher(dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fw,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  logging.GetLogger("watcher"),
		watched: make(map[string]bool),
	}
	if err := w.Sync(dirs); err != nil {
		_ = fw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

// Sync makes the watched set equal to dirs.
func (w *Watcher) Sync(dirs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[d] = true
		if w.watched[d] {
			continue
		}
		if err := w.fs.Add(d); err != nil {
			return err
		}
		w.watched[d] = true
	}
	for d := range w.watched {
		if !want[d] {
			_ = w.fs.Remove(d)
			delete(w.watched, d)
		}
	}
	return nil
}

// Events fires after a burst of filesystem changes settles.
func (w *Watcher) Events() <-chan struct{} { return w.events }

// Stop releases the underlying watcher.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		_ = w.fs.Close()
	})
}

func (w *Watcher) loop() {
	var timer *time.Timer
	fire := func() {
		select {
		case w.events <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, fire)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}
