package shaders

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"rtviewer/internal/logging"
)

// Watcher reports stage sources that changed in an override directory.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	changes  chan string
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	isClosed bool
}

// NewWatcher starts watching dir. Only files named after a known stage are
// reported; editors that replace files through a rename are handled by the
// resulting Create event.
func NewWatcher(dir string) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(dir); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w := &Watcher{
		fsnotify: fsWatch,
		changes:  make(chan string, len(embedded)*4),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Changes delivers stage names, e.g. CompositeFragment.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Drain returns every pending change without blocking, each name once.
func (w *Watcher) Drain() []string {
	var names []string
	seen := make(map[string]bool)
	for {
		select {
		case name, ok := <-w.changes:
			if !ok {
				return names
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		default:
			return names
		}
	}
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.isClosed {
		w.mu.Unlock()
		return errors.New("shader watcher already closed")
	}
	w.isClosed = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return nil
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(e.Name)
			if _, known := embedded[name]; !known {
				continue
			}
			select {
			case w.changes <- name:
			default:
				// change queue full
				logging.Debug("shader change for %s dropped", name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			logging.Error("shader watcher: %v", err)

		case <-w.done:
			w.fsnotify.Close()
			close(w.changes)
			return
		}
	}
}
