package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/linprune/internal/desktop"
	"github.com/blackwell-systems/linprune/internal/log"
	"github.com/blackwell-systems/linprune/internal/scanner"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before rescanning.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a rescan whenever desktop entries under the scanner's
// search paths change.
type Watcher struct {
	scanner  *scanner.Scanner
	deliver  func(*scanner.Result, error)
	Debounce time.Duration

	fsw      *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	watched []string
	// pending maps a search path that does not exist yet to the ancestor
	// watched in its place.
	pending map[string]string
}

// New creates a new Watcher. deliver receives the result of every scan that
// was not superseded.
func New(sc *scanner.Scanner, deliver func(*scanner.Result, error)) (*Watcher, error) {
	if sc == nil {
		return nil, fmt.Errorf("scanner cannot be nil")
	}
	if deliver == nil {
		return nil, fmt.Errorf("deliver callback cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		scanner:  sc,
		deliver:  deliver,
		Debounce: DefaultDebounce,
		ctx:      ctx,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
		pending:  make(map[string]string),
	}, nil
}

// Start subscribes to every search path, runs an initial scan and begins
// processing events. A search path that does not exist yet is tracked through
// its nearest existing ancestor and watched once it is created.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw

	w.mu.Lock()
	for _, dir := range w.scanner.SearchPaths {
		w.arm(dir)
	}
	w.mu.Unlock()

	w.trigger()

	w.wg.Add(1)
	go w.run()

	return nil
}

// arm watches dir when it exists and reports true. Otherwise it watches the
// nearest existing ancestor and records dir as pending. w.mu must be held.
func (w *Watcher) arm(dir string) bool {
	for {
		if isDir(dir) {
			delete(w.pending, dir)
			if err := w.fsw.Add(dir); err != nil {
				log.Warn("watcher: cannot watch %s: %v", dir, err)
				return false
			}
			w.watched = append(w.watched, dir)
			return true
		}

		parent := nearestDir(dir)
		if w.pending[dir] == parent {
			return false
		}
		if err := w.fsw.Add(parent); err != nil {
			log.Warn("watcher: cannot watch %s for %s: %v", parent, dir, err)
			return false
		}
		w.pending[dir] = parent
		log.Debug("watcher: %s missing, watching %s", dir, parent)

		// dir, or a closer ancestor, may have appeared before parent was
		// subscribed.
		if !isDir(dir) && nearestDir(dir) == parent {
			return false
		}
	}
}

// armCreated re-arms pending search paths at or below a created path and
// reports whether any of them became watchable.
func (w *Watcher) armCreated(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	armed := false
	for dir := range w.pending {
		if dir == name || strings.HasPrefix(dir, name+string(filepath.Separator)) {
			if w.arm(dir) {
				armed = true
			}
		}
	}
	return armed
}

// nearestDir returns the closest existing ancestor directory of path.
func nearestDir(path string) string {
	dir := filepath.Dir(path)
	for !isDir(dir) && filepath.Dir(dir) != dir {
		dir = filepath.Dir(dir)
	}
	return dir
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Watched returns the search paths that are being watched.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.watched...)
}

// run coalesces events and rescans once each burst settles.
func (w *Watcher) run() {
	defer w.wg.Done()

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && w.armCreated(event.Name) {
				log.Debug("watcher: search path created under %s", event.Name)
				timer.Reset(debounce)
			} else if isRelevant(event) {
				log.Debug("watcher: %s", event)
				timer.Reset(debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watcher: %v", err)
		case <-timer.C:
			w.trigger()
		case <-w.stopCh:
			return
		}
	}
}

// trigger starts a background scan. The scan is joined by Stop.
func (w *Watcher) trigger() {
	done := w.scanner.ScanAsync(w.ctx, w.deliver)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		<-done
	}()
}

// isRelevant reports whether event can change the inventory.
func isRelevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != desktop.Suffix {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Stop halts event processing, cancels in-flight scans and waits for every
// goroutine to exit. It is safe to call more than once, or before Start.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.cancel()
		if w.fsw != nil {
			err = w.fsw.Close()
		}
		w.wg.Wait()
	})
	return err
}
