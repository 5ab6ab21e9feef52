package scenefile

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const WATCH_DEBOUNCE = 100 * time.Millisecond

// Watcher reports scene files (.yaml, .yml, .xf) that were written,
// created or renamed in the watched directories. A file is reported once
// it has been quiet for WATCH_DEBOUNCE, so a burst of writes gives one
// event after the last of them.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create watcher")
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, errors.Wrapf(err, "Failed to watch %q", dir)
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Events and Errors are closed once the
// watching goroutine exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Errors)
	defer close(w.Events)

	d := newDebouncer(WATCH_DEBOUNCE)
	timer := time.NewTimer(WATCH_DEBOUNCE)
	timer.Stop()
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !IsSceneFile(event.Name) {
				continue
			}
			d.touch(event.Name, time.Now())
			if timerC == nil {
				timer.Reset(WATCH_DEBOUNCE)
				timerC = timer.C
			}
		case <-timerC:
			names, wait := d.due(time.Now())
			if wait > 0 {
				timer.Reset(wait)
			} else {
				timerC = nil
			}
			for _, name := range names {
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			timer.Stop()
			return
		}
	}
}

// debouncer holds names until they stop being touched for delay.
type debouncer struct {
	delay   time.Duration
	pending map[string]time.Time
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]time.Time)}
}

func (d *debouncer) touch(name string, now time.Time) {
	d.pending[name] = now.Add(d.delay)
}

// due removes and returns the names that have been quiet long enough,
// sorted, and how long until the next pending one is. The wait is zero
// when nothing is left.
func (d *debouncer) due(now time.Time) ([]string, time.Duration) {
	var names []string
	var wait time.Duration
	for name, deadline := range d.pending {
		if !deadline.After(now) {
			names = append(names, name)
			delete(d.pending, name)
		} else if left := deadline.Sub(now); wait == 0 || left < wait {
			wait = left
		}
	}
	sort.Strings(names)
	return names, wait
}

func IsSceneFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".xf":
		return true
	}
	return false
}
