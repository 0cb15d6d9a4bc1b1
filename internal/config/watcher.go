package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// DefaultReloadDelay is the quiet period before a changed file is reloaded.
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk.
//
// The parent directory is watched rather than the file, so editors that
// save by writing a new file and renaming it over the old one are seen.
// Bursts of events are collapsed into one reload after a quiet period.
// A removed file reloads as the defaults.
type Watcher struct {
	path  string
	fsw   *fsnotify.Watcher
	log   logr.Logger
	delay time.Duration

	onChange func(Config)
	onError  func(error)

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(log logr.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = log
	}
}

// WithReloadDelay sets the quiet period before a reload.
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithReloadErrorHandler sets a function called when a reload fails. The
// previous configuration stays in effect.
func WithReloadErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher starts watching path and calls onChange with every
// successfully reloaded configuration.
func NewWatcher(path string, onChange func(Config), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		fsw:      fsw,
		log:      logr.Discard(),
		delay:    DefaultReloadDelay,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.V(2).Info("Config file event", "path", ev.Name, "op", ev.Op.String())
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// schedule restarts the quiet period. A timer that fires after a newer
// schedule or after Close sees a different sequence number and does nothing.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.seq++
	seq := w.seq
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		current := !w.closed && w.seq == seq
		w.mu.Unlock()
		if current {
			w.reload()
		}
	})
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.report(err)
		return
	}
	w.log.V(1).Info("Config reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) report(err error) {
	w.log.Error(err, "Config reload failed", "path", w.path)
	if w.onError != nil {
		w.onError(err)
	}
}

// Close stops watching. Pending reloads are cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	w.seq++
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
