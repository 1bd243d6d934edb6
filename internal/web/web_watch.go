package web

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay collapses an editor's burst of writes into one remount.
const DefaultWatchDelay = 100 * time.Millisecond

var ignoreWatchDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
}

// Watcher remounts the application when the on-disk bundle changes.
type Watcher struct {
	s     *WebServer
	fw    *fsnotify.Watcher
	delay time.Duration
	done  chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// WatchBundle starts watching root recursively. Every settled change remounts
// the application from the server's bundle, which must be served from root.
func (s *WebServer) WatchBundle(root string, delay time.Duration) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{s: s, fw: fw, delay: delay, done: make(chan struct{})}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		fw.Close()
		return nil, err
	}
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot && skipWatchDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	s.logger.Sugar().Infof("[WEB]: watching %s for bundle changes", absRoot)
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() && !skipWatchDir(st.Name()) {
					if err := w.fw.Add(event.Name); err != nil {
						w.s.logger.Sugar().Warnf("[WEB]: watch %s: %v", event.Name, err)
					}
				}
			}
			if skipWatchPath(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			w.schedule()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.s.logger.Sugar().Warnf("[WEB]: watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// schedule (re)arms the remount timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.remount)
}

func (w *Watcher) remount() {
	err := w.s.App.Remount(w.s.bundle)
	w.s.Metrics.Remount(err)
	if err != nil {
		w.s.logger.Sugar().Warnf("[WEB]: remount failed, keeping previous views: %v", err)
		return
	}
	w.s.logger.Sugar().Infof("[WEB]: bundle changed, remounted")
}

// Stop ends watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}

func skipWatchDir(name string) bool {
	return ignoreWatchDirs[name] || (strings.HasPrefix(name, ".") && name != ".")
}

// skipWatchPath filters editor swap and backup files.
func skipWatchPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") || base == ".DS_Store" {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoreWatchDirs[part] {
			return true
		}
	}
	return false
}
