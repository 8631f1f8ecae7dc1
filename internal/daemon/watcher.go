//go:build linux

package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceTime batches bursts of filesystem events into one reload.
const debounceTime = 500 * time.Millisecond

// Watcher raises the reload notifier when a configuration file changes or
// a device node under /dev/input appears or disappears.
type Watcher struct {
	watcher *fsnotify.Watcher
	reload  *Notifier
	stop    chan struct{}
	log     *slog.Logger
}

// NewWatcher watches the given configuration directories plus /dev/input.
// Directories that do not exist yet are skipped; watching a directory
// also covers configuration files created there later.
func NewWatcher(reload *Notifier, configDirs []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fsw,
		reload:  reload,
		stop:    make(chan struct{}),
		log:     slog.Default(),
	}

	dirs := map[string]struct{}{"/dev/input": {}}
	for _, d := range configDirs {
		dirs[d] = struct{}{}
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.log.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		w.log.Debug("watching directory", "dir", dir)
	}

	go w.run()
	return w, nil
}

// Close stops the watcher goroutine.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	timer := time.NewTimer(debounceTime)
	timer.Stop()
	pending := false

	for {
		select {
		case <-w.stop:
			return

		case <-timer.C:
			if pending {
				pending = false
				w.log.Info("filesystem change detected, requesting reload")
				w.reload.Raise()
			}

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			w.log.Debug("filesystem event", "op", event.Op.String(), "path", event.Name)
			if !pending {
				pending = true
				timer.Reset(debounceTime)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("filesystem watch error", "error", err)
		}
	}
}

// relevantEvent filters for device node churn and configuration edits.
// Editor temp files and attribute-only changes are ignored.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasPrefix(event.Name, "/dev/input/") {
		return strings.HasPrefix(filepath.Base(event.Name), "event")
	}
	return strings.HasSuffix(event.Name, ".toml")
}
