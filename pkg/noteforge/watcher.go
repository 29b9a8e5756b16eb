package noteforge

import (
	"github.com/fsnotify/fsnotify"
)

// templateWatcher invalidates the loader cache when template files change
// on disk. The cache itself stays append-only; the watcher only triggers
// the explicit clear.
type templateWatcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching the loader's template directory. Any write,
// create, remove, or rename clears the cache so the next load re-reads
// from disk. Returns an error if the directory cannot be watched.
func (l *Loader) Watch() error {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()

	if l.watcher != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(l.dir); err != nil {
		fsw.Close()
		return err
	}

	w := &templateWatcher{fsw: fsw, done: make(chan struct{})}
	l.watcher = w

	logger := GetLogger()
	go func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Debug("template change detected, clearing cache",
						"file", event.Name, "op", event.Op.String())
					l.cache.Clear()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("template watcher error", "error", err.Error())
			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher if one is running.
func (l *Loader) Close() error {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()

	if l.watcher == nil {
		return nil
	}
	close(l.watcher.done)
	err := l.watcher.fsw.Close()
	l.watcher = nil
	return err
}
