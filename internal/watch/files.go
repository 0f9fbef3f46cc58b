package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSubscription watches a fixed set of files, such as config files.
type FileSubscription struct {
	w    *fsnotify.Watcher
	once sync.Once
	done chan struct{}
}

// Files calls fn with the path of any of paths that is written, created,
// replaced or removed. The parent directories are watched so editors that
// save by renaming a temporary file are noticed too. A parent directory that
// cannot be watched, such as one that does not exist yet, is skipped and
// reported to onError, as are watcher errors. onError may be nil.
func Files(paths []string, onError func(error), fn func(path string)) (*FileSubscription, error) {
	if onError == nil {
		onError = func(error) {}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		p = filepath.Clean(p)
		wanted[p] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			onError(fmt.Errorf("watch %s: %w", dir, err))
		}
	}

	s := &FileSubscription{w: w, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				if _, ok := wanted[filepath.Clean(ev.Name)]; ok {
					fn(filepath.Clean(ev.Name))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()
	return s, nil
}

// Close stops the watch.
func (s *FileSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.w.Close()
	})
	return err
}

// Done is closed once the watch goroutine has exited.
func (s *FileSubscription) Done() <-chan struct{} {
	return s.done
}
