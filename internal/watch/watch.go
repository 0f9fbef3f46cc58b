// Package watch turns fsnotify events into workspace change notifications.
package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Kind is the type of change observed for a path.
type Kind int

const (
	Changed Kind = iota
	Created
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "changed"
	}
}

// Event is a single change below the watched root.
type Event struct {
	// Path is the absolute path reported by the OS.
	Path string
	// Rel is Path relative to the root, slash-separated.
	Rel  string
	Kind Kind
}

// Options tune a subscription.
type Options struct {
	// SkipDir reports whether a directory (relative, slash-separated) should
	// not be watched. ".git" is always skipped.
	SkipDir func(rel string) bool
	// OnError receives watcher errors; they never stop the subscription.
	OnError func(error)
}

// Subscription is a live recursive watch. Close releases it.
type Subscription struct {
	root string
	opts Options
	w    *fsnotify.Watcher
	fn   func(Event)
	once sync.Once
	done chan struct{}
}

// Subscribe watches root and every directory below it, calling fn for each
// change. fn runs on the subscription's goroutine.
func Subscribe(root string, opts Options, fn func(Event)) (*Subscription, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s := &Subscription{root: root, opts: opts, w: w, fn: fn, done: make(chan struct{})}
	if err := s.addTree(root); err != nil {
		w.Close()
		return nil, err
	}
	go s.loop()
	return s, nil
}

// Close stops the watch. It does not wait for an fn call in progress.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.w.Close()
	})
	return err
}

// Done is closed once the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) loop() {
	defer close(s.done)
	for {
		select {
		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}
			s.handle(ev)
		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}
			if s.opts.OnError != nil {
				s.opts.OnError(err)
			}
		}
	}
}

func (s *Subscription) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(s.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || s.skip(rel) {
		return
	}

	var kind Kind
	switch {
	case ev.Has(fsnotify.Create):
		kind = Created
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := s.addTree(ev.Name); err != nil && s.opts.OnError != nil {
				s.opts.OnError(err)
			}
		}
	case ev.Has(fsnotify.Write):
		kind = Changed
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = Deleted
	default:
		// Chmod alone is not a content change.
		return
	}
	s.fn(Event{Path: ev.Name, Rel: rel, Kind: kind})
}

// addTree adds dir and every non-skipped directory below it.
func (s *Subscription) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if rel, rerr := filepath.Rel(s.root, path); rerr == nil && rel != "." && s.skip(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := s.w.Add(path); err != nil {
			if errors.Is(err, fsnotify.ErrClosed) {
				return err
			}
			return nil
		}
		return nil
	})
}

// skip reports whether rel lies inside .git or a directory rejected by
// SkipDir.
func (s *Subscription) skip(rel string) bool {
	if rel == ".git" || hasPrefixDir(rel, ".git") {
		return true
	}
	return s.opts.SkipDir != nil && s.opts.SkipDir(rel)
}

func hasPrefixDir(rel, dir string) bool {
	return len(rel) > len(dir) && rel[:len(dir)] == dir && rel[len(dir)] == '/'
}
