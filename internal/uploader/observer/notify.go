package observer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// NotifyObserver is an event-driven observer backed by fsnotify. Create and
// write events mark paths as pending; PollOnce applies the same two-tick
// size-stability gate as PollObserver before releasing a path, so a file
// still being written is never reported.
type NotifyObserver struct {
	dir        string
	extensions map[string]struct{}
	watcher    *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]int64 // last observed size, -1 before the first check
}

// NewNotifyObserver creates an fsnotify-backed observer for dir.
func NewNotifyObserver(dir string, extensions []string) (*NotifyObserver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(abs); err != nil {
		watcher.Close()
		return nil, err
	}

	o := &NotifyObserver{
		dir:        abs,
		extensions: extensionSet(extensions),
		watcher:    watcher,
		pending:    make(map[string]int64),
	}

	// Files already in the directory produce no events; seed them so a file
	// left behind by a previous run is still picked up.
	entries, err := os.ReadDir(abs)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !eligibleExtension(entry.Name(), o.extensions) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		o.pending[filepath.Join(abs, entry.Name())] = -1
	}

	go o.consume()

	return o, nil
}

// Close stops the underlying watcher.
func (o *NotifyObserver) Close() error {
	return o.watcher.Close()
}

// PollOnce stats every pending path and returns those whose size has held
// since the previous call, in name order. Paths that vanished are dropped.
func (o *NotifyObserver) PollOnce(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var candidates []string
	for path, last := range o.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(o.pending, path)
			continue
		}

		size := info.Size()
		if last >= 0 && last == size {
			candidates = append(candidates, path)
			delete(o.pending, path)
			continue
		}
		o.pending[path] = size
	}

	sort.Strings(candidates)
	return candidates, nil
}

func (o *NotifyObserver) consume() {
	for {
		select {
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !o.eligible(event.Name) {
				continue
			}
			o.mu.Lock()
			if _, exists := o.pending[event.Name]; !exists {
				o.pending[event.Name] = -1
			}
			o.mu.Unlock()
		case _, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// eligible accepts supported extensions directly inside the watched
// directory; events for the processed subdirectory's contents never match.
func (o *NotifyObserver) eligible(path string) bool {
	if filepath.Dir(path) != o.dir {
		return false
	}
	return eligibleExtension(filepath.Base(path), o.extensions)
}
