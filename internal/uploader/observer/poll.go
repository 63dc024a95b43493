// Package observer provides directory observation backends for the watch pipeline.
package observer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PollObserver scans the watched directory on demand and reports files whose
// size has been stable across two consecutive polls. Polling keeps behavior
// uniform across platforms; no OS change notifications are involved.
type PollObserver struct {
	dir        string
	extensions map[string]struct{}
	lastSizes  map[string]int64
}

// NewPollObserver creates a polling observer for dir. Only regular files
// directly inside dir whose extension is in extensions are considered;
// subdirectories, including the processed one, are never descended into.
func NewPollObserver(dir string, extensions []string) (*PollObserver, error) {
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

	return &PollObserver{
		dir:        abs,
		extensions: extensionSet(extensions),
		lastSizes:  make(map[string]int64),
	}, nil
}

// PollOnce lists the directory and returns the paths that are eligible and
// size-stable since the previous call, in name order. A file seen for the
// first time is never a candidate; it must hold its size for one full tick.
func (o *PollObserver) PollOnce(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(entries))
	var candidates []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !eligibleExtension(entry.Name(), o.extensions) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Vanished between list and stat.
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		path := filepath.Join(o.dir, entry.Name())
		seen[path] = struct{}{}

		size := info.Size()
		last, known := o.lastSizes[path]
		o.lastSizes[path] = size

		if known && last == size {
			candidates = append(candidates, path)
		}
	}

	// Forget files that left the directory so the table does not grow
	// across a long watch session.
	for path := range o.lastSizes {
		if _, ok := seen[path]; !ok {
			delete(o.lastSizes, path)
		}
	}

	return candidates, nil
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

func eligibleExtension(name string, set map[string]struct{}) bool {
	_, ok := set[strings.ToLower(filepath.Ext(name))]
	return ok
}
