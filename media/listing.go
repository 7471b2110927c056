/*
DESCRIPTION
  listing.go implements the on-disk media listing used by the LIST
  command: a directory scan filtered to known video extensions, sorted
  ASCII-ascending, cached per directory and invalidated on filesystem
  change notifications.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package media implements the VTS daemon's media directory listing:
// the file-enumeration behaviour the LIST command exposes on the wire,
// with an fsnotify-backed cache so repeated LIST calls against an
// unchanged directory don't re-read it from disk.
package media

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

const pkg = "media: "

// videoExtensions are the file extensions LIST recognises, matched
// case-insensitively.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
}

// Lister scans directories for video files and caches the result per
// directory, invalidating an entry when fsnotify reports a change to the
// directory it was built from.
type Lister struct {
	mu    sync.Mutex
	cache map[string][]string

	watcher *fsnotify.Watcher
	watched map[string]bool

	log logging.Logger
}

// NewLister returns a Lister. If an fsnotify watcher cannot be created
// (e.g. the platform lacks support, or a resource limit is hit), the
// Lister still works, but without cache invalidation: List scans a
// directory the first time it is asked for and returns that cached result
// on every later call, even after the directory changes.
func NewLister(l logging.Logger) *Lister {
	lst := &Lister{
		cache:   make(map[string][]string),
		watched: make(map[string]bool),
		log:     l,
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		l.Warning(pkg+"fsnotify unavailable, listing cache will not auto-invalidate", "error", err.Error())
		return lst
	}
	lst.watcher = w
	go lst.watchLoop()
	return lst
}

func (l *Lister) watchLoop() {
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.invalidate(filepath.Dir(ev.Name))
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warning(pkg+"fsnotify error", "error", err.Error())
		}
	}
}

func (l *Lister) invalidate(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, dir)
}

// List returns the sorted, extension-filtered file names in dir. If dir
// names a single file rather than a directory, List returns just that
// file's name, unfiltered. A directory's result is cached until fsnotify
// reports a create, remove or rename in it; a single file's result, and
// any result cached while no watcher is available, is not refreshed.
func (l *Lister) List(dir string) ([]string, error) {
	l.mu.Lock()
	if names, ok := l.cache[dir]; ok {
		l.mu.Unlock()
		return names, nil
	}
	l.mu.Unlock()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, pkg+"could not stat %s", dir)
	}
	if !info.IsDir() {
		names := []string{filepath.Base(dir)}
		l.mu.Lock()
		l.cache[dir] = names
		l.mu.Unlock()
		return names, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, pkg+"could not read directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	l.mu.Lock()
	l.cache[dir] = names
	if l.watcher != nil && !l.watched[dir] {
		if err := l.watcher.Add(dir); err != nil {
			l.log.Warning(pkg+"could not watch directory", "dir", dir, "error", err.Error())
		} else {
			l.watched[dir] = true
		}
	}
	l.mu.Unlock()

	return names, nil
}

// Close releases the underlying fsnotify watcher, if one was created.
func (l *Lister) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}
