package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// childInfo is what the registry remembers about one entry of a watched directory.
type childInfo struct {
	isDir bool
}

func newChildInfo(info fs.FileInfo) childInfo {
	return childInfo{isDir: info.IsDir()}
}

// watchEntry is one watched directory and its last known children.
type watchEntry struct {
	path     string
	children map[string]childInfo
}

func (e *watchEntry) child(name string) (childInfo, bool) {
	info, ok := e.children[name]
	return info, ok
}

func (e *watchEntry) setChild(name string, info childInfo) {
	e.children[name] = info
}

func (e *watchEntry) removeChild(name string) (childInfo, bool) {
	info, ok := e.children[name]
	if ok {
		delete(e.children, name)
	}
	return info, ok
}

// childNames returns the known children in name order.
func (e *watchEntry) childNames() []string {
	names := make([]string, 0, len(e.children))
	for name := range e.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registry maps watched directories to their entries. It is owned by a single
// goroutine at a time and does no locking.
type registry struct {
	source    eventSource
	watchable func(path string) bool
	entries   map[string]*watchEntry
}

func newRegistry(source eventSource, watchable func(path string) bool) *registry {
	return &registry{
		source:    source,
		watchable: watchable,
		entries:   make(map[string]*watchEntry),
	}
}

func (r *registry) lookup(path string) *watchEntry {
	return r.entries[path]
}

func (r *registry) len() int {
	return len(r.entries)
}

// register arms a watch on path. It returns the existing entry when path is
// already registered and nil, nil when path is not watchable.
func (r *registry) register(path string) (*watchEntry, error) {
	if entry, ok := r.entries[path]; ok {
		return entry, nil
	}
	if !r.watchable(path) {
		return nil, nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		return nil, &WatchArmError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return nil, &WatchArmError{Path: path, Err: ErrNotDirectory}
	}
	if err := r.source.Add(path); err != nil {
		return nil, &WatchArmError{Path: path, Err: err}
	}

	entry := &watchEntry{path: path, children: make(map[string]childInfo)}
	r.entries[path] = entry
	return entry, nil
}

func (r *registry) updateChildren(path string, children map[string]childInfo) {
	entry, ok := r.entries[path]
	if !ok {
		return
	}
	if children == nil {
		children = make(map[string]childInfo)
	}
	entry.children = children
}

// unregister drops the watch on path. Removal errors are returned for logging
// only: the kernel discards watches of deleted directories on its own.
func (r *registry) unregister(path string) error {
	if _, ok := r.entries[path]; !ok {
		return nil
	}
	delete(r.entries, path)
	return r.source.Remove(path)
}

// unregisterSubtree drops path and every registered directory beneath it and
// returns the paths that were registered.
func (r *registry) unregisterSubtree(path string) []string {
	prefix := path + string(filepath.Separator)
	var removed []string
	for candidate := range r.entries {
		if candidate == path || strings.HasPrefix(candidate, prefix) {
			removed = append(removed, candidate)
		}
	}
	sort.Strings(removed)
	for _, candidate := range removed {
		_ = r.unregister(candidate)
	}
	return removed
}

func (r *registry) unregisterAll() {
	for path := range r.entries {
		_ = r.unregister(path)
	}
}
