package watcher

import (
	"os"
	"path/filepath"
)

// scanned is one entry discovered by a scan.
type scanned struct {
	path  string
	isDir bool
}

// scan registers dir, then lists it and descends pre-order into every
// watchable child directory. Registering before listing means anything written
// into dir after its watch is armed is either listed here or arrives as an event.
// The returned entries exclude dir itself.
func (w *implWatcher) scan(dir string) ([]scanned, error) {
	entry, err := w.registry.register(dir)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		_ = w.registry.unregister(dir)
		return nil, &WatchArmError{Path: dir, Err: err}
	}

	children := make(map[string]childInfo, len(dirents))
	found := make([]scanned, 0, len(dirents))
	for _, dirent := range dirents {
		path := filepath.Join(dir, dirent.Name())
		info, err := dirent.Info()
		if err != nil {
			continue
		}
		child := newChildInfo(info)

		if child.isDir && w.classifier.isWatchable(w.relPath(path)) {
			nested, err := w.scan(path)
			if err != nil {
				continue
			}
			children[dirent.Name()] = child
			found = append(found, scanned{path: path, isDir: true})
			found = append(found, nested...)
			continue
		}

		children[dirent.Name()] = child
		found = append(found, scanned{path: path, isDir: child.isDir})
	}

	w.registry.updateChildren(dir, children)
	return found, nil
}
