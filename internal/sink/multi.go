package sink

import (
	"errors"

	"github.com/nguyentantai21042004/treewatch/internal/watcher"
)

type multiSink struct {
	listeners []watcher.Listener
}

// NewMulti creates a Listener that forwards every callback to each listener in
// order. Errors from all of them are joined.
func NewMulti(listeners ...watcher.Listener) watcher.Listener {
	kept := make([]watcher.Listener, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			kept = append(kept, l)
		}
	}
	return &multiSink{listeners: kept}
}

func (m *multiSink) each(fn func(watcher.Listener) error) error {
	var errs []error
	for _, l := range m.listeners {
		if err := fn(l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiSink) Started(root string) error {
	return m.each(func(l watcher.Listener) error { return l.Started(root) })
}

func (m *multiSink) PathCreated(root, path string, isDir bool) error {
	return m.each(func(l watcher.Listener) error { return l.PathCreated(root, path, isDir) })
}

func (m *multiSink) PathUpdated(root, path string, isDir bool) error {
	return m.each(func(l watcher.Listener) error { return l.PathUpdated(root, path, isDir) })
}

func (m *multiSink) PathDeleted(root, path string, isDir bool) error {
	return m.each(func(l watcher.Listener) error { return l.PathDeleted(root, path, isDir) })
}

func (m *multiSink) ErrorOccurred(root string, err error) {
	for _, l := range m.listeners {
		l.ErrorOccurred(root, err)
	}
}
