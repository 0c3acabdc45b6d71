package watcher

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type op int

const (
	opCreate op = iota + 1
	opModify
	opDelete
)

func (o op) String() string {
	switch o {
	case opCreate:
		return "create"
	case opModify:
		return "modify"
	case opDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// sourceEvent names one changed entry inside a watched directory.
type sourceEvent struct {
	path string
	op   op
}

// eventSource is a non-recursive, per-directory change notification primitive.
type eventSource interface {
	Add(dir string) error
	Remove(dir string) error
	// Next blocks until an event arrives, the source fails or ctx is done.
	Next(ctx context.Context) (sourceEvent, error)
	Close() error
}

var errSourceClosed = errors.New("event source closed")

type fsnotifySource struct {
	watcher *fsnotify.Watcher
}

func newFSNotifySource(buffer uint) (eventSource, error) {
	var (
		w   *fsnotify.Watcher
		err error
	)
	if buffer > 0 {
		w, err = fsnotify.NewBufferedWatcher(buffer)
	} else {
		w, err = fsnotify.NewWatcher()
	}
	if err != nil {
		return nil, err
	}
	return &fsnotifySource{watcher: w}, nil
}

func (s *fsnotifySource) Add(dir string) error {
	return s.watcher.Add(dir)
}

func (s *fsnotifySource) Remove(dir string) error {
	return s.watcher.Remove(dir)
}

func (s *fsnotifySource) Next(ctx context.Context) (sourceEvent, error) {
	for {
		select {
		case <-ctx.Done():
			return sourceEvent{}, ctx.Err()

		case event, ok := <-s.watcher.Events:
			if !ok {
				return sourceEvent{}, errSourceClosed
			}
			kind, ok := translateOp(event.Op)
			if !ok {
				continue
			}
			return sourceEvent{path: filepath.Clean(event.Name), op: kind}, nil

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return sourceEvent{}, errSourceClosed
			}
			return sourceEvent{}, err
		}
	}
}

func (s *fsnotifySource) Close() error {
	return s.watcher.Close()
}

// translateOp folds fsnotify operations into create, modify and delete.
// A rename is the disappearance of the old name; the new name arrives as a create.
func translateOp(o fsnotify.Op) (op, bool) {
	switch {
	case o.Has(fsnotify.Remove), o.Has(fsnotify.Rename):
		return opDelete, true
	case o.Has(fsnotify.Create):
		return opCreate, true
	case o.Has(fsnotify.Write):
		return opModify, true
	default:
		return 0, false
	}
}
