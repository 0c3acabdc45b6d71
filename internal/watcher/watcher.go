package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var errSettling = errors.New("pending changes are due")

// run drains the event source until ctx is cancelled or the source fails.
// It is the only goroutine touching the registry while the watcher runs.
func (w *implWatcher) run(ctx context.Context) {
	for {
		w.flush(ctx, w.pending.popDue(time.Now()))

		event, err := w.next(ctx)
		if errors.Is(err, errSettling) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				w.flush(ctx, w.pending.drain())
				w.finish(nil)
				return
			}
			w.fail(ctx, err)
			return
		}

		if err := w.handle(ctx, event); err != nil {
			w.fail(ctx, err)
			return
		}
	}
}

// next waits for a source event, giving up with errSettling when the earliest
// pending change comes due first.
func (w *implWatcher) next(ctx context.Context) (sourceEvent, error) {
	due, ok := w.pending.next()
	if !ok {
		return w.source.Next(ctx)
	}

	waitCtx, cancel := context.WithDeadline(ctx, due)
	defer cancel()
	event, err := w.source.Next(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return sourceEvent{}, errSettling
	}
	return event, err
}

func (w *implWatcher) fail(ctx context.Context, err error) {
	var sourceErr *SourceError
	if !errors.As(err, &sourceErr) {
		sourceErr = &SourceError{Err: err}
	}
	w.logger.Error(ctx, "Watcher for %s stopped: %v", w.root, sourceErr)
	w.report(ctx, sourceErr)
	w.finish(sourceErr)
}

// handle applies one source event. A non-nil error is fatal to the loop.
func (w *implWatcher) handle(ctx context.Context, event sourceEvent) error {
	if event.path == w.root {
		if event.op == opDelete {
			return &SourceError{Err: ErrRootRemoved}
		}
		return nil
	}

	parent := w.registry.lookup(filepath.Dir(event.path))
	if parent == nil {
		w.logger.Debug(ctx, "Dropping %s event outside watched tree: %s", event.op, event.path)
		return nil
	}
	name := filepath.Base(event.path)

	switch event.op {
	case opCreate:
		w.handleCreate(ctx, parent, name)
	case opModify:
		w.handleModify(ctx, parent, name)
	case opDelete:
		w.handleDelete(ctx, parent, name)
	}
	return nil
}

func (w *implWatcher) handleCreate(ctx context.Context, parent *watchEntry, name string) {
	path := filepath.Join(parent.path, name)
	if kind, ok := w.pending.get(path); ok && kind == pendingDelete {
		// the old entry goes first; the delete may take parent with it
		w.pending.remove(path)
		w.removeVanished(ctx, path)
		if parent = w.registry.lookup(parent.path); parent == nil {
			return
		}
	}

	if previous, known := parent.child(name); known {
		if !previous.isDir {
			// replaced in place, e.g. renamed over
			w.handleModify(ctx, parent, name)
		}
		return
	}

	info, err := os.Lstat(path)
	if err != nil {
		w.logger.Debug(ctx, "Created entry vanished before processing: %s", path)
		return
	}
	child := newChildInfo(info)
	rel := w.relPath(path)

	if !child.isDir {
		parent.setChild(name, child)
		w.pending.schedule(path, pendingCreate, time.Now())
		return
	}
	if !w.classifier.isWatchable(rel) {
		parent.setChild(name, child)
		w.notify(ctx, opCreate, rel, true)
		return
	}

	found, err := w.scan(path)
	if err != nil {
		w.logger.Debug(ctx, "Skipping directory %s: %v", path, err)
		return
	}
	parent.setChild(name, child)
	w.notify(ctx, opCreate, rel, true)
	now := time.Now()
	for _, entry := range found {
		if entry.isDir {
			w.notify(ctx, opCreate, w.relPath(entry.path), true)
			continue
		}
		w.pending.schedule(entry.path, pendingCreate, now)
	}
}

func (w *implWatcher) handleModify(ctx context.Context, parent *watchEntry, name string) {
	path := filepath.Join(parent.path, name)
	if kind, ok := w.pending.get(path); ok && kind == pendingDelete {
		// recreated under the same name before the delete settled
		w.handleCreate(ctx, parent, name)
		return
	}

	previous, known := parent.child(name)
	if !known {
		w.handleCreate(ctx, parent, name)
		return
	}
	if previous.isDir {
		return
	}

	info, err := os.Lstat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		// replaced by a directory under the same name
		w.flushPath(ctx, path)
		w.deleteChild(ctx, parent, name)
		w.handleCreate(ctx, parent, name)
		return
	}
	w.pending.schedule(path, pendingUpdate, time.Now())
}

func (w *implWatcher) handleDelete(ctx context.Context, parent *watchEntry, name string) {
	if _, known := parent.child(name); !known {
		return
	}

	path := filepath.Join(parent.path, name)
	if kind, ok := w.pending.get(path); ok && kind == pendingCreate {
		w.flushPath(ctx, path)
	}
	w.pending.schedule(path, pendingDelete, time.Now())
}

// flush applies settled changes. Deletes go last so that a create settling in
// the same batch is reported before the removal of its directory.
func (w *implWatcher) flush(ctx context.Context, items []pendingItem) {
	for _, item := range items {
		if item.kind != pendingDelete {
			w.apply(ctx, item)
		}
	}
	for _, item := range items {
		if item.kind == pendingDelete {
			w.apply(ctx, item)
		}
	}
}

// flushPath applies whatever is pending for path right away.
func (w *implWatcher) flushPath(ctx context.Context, path string) {
	kind, ok := w.pending.get(path)
	if !ok {
		return
	}
	w.pending.remove(path)
	w.apply(ctx, pendingItem{path: path, kind: kind})
}

func (w *implWatcher) apply(ctx context.Context, item pendingItem) {
	if item.kind == pendingDelete {
		w.removeVanished(ctx, item.path)
		return
	}

	parent := w.registry.lookup(filepath.Dir(item.path))
	if parent == nil {
		return
	}
	child, known := parent.child(filepath.Base(item.path))
	if !known || child.isDir {
		return
	}
	if item.kind == pendingCreate {
		w.notify(ctx, opCreate, w.relPath(item.path), false)
		return
	}
	w.notify(ctx, opModify, w.relPath(item.path), false)
}

// removeVanished reports path as deleted. When its parent directories are
// gone as well, the highest vanished one is removed instead so the whole
// subtree is reported parent first.
func (w *implWatcher) removeVanished(ctx context.Context, path string) {
	top := path
	for {
		dir := filepath.Dir(top)
		if dir == w.root || w.registry.lookup(dir) == nil {
			break
		}
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		top = dir
	}

	parent := w.registry.lookup(filepath.Dir(top))
	if parent == nil {
		return
	}
	w.deleteChild(ctx, parent, filepath.Base(top))
}

// deleteChild forgets one entry of parent and reports it. A watched directory
// is reported together with everything known beneath it and unregistered.
func (w *implWatcher) deleteChild(ctx context.Context, parent *watchEntry, name string) {
	previous, known := parent.removeChild(name)
	if !known {
		return
	}

	path := filepath.Join(parent.path, name)
	w.pending.remove(path)
	if previous.isDir && w.registry.lookup(path) != nil {
		for _, item := range w.pending.popUnder(path) {
			if item.kind == pendingCreate {
				w.apply(ctx, item)
			}
		}
		w.fanOutDelete(ctx, path)
		removed := w.registry.unregisterSubtree(path)
		w.logger.Debug(ctx, "Unregistered %d directories under %s", len(removed), path)
		return
	}
	w.notify(ctx, opDelete, w.relPath(path), previous.isDir)
}

// fanOutDelete reports dir and everything known beneath it as deleted, parents
// before their children. The registry snapshot is the only source of truth
// here since the entries are already gone from disk.
func (w *implWatcher) fanOutDelete(ctx context.Context, dir string) {
	w.notify(ctx, opDelete, w.relPath(dir), true)

	entry := w.registry.lookup(dir)
	if entry == nil {
		return
	}
	for _, name := range entry.childNames() {
		child, _ := entry.child(name)
		path := filepath.Join(dir, name)
		if child.isDir && w.registry.lookup(path) != nil {
			w.fanOutDelete(ctx, path)
			continue
		}
		w.notify(ctx, opDelete, w.relPath(path), child.isDir)
	}
}

// notify delivers one change to the listener unless the path is excluded.
func (w *implWatcher) notify(ctx context.Context, kind op, rel string, isDir bool) {
	if !w.classifier.isNotifiable(rel) {
		return
	}

	switch kind {
	case opCreate:
		w.invoke(ctx, "pathCreated", rel, func() error {
			return w.listener.PathCreated(w.root, rel, isDir)
		})
	case opModify:
		w.invoke(ctx, "pathUpdated", rel, func() error {
			return w.listener.PathUpdated(w.root, rel, isDir)
		})
	case opDelete:
		w.invoke(ctx, "pathDeleted", rel, func() error {
			return w.listener.PathDeleted(w.root, rel, isDir)
		})
	}
}

// invoke runs one listener callback and routes its failure to ErrorOccurred.
func (w *implWatcher) invoke(ctx context.Context, callback, rel string, fn func() error) {
	err := safeCall(fn)
	if err == nil {
		return
	}
	w.logger.Warn(ctx, "Listener failed: %v", &ListenerError{Callback: callback, Path: rel, Err: err})
	w.report(ctx, err)
}

func (w *implWatcher) report(ctx context.Context, err error) {
	if perr := safeCall(func() error {
		w.listener.ErrorOccurred(w.root, err)
		return nil
	}); perr != nil {
		w.logger.Error(ctx, "Listener failed to handle error %v: %v", err, perr)
	}
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = rerr
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
