package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

type notification struct {
	Kind  string
	Path  string
	IsDir bool
}

// recorder is a Listener that keeps every callback in order.
type recorder struct {
	mutex    sync.Mutex
	started  int
	events   []notification
	errs     []error
	failWith map[string]error
	panicOn  map[string]interface{}
}

func newRecorder() *recorder {
	return &recorder{
		failWith: make(map[string]error),
		panicOn:  make(map[string]interface{}),
	}
}

func (r *recorder) record(kind, path string, isDir bool) error {
	r.mutex.Lock()
	r.events = append(r.events, notification{Kind: kind, Path: path, IsDir: isDir})
	err := r.failWith[kind]
	value, shouldPanic := r.panicOn[kind]
	r.mutex.Unlock()
	if shouldPanic {
		panic(value)
	}
	return err
}

func (r *recorder) Started(root string) error {
	r.mutex.Lock()
	r.started++
	r.events = append(r.events, notification{Kind: "started"})
	r.mutex.Unlock()
	return nil
}

func (r *recorder) PathCreated(root, path string, isDir bool) error {
	return r.record("created", path, isDir)
}

func (r *recorder) PathUpdated(root, path string, isDir bool) error {
	return r.record("updated", path, isDir)
}

func (r *recorder) PathDeleted(root, path string, isDir bool) error {
	return r.record("deleted", path, isDir)
}

func (r *recorder) ErrorOccurred(root string, err error) {
	r.mutex.Lock()
	r.errs = append(r.errs, err)
	r.mutex.Unlock()
}

func (r *recorder) snapshot() []notification {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]notification, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) reported() []error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *recorder) reset() {
	r.mutex.Lock()
	r.events = nil
	r.errs = nil
	r.mutex.Unlock()
}

// ofKind returns the sorted paths reported with the given kind.
func (r *recorder) ofKind(kind string) []string {
	var paths []string
	for _, n := range r.snapshot() {
		if n.Kind == kind {
			paths = append(paths, n.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// fakeSource is an in-memory eventSource driven by the test.
type fakeSource struct {
	mutex   sync.Mutex
	watched map[string]bool
	removed []string
	failAdd map[string]error
	closed  bool
	events  chan sourceEvent
	errs    chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		watched: make(map[string]bool),
		failAdd: make(map[string]error),
		events:  make(chan sourceEvent, 64),
		errs:    make(chan error, 1),
	}
}

func (s *fakeSource) Add(dir string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.failAdd[dir]; err != nil {
		return err
	}
	s.watched[dir] = true
	return nil
}

func (s *fakeSource) Remove(dir string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.watched[dir] {
		return errors.New("not watched")
	}
	delete(s.watched, dir)
	s.removed = append(s.removed, dir)
	return nil
}

func (s *fakeSource) Next(ctx context.Context) (sourceEvent, error) {
	select {
	case <-ctx.Done():
		return sourceEvent{}, ctx.Err()
	case event := <-s.events:
		return event, nil
	case err := <-s.errs:
		return sourceEvent{}, err
	}
}

func (s *fakeSource) Close() error {
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()
	return nil
}

func (s *fakeSource) watchedPaths() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var paths []string
	for path := range s.watched {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (s *fakeSource) isClosed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.closed
}

// newTestWatcher builds a watcher over root backed by source.
func newTestWatcher(t *testing.T, root string, source eventSource, listener Listener, exclusions ...Matcher) *implWatcher {
	t.Helper()
	w, err := New(root, exclusions, listener, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	impl := w.(*implWatcher)
	impl.newSource = func(uint) (eventSource, error) { return source, nil }
	return impl
}

// prepared returns a watcher whose initial scan has run but whose loop has not
// started, so tests can feed events to handle directly.
func prepared(t *testing.T, root string, listener Listener, exclusions ...Matcher) (*implWatcher, *fakeSource) {
	t.Helper()
	source := newFakeSource()
	w := newTestWatcher(t, root, source, listener, exclusions...)
	if err := w.prepare(context.Background()); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	return w, source
}

// settle applies every pending change as if its quiet period had passed.
func settle(w *implWatcher) {
	w.flush(context.Background(), w.pending.drain())
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("create dir %s: %v", path, err)
	}
	return path
}

func writeFile(t *testing.T, content string, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
	return path
}

func appendFile(t *testing.T, content string, parts ...string) {
	t.Helper()
	path := filepath.Join(parts...)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := file.Write([]byte(content)); err != nil {
		t.Fatalf("append %s: %v", path, err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(20 * time.Millisecond)
	}
}
