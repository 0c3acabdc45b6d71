package watcher

import "context"

// Watcher observes a directory tree and reports changes to a Listener
type Watcher interface {
	// Startup scans the root, fires Listener.Started and begins processing events.
	Startup(ctx context.Context) error
	// Shutdown stops event processing and releases every watch. Safe to call repeatedly.
	Shutdown() error
	// Done is closed once event processing has stopped.
	Done() <-chan struct{}
	// Err returns the error that terminated event processing, if any.
	Err() error
}

// Listener receives notifications for a watched root.
//
// Paths are relative to root and use forward slashes. Callbacks run on the
// watcher's event goroutine; a slow listener slows event draining. Calling
// Shutdown from inside a callback blocks forever.
type Listener interface {
	Started(root string) error
	PathCreated(root, path string, isDir bool) error
	PathUpdated(root, path string, isDir bool) error
	PathDeleted(root, path string, isDir bool) error
	ErrorOccurred(root string, err error)
}

// Matcher reports whether a relative path is excluded
type Matcher interface {
	Match(path string) bool
}

// MatcherFunc adapts a function to Matcher
type MatcherFunc func(path string) bool

func (f MatcherFunc) Match(path string) bool {
	return f(path)
}
