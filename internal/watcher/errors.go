package watcher

import (
	"errors"
	"fmt"
)

var (
	ErrNilListener    = errors.New("listener is required")
	ErrRootNotFound   = errors.New("root does not exist")
	ErrNotDirectory   = errors.New("not a directory")
	ErrRootRemoved    = errors.New("root was removed")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrShutdown       = errors.New("watcher is shut down")
)

// ConfigError reports an unusable root. It is returned by Startup and is fatal to the instance.
type ConfigError struct {
	Root string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid root %s: %v", e.Root, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WatchArmError reports a directory that could not be watched, usually because
// it disappeared between discovery and registration.
type WatchArmError struct {
	Path string
	Err  error
}

func (e *WatchArmError) Error() string {
	return fmt.Sprintf("arm watch %s: %v", e.Path, e.Err)
}

func (e *WatchArmError) Unwrap() error { return e.Err }

// ListenerError describes an error returned, or a panic raised, by a listener
// callback. It labels the failure in logs; ErrorOccurred receives the original error.
type ListenerError struct {
	Callback string
	Path     string
	Err      error
}

func (e *ListenerError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("listener %s: %v", e.Callback, e.Err)
	}
	return fmt.Sprintf("listener %s %s: %v", e.Callback, e.Path, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// SourceError reports a failure of the underlying change-notification source.
// The watcher stops processing events after one.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("event source: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
