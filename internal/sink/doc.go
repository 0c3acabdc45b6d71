// Package sink provides watcher.Listener implementations: a logging sink, a
// sink that runs a command for each notification, and a fan-out sink.
package sink
