package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Startup scans the root, registering every watchable directory, fires
// Started and starts the event loop. Pre-existing entries are recorded but
// not reported as created.
func (w *implWatcher) Startup(ctx context.Context) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	switch w.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateShutdown:
		return ErrShutdown
	}

	if err := w.prepare(ctx); err != nil {
		w.state = stateShutdown
		w.finish(nil)
		return err
	}
	w.state = stateRunning

	w.invoke(ctx, "started", "", func() error {
		return w.listener.Started(w.root)
	})

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	go w.run(loopCtx)

	w.logger.Info(ctx, "Watching %s (%d directories)", w.root, w.registry.len())
	return nil
}

// prepare validates the root, opens the event source and runs the initial scan.
func (w *implWatcher) prepare(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ConfigError{Root: w.root, Err: ErrRootNotFound}
		}
		return &ConfigError{Root: w.root, Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Root: w.root, Err: ErrNotDirectory}
	}

	source, err := w.newSource(w.eventBuffer)
	if err != nil {
		return fmt.Errorf("create event source: %w", err)
	}
	w.source = source
	w.registry = newRegistry(source, w.watchable)
	w.pending = newSettleQueue(w.quietPeriod)

	if _, err := w.scan(w.root); err != nil {
		w.registry.unregisterAll()
		_ = source.Close()
		return &ConfigError{Root: w.root, Err: err}
	}
	w.logger.Debug(ctx, "Initial scan of %s registered %d directories", w.root, w.registry.len())
	return nil
}

// Shutdown stops the event loop, waits for it and releases every watch.
func (w *implWatcher) Shutdown() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.state == stateShutdown {
		return nil
	}
	previous := w.state
	w.state = stateShutdown

	if previous == stateCreated {
		w.finish(nil)
		return nil
	}

	w.cancel()
	<-w.done

	w.registry.unregisterAll()
	if err := w.source.Close(); err != nil {
		return fmt.Errorf("close event source: %w", err)
	}
	return nil
}

func (w *implWatcher) Done() <-chan struct{} {
	return w.done
}

func (w *implWatcher) Err() error {
	w.errMutex.Lock()
	defer w.errMutex.Unlock()
	return w.err
}

// finish records the terminal error, if any, and closes done.
func (w *implWatcher) finish(err error) {
	w.doneOnce.Do(func() {
		w.errMutex.Lock()
		w.err = err
		w.errMutex.Unlock()
		close(w.done)
	})
}
