package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/nguyentantai21042004/treewatch/internal/logger"
)

const (
	defaultEventBuffer = 256
	defaultQuietPeriod = 100 * time.Millisecond
)

type state int

const (
	stateCreated state = iota
	stateRunning
	stateShutdown
)

type implWatcher struct {
	root        string
	classifier  classifier
	listener    Listener
	logger      logger.Logger
	eventBuffer uint
	quietPeriod time.Duration
	newSource   func(buffer uint) (eventSource, error)

	mutex    sync.Mutex
	state    state
	source   eventSource
	registry *registry
	pending  *settleQueue
	cancel   func()

	done     chan struct{}
	doneOnce sync.Once
	errMutex sync.Mutex
	err      error
}

// Option customizes a Watcher
type Option func(*implWatcher)

// WithEventBuffer sets the size of the buffer between the OS and the event loop.
func WithEventBuffer(size int) Option {
	return func(w *implWatcher) {
		if size > 0 {
			w.eventBuffer = uint(size)
		}
	}
}

// WithQuietPeriod sets how long a file must stay unchanged before its
// creation, update or deletion is reported.
func WithQuietPeriod(d time.Duration) Option {
	return func(w *implWatcher) {
		if d > 0 {
			w.quietPeriod = d
		}
	}
}

// New creates a Watcher for root. Exclusions are matched against paths
// relative to root. The root itself is validated by Startup.
func New(root string, exclusions []Matcher, listener Listener, log logger.Logger, opts ...Option) (Watcher, error) {
	if listener == nil {
		return nil, ErrNilListener
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	w := &implWatcher{
		root:        filepath.Clean(abs),
		classifier:  newClassifier(exclusions),
		listener:    listener,
		logger:      log,
		eventBuffer: defaultEventBuffer,
		quietPeriod: defaultQuietPeriod,
		newSource:   newFSNotifySource,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// relPath converts an absolute path under root to the slash-separated form
// used by exclusions and listeners. The root maps to "".
func (w *implWatcher) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (w *implWatcher) watchable(path string) bool {
	return w.classifier.isWatchable(w.relPath(path))
}
