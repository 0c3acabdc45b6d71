package supervisor

import (
	"time"

	"github.com/nguyentantai21042004/treewatch/internal/logger"
)

// Options bounds the restart policy
type Options struct {
	// MaxAttempts is the number of consecutive restarts before giving up. Zero disables restarts.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// StableAfter is how long an instance must run before the attempt count resets.
	StableAfter time.Duration
}

type implSupervisor struct {
	name    string
	factory Factory
	opts    Options
	logger  logger.Logger
}

// New creates a Supervisor for the watcher built by factory. name labels log lines.
func New(name string, factory Factory, opts Options, log logger.Logger) Supervisor {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &implSupervisor{
		name:    name,
		factory: factory,
		opts:    opts,
		logger:  log,
	}
}
