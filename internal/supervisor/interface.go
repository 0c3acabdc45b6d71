package supervisor

import (
	"context"

	"github.com/nguyentantai21042004/treewatch/internal/watcher"
)

// Supervisor keeps a watcher alive across source failures
type Supervisor interface {
	// Run blocks until ctx is done or restarts are exhausted.
	Run(ctx context.Context) error
}

// Factory builds a fresh, not yet started watcher
type Factory func() (watcher.Watcher, error)
