package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nguyentantai21042004/treewatch/internal/logger"
	"github.com/nguyentantai21042004/treewatch/internal/watcher"
	"github.com/nguyentantai21042004/treewatch/pkg/executor"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// CommandOptions configures the command sink
type CommandOptions struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

type commandSink struct {
	ctx      context.Context
	executor executor.Executor
	opts     CommandOptions
	logger   logger.Logger
}

// NewCommand creates a Listener that runs a command for every change.
// The change is passed in TREEWATCH_ROOT, TREEWATCH_EVENT, TREEWATCH_PATH and
// TREEWATCH_IS_DIR. A failing command is reported as a listener error.
func NewCommand(ctx context.Context, exec executor.Executor, opts CommandOptions, log logger.Logger) watcher.Listener {
	return &commandSink{
		ctx:      ctx,
		executor: exec,
		opts:     opts,
		logger:   log,
	}
}

func (s *commandSink) Started(root string) error {
	return nil
}

func (s *commandSink) PathCreated(root, path string, isDir bool) error {
	return s.run(root, EventCreated, path, isDir)
}

func (s *commandSink) PathUpdated(root, path string, isDir bool) error {
	return s.run(root, EventUpdated, path, isDir)
}

func (s *commandSink) PathDeleted(root, path string, isDir bool) error {
	return s.run(root, EventDeleted, path, isDir)
}

func (s *commandSink) ErrorOccurred(root string, err error) {}

func (s *commandSink) run(root, event, path string, isDir bool) error {
	ctx := s.ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	cmd := executor.Command{
		Name: s.opts.Name,
		Args: s.opts.Args,
		Dir:  s.opts.Dir,
		Env: []string{
			"TREEWATCH_ROOT=" + root,
			"TREEWATCH_EVENT=" + event,
			"TREEWATCH_PATH=" + path,
			"TREEWATCH_IS_DIR=" + strconv.FormatBool(isDir),
		},
	}

	start := time.Now()
	if _, err := s.executor.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("run %s for %s %s: %w", s.opts.Name, event, path, err)
	}
	s.logger.Debug(ctx, "Ran %s for %s %s in %s", s.opts.Name, event, path, time.Since(start))
	return nil
}
