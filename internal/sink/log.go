package sink

import (
	"context"

	"github.com/nguyentantai21042004/treewatch/internal/logger"
	"github.com/nguyentantai21042004/treewatch/internal/watcher"
)

type logSink struct {
	logger logger.Logger
}

// NewLog creates a Listener that logs every notification
func NewLog(log logger.Logger) watcher.Listener {
	return &logSink{logger: log}
}

func (s *logSink) Started(root string) error {
	s.logger.Info(context.Background(), "Watching %s", root)
	return nil
}

func (s *logSink) PathCreated(root, path string, isDir bool) error {
	s.logger.Info(context.Background(), "created %s %s", kindOf(isDir), path)
	return nil
}

func (s *logSink) PathUpdated(root, path string, isDir bool) error {
	s.logger.Info(context.Background(), "updated %s %s", kindOf(isDir), path)
	return nil
}

func (s *logSink) PathDeleted(root, path string, isDir bool) error {
	s.logger.Info(context.Background(), "deleted %s %s", kindOf(isDir), path)
	return nil
}

func (s *logSink) ErrorOccurred(root string, err error) {
	s.logger.Error(context.Background(), "Watcher error in %s: %v", root, err)
}

func kindOf(isDir bool) string {
	if isDir {
		return "dir"
	}
	return "file"
}
