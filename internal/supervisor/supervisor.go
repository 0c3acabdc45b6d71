package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nguyentantai21042004/treewatch/internal/watcher"
)

// Run starts a watcher and rebuilds it whenever it dies, waiting an
// exponentially growing delay between attempts. Configuration errors are not
// retried. When ctx is done the running watcher is shut down and Run returns nil.
func (s *implSupervisor) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.InitialInterval
	policy.MaxInterval = s.opts.MaxInterval
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(policy, uint64(s.opts.MaxAttempts))
	b = backoff.WithContext(b, ctx)

	notify := func(err error, delay time.Duration) {
		s.logger.Warn(ctx, "Watcher %s died: %v; restarting in %s", s.name, err, delay)
	}

	err := backoff.RetryNotify(func() error {
		return s.runOnce(ctx, b)
	}, b, notify)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		s.logger.Error(ctx, "Giving up on watcher %s: %v", s.name, err)
	}
	return err
}

// runOnce runs one watcher instance until it stops. A nil return means ctx is done.
func (s *implSupervisor) runOnce(ctx context.Context, b backoff.BackOff) error {
	if ctx.Err() != nil {
		return nil
	}

	w, err := s.factory()
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build watcher: %w", err))
	}

	started := time.Now()
	if err := w.Startup(ctx); err != nil {
		_ = w.Shutdown()
		var configErr *watcher.ConfigError
		if errors.As(err, &configErr) {
			return backoff.Permanent(err)
		}
		return err
	}

	select {
	case <-ctx.Done():
		if err := w.Shutdown(); err != nil {
			s.logger.Warn(ctx, "Shutdown of watcher %s failed: %v", s.name, err)
		}
		return nil

	case <-w.Done():
		if err := w.Shutdown(); err != nil {
			s.logger.Warn(ctx, "Shutdown of watcher %s failed: %v", s.name, err)
		}
		if s.opts.StableAfter > 0 && time.Since(started) >= s.opts.StableAfter {
			b.Reset()
		}
		if err := w.Err(); err != nil {
			return err
		}
		return errors.New("watcher stopped unexpectedly")
	}
}
