package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nguyentantai21042004/treewatch/internal/config"
	"github.com/nguyentantai21042004/treewatch/internal/logger"
	"github.com/nguyentantai21042004/treewatch/internal/pathmatch"
	"github.com/nguyentantai21042004/treewatch/internal/sink"
	"github.com/nguyentantai21042004/treewatch/internal/supervisor"
	"github.com/nguyentantai21042004/treewatch/internal/watcher"
	"github.com/nguyentantai21042004/treewatch/pkg/executor"
)

type flags struct {
	configPath string
	exclude    []string
	logLevel   string
	exec       string
	execArgs   []string
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "treewatch [root...]",
		Short: "Watch directory trees and report created, updated and deleted entries",
		Long: `Watch one or more directory trees recursively.

New subdirectories are picked up as they appear and removed ones are released.
Every change is logged; with --exec a command also runs per change, receiving
TREEWATCH_ROOT, TREEWATCH_EVENT, TREEWATCH_PATH and TREEWATCH_IS_DIR.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringSliceVarP(&f.exclude, "exclude", "x", nil, "Glob pattern to exclude (repeatable)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.exec, "exec", "", "Command to run for every change")
	cmd.Flags().StringSliceVar(&f.execArgs, "exec-arg", nil, "Argument for --exec (repeatable)")
	return cmd
}

// resolveConfig loads the config file, if any, and applies flags and args on top.
func resolveConfig(cmd *cobra.Command, f flags, args []string) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Watch.Roots = args
	}
	cfg.Watch.Exclude = append(cfg.Watch.Exclude, f.exclude...)
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if f.exec != "" {
		cfg.Command.Name = f.exec
		cfg.Command.Args = f.execArgs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "treewatch on %s/%s, %d root(s)", runtime.GOOS, runtime.GOARCH, len(cfg.Watch.Roots))

	exclusions, err := pathmatch.Compile(cfg.Watch.Exclude)
	if err != nil {
		return fmt.Errorf("compile exclusions: %w", err)
	}
	listener := buildListener(ctx, cfg, log)

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range cfg.Watch.Roots {
		factory := func() (watcher.Watcher, error) {
			return watcher.New(root, []watcher.Matcher{exclusions}, listener, log,
				watcher.WithEventBuffer(cfg.Watch.EventBuffer),
				watcher.WithQuietPeriod(cfg.Watch.QuietPeriod))
		}
		sup := supervisor.New(root, factory, supervisor.Options{
			MaxAttempts:     cfg.Restart.Attempts(),
			InitialInterval: cfg.Restart.InitialInterval,
			MaxInterval:     cfg.Restart.MaxInterval,
			StableAfter:     cfg.Restart.StableAfter,
		}, log)

		g.Go(func() error {
			if err := sup.Run(gctx); err != nil {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		})
	}

	log.Info(ctx, "Press Ctrl+C to stop")
	err = g.Wait()
	log.Info(ctx, "treewatch stopped")
	return err
}

func buildListener(ctx context.Context, cfg *config.Config, log logger.Logger) watcher.Listener {
	listeners := []watcher.Listener{sink.NewLog(log)}
	if cfg.Command.Name != "" {
		listeners = append(listeners, sink.NewCommand(ctx, executor.New(), sink.CommandOptions{
			Name:    cfg.Command.Name,
			Args:    cfg.Command.Args,
			Dir:     cfg.Command.Dir,
			Timeout: cfg.Command.Timeout,
		}, log))
	}
	return sink.NewMulti(listeners...)
}
