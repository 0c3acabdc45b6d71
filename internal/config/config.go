package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
	Command CommandConfig `yaml:"command"`
	Restart RestartConfig `yaml:"restart"`
}

type WatchConfig struct {
	Roots       []string      `yaml:"roots"`
	Exclude     []string      `yaml:"exclude"`
	EventBuffer int           `yaml:"event_buffer"`
	QuietPeriod time.Duration `yaml:"quiet_period"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CommandConfig describes a command run for every notification. Empty Name disables it.
type CommandConfig struct {
	Name    string        `yaml:"name"`
	Args    []string      `yaml:"args"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

type RestartConfig struct {
	// MaxAttempts is nil when unset; 0 turns restarts off.
	MaxAttempts     *int          `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	StableAfter     time.Duration `yaml:"stable_after"`
}

// Default returns a configuration watching the current directory
func Default() *Config {
	cfg := &Config{}
	cfg.Watch.Roots = []string{"."}
	_ = cfg.Validate()
	return cfg
}

// Load reads a YAML configuration file and validates it
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Watch.Roots) == 0 {
		return fmt.Errorf("watch.roots is required")
	}
	for i, root := range c.Watch.Roots {
		if root == "" {
			return fmt.Errorf("watch.roots[%d] is empty", i)
		}
	}
	if c.Watch.EventBuffer < 0 {
		return fmt.Errorf("watch.event_buffer must not be negative")
	}
	if c.Watch.QuietPeriod < 0 {
		return fmt.Errorf("watch.quiet_period must not be negative")
	}
	if c.Restart.MaxAttempts != nil && *c.Restart.MaxAttempts < 0 {
		return fmt.Errorf("restart.max_attempts must not be negative")
	}
	if c.Command.Name == "" && (len(c.Command.Args) > 0 || c.Command.Dir != "") {
		return fmt.Errorf("command.name is required when command.args or command.dir is set")
	}

	if c.Watch.EventBuffer == 0 {
		c.Watch.EventBuffer = 256
	}
	if c.Watch.QuietPeriod == 0 {
		c.Watch.QuietPeriod = 100 * time.Millisecond
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Command.Timeout == 0 {
		c.Command.Timeout = 30 * time.Second
	}
	if c.Restart.MaxAttempts == nil {
		attempts := 3
		c.Restart.MaxAttempts = &attempts
	}
	if c.Restart.InitialInterval == 0 {
		c.Restart.InitialInterval = 200 * time.Millisecond
	}
	if c.Restart.MaxInterval == 0 {
		c.Restart.MaxInterval = 5 * time.Second
	}
	if c.Restart.StableAfter == 0 {
		c.Restart.StableAfter = time.Minute
	}

	return nil
}

// Attempts returns the restart budget, 0 when MaxAttempts is unset.
func (r RestartConfig) Attempts() int {
	if r.MaxAttempts == nil {
		return 0
	}
	return *r.MaxAttempts
}
