package executor

import "context"

// Command describes an external command invocation
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the current process environment.
	Env []string
}

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, cmd Command) (string, error)
}
