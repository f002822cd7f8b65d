package trial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/example/turboci-repeated/repeated/domain"
)

// maxFailureOutput bounds how much command output is kept in a failure.
const maxFailureOutput = 4096

// waitDelay bounds how long a killed command may hold its output pipes open.
const waitDelay = 2 * time.Second

// Command is an Executor that runs a shell command as the test body.
// A non-zero exit status is an assertion failure. A timeout, cancellation
// or failure to start the command is unexpected.
type Command struct {
	// Command is the command line to execute.
	Command string

	// Shell is the shell to use for executing commands.
	// Default: "/bin/sh"
	Shell string

	// ShellArg is the argument to pass to the shell before the command.
	// Default: "-c"
	ShellArg string

	// Timeout is the maximum time a single trial may take. Zero disables it.
	Timeout time.Duration

	// Environment contains additional environment variables.
	Environment map[string]string

	// WorkDir is the working directory (default is the current directory).
	WorkDir string

	// Output receives stdout and stderr as the command produces them.
	// Default: os.Stdout at the time the trial starts, so the runner can
	// capture or pass it through.
	Output io.Writer
}

// NewCommand creates a Command for the given command line.
func NewCommand(command string) *Command {
	return &Command{
		Command:  command,
		Shell:    "/bin/sh",
		ShellArg: "-c",
	}
}

// CommandError is an infrastructure failure of a command trial.
type CommandError struct {
	Trial  int
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("trial %d: %v", e.Trial, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// RunTrial implements Executor.
func (c *Command) RunTrial(ctx context.Context, index int) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	shell := c.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	shellArg := c.ShellArg
	if shellArg == "" {
		shellArg = "-c"
	}

	cmd := exec.CommandContext(ctx, shell, shellArg, c.Command)
	cmd.Dir = c.WorkDir
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), c.environ()...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("REPEATED_TRIAL=%d", index))

	live := c.Output
	if live == nil {
		live = os.Stdout
	}
	var buf bytes.Buffer
	// One writer for both streams keeps them on a single pipe.
	w := io.MultiWriter(live, &buf)
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	output := buf.Bytes()

	if ctx.Err() != nil {
		return &CommandError{
			Trial:  index,
			Output: string(output),
			Err:    fmt.Errorf("command cancelled or timed out: %w", ctx.Err()),
		}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return domain.Assertionf("command exited with status %d\n%s",
			exitErr.ExitCode(), tail(string(output), maxFailureOutput))
	}
	if err != nil {
		return &CommandError{Trial: index, Output: string(output), Err: err}
	}
	return nil
}

func (c *Command) environ() []string {
	keys := make([]string, 0, len(c.Environment))
	for k := range c.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, c.Environment[k]))
	}
	return env
}

func tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
