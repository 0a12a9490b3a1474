package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExecRunner implements Runner using os/exec against the local host.
type ExecRunner struct {
	// Logger receives one line per executed command when non-nil.
	Logger interface{ Printf(format string, v ...interface{}) }
}

// NewExecRunner creates a Runner for the local host.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// ExitError indicates a command ran to completion with a non-zero status.
type ExitError struct {
	Cmd    string
	Output Output
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Cmd, e.Output.ExitCode)
	if stderr := strings.TrimSpace(e.Output.Stderr); stderr != "" {
		msg += ": " + firstLine(stderr)
	}
	return msg
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	if r.Logger != nil {
		r.Logger.Printf("exec: %s", cmd)
	}

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...) // #nosec G204
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, &ExitError{Cmd: cmd.String(), Output: out}
	default:
		out.ExitCode = -1
		return out, fmt.Errorf("failed to run %s: %w", cmd.Name, err)
	}
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
