// Package host provides the command execution capability for the local host.
//
// Every mutation this tool performs happens through an external command
// (apt-get, useradd, tailscale, systemctl, sshd), so all of them flow through
// the Runner interface. Higher-level platform clients (apt, accounts, sshd,
// tailscale, ufw) wrap a Runner; unit tests substitute MockRunner and never
// touch the real system.
package host

import (
	"context"
	"strings"
)

// Command describes one external command invocation.
type Command struct {
	// Name is the binary to run, resolved via PATH.
	Name string

	// Args are the command arguments, passed verbatim (no shell).
	Args []string

	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string

	// Stdin is written to the process's standard input when non-empty.
	Stdin string
}

// String renders the command for log output.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Output captures the result of a completed command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes commands on the host.
type Runner interface {
	// Run executes the command and blocks until it exits. A non-zero exit
	// status is returned as an error wrapping the Output.
	Run(ctx context.Context, cmd Command) (Output, error)

	// LookPath reports the absolute path of a binary, or an error if it is
	// not present in PATH.
	LookPath(name string) (string, error)
}
