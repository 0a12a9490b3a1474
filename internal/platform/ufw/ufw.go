// Package ufw wraps the Uncomplicated Firewall tool.
//
// The single capability here, restricting a port to a source range, is
// exposed through `nodeprep lockdown` and is not a pipeline stage: closing
// port 22 to the public internet before the operator has confirmed mesh
// access is exactly the lockout the pipeline exists to avoid.
package ufw

import (
	"context"
	"fmt"
	"strings"

	"github.com/hardenlab/nodeprep/internal/platform/host"
)

// Manager is the firewall capability.
type Manager interface {
	// RestrictPort allows TCP traffic to port only from cidr, removes any
	// blanket allow rule for the port, and enables the firewall.
	RestrictPort(ctx context.Context, port int, cidr string) error

	// Status returns the firewall's verbose status output.
	Status(ctx context.Context) (string, error)
}

// Client implements Manager over a host.Runner.
type Client struct {
	runner host.Runner
}

// New creates a firewall manager.
func New(runner host.Runner) *Client {
	return &Client{runner: runner}
}

// RestrictPort implements Manager.
func (c *Client) RestrictPort(ctx context.Context, port int, cidr string) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	if cidr == "" {
		return fmt.Errorf("source range is required")
	}

	portSpec := fmt.Sprintf("%d", port)
	_, err := c.runner.Run(ctx, host.Command{
		Name: "ufw",
		Args: []string{"allow", "from", cidr, "to", "any", "port", portSpec, "proto", "tcp"},
	})
	if err != nil {
		return fmt.Errorf("failed to allow %s from %s: %w", portSpec, cidr, err)
	}

	// Drop any pre-existing blanket rule for the port. ufw exits non-zero
	// when the rule does not exist, which is the desired end state anyway.
	_, _ = c.runner.Run(ctx, host.Command{
		Name: "ufw",
		Args: []string{"delete", "allow", portSpec + "/tcp"},
	})

	_, err = c.runner.Run(ctx, host.Command{Name: "ufw", Args: []string{"--force", "enable"}})
	if err != nil {
		return fmt.Errorf("failed to enable firewall: %w", err)
	}
	return nil
}

// Status implements Manager.
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, host.Command{Name: "ufw", Args: []string{"status", "verbose"}})
	if err != nil {
		return "", fmt.Errorf("failed to read firewall status: %w", err)
	}
	return strings.TrimSpace(out.Stdout), nil
}

// MockManager is a func-field mock of Manager.
type MockManager struct {
	RestrictPortFunc func(ctx context.Context, port int, cidr string) error
	StatusFunc       func(ctx context.Context) (string, error)

	Restricted []string
}

// RestrictPort implements Manager.
func (m *MockManager) RestrictPort(ctx context.Context, port int, cidr string) error {
	m.Restricted = append(m.Restricted, fmt.Sprintf("%d<-%s", port, cidr))
	if m.RestrictPortFunc != nil {
		return m.RestrictPortFunc(ctx, port, cidr)
	}
	return nil
}

// Status implements Manager.
func (m *MockManager) Status(ctx context.Context) (string, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return "Status: active", nil
}

var (
	_ Manager = (*Client)(nil)
	_ Manager = (*MockManager)(nil)
)
