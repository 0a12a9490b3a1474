// Package apt wraps the Debian/Ubuntu package manager.
//
// All operations run apt-get with a non-interactive frontend; a host being
// provisioned over SSH has nobody at a debconf prompt. Installing an already
// installed package is a no-op by apt-get's own semantics, which is what
// makes the Packages stage idempotent without any state tracking here.
package apt

import (
	"context"
	"fmt"

	"github.com/hardenlab/nodeprep/internal/platform/host"
)

// Manager is the package management capability used by the pipeline.
type Manager interface {
	// Update refreshes the package index.
	Update(ctx context.Context) error

	// Upgrade upgrades all installed packages.
	Upgrade(ctx context.Context) error

	// Install ensures the given packages are installed.
	Install(ctx context.Context, packages ...string) error
}

// Client implements Manager over a host.Runner.
type Client struct {
	runner host.Runner
}

// New creates a package manager client.
func New(runner host.Runner) *Client {
	return &Client{runner: runner}
}

var nonInteractive = []string{"DEBIAN_FRONTEND=noninteractive"}

// Update implements Manager.
func (c *Client) Update(ctx context.Context) error {
	_, err := c.runner.Run(ctx, host.Command{
		Name: "apt-get",
		Args: []string{"update"},
		Env:  nonInteractive,
	})
	if err != nil {
		return fmt.Errorf("apt-get update failed: %w", err)
	}
	return nil
}

// Upgrade implements Manager.
func (c *Client) Upgrade(ctx context.Context) error {
	_, err := c.runner.Run(ctx, host.Command{
		Name: "apt-get",
		Args: []string{"upgrade", "-y"},
		Env:  nonInteractive,
	})
	if err != nil {
		return fmt.Errorf("apt-get upgrade failed: %w", err)
	}
	return nil
}

// Install implements Manager.
func (c *Client) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, packages...)
	_, err := c.runner.Run(ctx, host.Command{
		Name: "apt-get",
		Args: args,
		Env:  nonInteractive,
	})
	if err != nil {
		return fmt.Errorf("apt-get install failed: %w", err)
	}
	return nil
}

var _ Manager = (*Client)(nil)
