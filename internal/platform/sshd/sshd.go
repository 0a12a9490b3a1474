// Package sshd controls and inspects the OpenSSH daemon.
//
// The Controller capability deliberately exposes the daemon's *effective*
// configuration via `sshd -T` rather than any file contents: sshd merges the
// main config with every drop-in fragment using first-obtained-value
// semantics, so no single file is authoritative. Reload goes through
// systemctl and never restarts the daemon, because a restart would sever the
// session performing the hardening.
package sshd

import (
	"context"
	"fmt"
	"strings"

	"github.com/hardenlab/nodeprep/internal/platform/host"
)

// ServiceName is the systemd unit for the SSH daemon on Debian/Ubuntu.
const ServiceName = "ssh"

// Controller is the daemon-control capability used by the pipeline.
type Controller interface {
	// EffectiveConfig queries the running daemon binary for its fully
	// merged configuration.
	EffectiveConfig(ctx context.Context) (EffectiveConfig, error)

	// CheckConfig validates the on-disk configuration without applying it.
	CheckConfig(ctx context.Context) error

	// Reload asks the daemon to re-read its configuration. Existing
	// sessions survive a reload; they would not survive a restart.
	Reload(ctx context.Context) error
}

// EffectiveConfig is the daemon's resolved configuration: lowercase keyword
// to the values sshd reported, in output order.
type EffectiveConfig map[string][]string

// Value returns the first value for a keyword, or "" when unset.
func (c EffectiveConfig) Value(keyword string) string {
	values := c[strings.ToLower(keyword)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Client implements Controller over a host.Runner.
type Client struct {
	runner host.Runner
}

// New creates an sshd controller.
func New(runner host.Runner) *Client {
	return &Client{runner: runner}
}

// EffectiveConfig implements Controller.
func (c *Client) EffectiveConfig(ctx context.Context) (EffectiveConfig, error) {
	out, err := c.runner.Run(ctx, host.Command{Name: "sshd", Args: []string{"-T"}})
	if err != nil {
		return nil, fmt.Errorf("failed to query effective sshd config: %w", err)
	}
	return ParseEffectiveConfig(out.Stdout), nil
}

// CheckConfig implements Controller.
func (c *Client) CheckConfig(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, host.Command{Name: "sshd", Args: []string{"-t"}}); err != nil {
		return fmt.Errorf("sshd configuration check failed: %w", err)
	}
	return nil
}

// Reload implements Controller.
func (c *Client) Reload(ctx context.Context) error {
	_, err := c.runner.Run(ctx, host.Command{
		Name: "systemctl",
		Args: []string{"reload", ServiceName},
	})
	if err != nil {
		return fmt.Errorf("failed to reload %s: %w", ServiceName, err)
	}
	return nil
}

// ParseEffectiveConfig parses `sshd -T` output. Each line is a lowercase
// keyword followed by its value; repeatable keywords (e.g. hostkey) appear
// once per value.
func ParseEffectiveConfig(output string) EffectiveConfig {
	cfg := make(EffectiveConfig)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		keyword, value, _ := strings.Cut(line, " ")
		keyword = strings.ToLower(keyword)
		cfg[keyword] = append(cfg[keyword], strings.TrimSpace(value))
	}
	return cfg
}

var _ Controller = (*Client)(nil)
