// Package tailscale wraps the Tailscale client binary.
//
// nodeprep does not speak the Tailscale control protocol itself; all mesh
// exposure is mediated by the vendor's client and daemon. This package only
// installs the client via the vendor bootstrap script, manages its systemd
// unit, and drives `tailscale up` / `tailscale status`.
package tailscale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hardenlab/nodeprep/internal/platform/host"
)

// InstallScriptURL is the vendor-provided bootstrap installer.
const InstallScriptURL = "https://tailscale.com/install.sh"

// BackendRunning is the status reported once the node is joined and online.
const BackendRunning = "Running"

// Status is the subset of `tailscale status --json` the pipeline reads.
type Status struct {
	// BackendState is "NeedsLogin", "Stopped" or "Running".
	BackendState string `json:"BackendState"`

	Self struct {
		// TailscaleIPs holds the node's mesh addresses; the IPv4 entry
		// is in the CGNAT range 100.64.0.0/10.
		TailscaleIPs []string `json:"TailscaleIPs"`
		HostName     string   `json:"HostName"`
	} `json:"Self"`
}

// IPv4 returns the node's CGNAT-range mesh address, if assigned.
func (s Status) IPv4() string {
	for _, ip := range s.Self.TailscaleIPs {
		if !strings.Contains(ip, ":") {
			return ip
		}
	}
	return ""
}

// UpOptions configures a join attempt.
type UpOptions struct {
	// AuthKey is the pre-authorized join credential. Sensitive: it is
	// passed to the client process only and never logged or persisted.
	AuthKey string

	// Hostname overrides the node name advertised to the tailnet.
	Hostname string

	// Timeout is passed to the client, e.g. "120s". The client blocks
	// until joined or the timeout expires.
	Timeout string
}

// Client is the overlay-network capability used by the pipeline.
type Client interface {
	// Installed reports whether the tailscale binary is present.
	Installed() bool

	// Install fetches and runs the vendor bootstrap installer.
	Install(ctx context.Context) error

	// EnableService enables and starts the tailscaled unit.
	EnableService(ctx context.Context) error

	// Up joins the tailnet with the given options.
	Up(ctx context.Context, opts UpOptions) error

	// Status queries the local daemon.
	Status(ctx context.Context) (Status, error)
}

// CLIClient implements Client over a host.Runner.
type CLIClient struct {
	runner host.Runner
}

// New creates a tailscale client.
func New(runner host.Runner) *CLIClient {
	return &CLIClient{runner: runner}
}

// Installed implements Client.
func (c *CLIClient) Installed() bool {
	_, err := c.runner.LookPath("tailscale")
	return err == nil
}

// Install implements Client.
func (c *CLIClient) Install(ctx context.Context) error {
	// The vendor script adds the apt repository and installs the right
	// package for the detected distribution.
	script := fmt.Sprintf("curl -fsSL %s | sh", InstallScriptURL)
	_, err := c.runner.Run(ctx, host.Command{Name: "sh", Args: []string{"-c", script}})
	if err != nil {
		return fmt.Errorf("tailscale install failed: %w", err)
	}
	return nil
}

// EnableService implements Client.
func (c *CLIClient) EnableService(ctx context.Context) error {
	_, err := c.runner.Run(ctx, host.Command{
		Name: "systemctl",
		Args: []string{"enable", "--now", "tailscaled"},
	})
	if err != nil {
		return fmt.Errorf("failed to enable tailscaled: %w", err)
	}
	return nil
}

// Up implements Client.
func (c *CLIClient) Up(ctx context.Context, opts UpOptions) error {
	if opts.AuthKey == "" {
		return fmt.Errorf("auth key is required to join the tailnet")
	}

	args := []string{"up", "--authkey=" + opts.AuthKey}
	if opts.Hostname != "" {
		args = append(args, "--hostname="+opts.Hostname)
	}
	timeout := opts.Timeout
	if timeout == "" {
		timeout = "120s"
	}
	args = append(args, "--timeout="+timeout)

	if _, err := c.runner.Run(ctx, host.Command{Name: "tailscale", Args: args}); err != nil {
		// The auth key may appear in the wrapped ExitError's command
		// line; report a fixed message instead.
		return fmt.Errorf("tailscale up failed (auth key redacted): %s", summarize(err))
	}
	return nil
}

// Status implements Client.
func (c *CLIClient) Status(ctx context.Context) (Status, error) {
	out, err := c.runner.Run(ctx, host.Command{
		Name: "tailscale",
		Args: []string{"status", "--json"},
	})
	if err != nil {
		return Status{}, fmt.Errorf("tailscale status failed: %w", err)
	}

	var status Status
	if err := json.Unmarshal([]byte(out.Stdout), &status); err != nil {
		return Status{}, fmt.Errorf("failed to parse tailscale status: %w", err)
	}
	return status, nil
}

// summarize extracts the stderr tail of a command failure without echoing
// the command line itself.
func summarize(err error) string {
	var exitErr *host.ExitError
	if errors.As(err, &exitErr) {
		if stderr := strings.TrimSpace(exitErr.Output.Stderr); stderr != "" {
			return stderr
		}
		return fmt.Sprintf("exit status %d", exitErr.Output.ExitCode)
	}
	return err.Error()
}

var _ Client = (*CLIClient)(nil)
