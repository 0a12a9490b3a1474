// Package accounts manages local Linux user accounts and their authorized
// SSH keys.
//
// The Manager capability covers account existence, creation and group
// membership via the standard shadow-utils commands; the KeyStore capability
// covers the authorized_keys file. Both are deliberately narrow so the
// pipeline stages using them can be tested against fakes.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hardenlab/nodeprep/internal/platform/host"
)

// Account describes a local user account.
type Account struct {
	Name string
	Home string
}

// Manager is the account management capability used by the pipeline.
type Manager interface {
	// Lookup returns the account if it exists. Absence is not an error;
	// it is reported through the bool.
	Lookup(ctx context.Context, name string) (Account, bool, error)

	// Create creates a standard (non-system) account with a home directory
	// and no password set. Key-based SSH is the only intended entry path.
	Create(ctx context.Context, name string) (Account, error)

	// EnsureGroup ensures the account is a member of the named group.
	// Re-asserting an existing membership is a no-op.
	EnsureGroup(ctx context.Context, name, group string) (added bool, err error)

	// ChownRecursive transfers ownership of a path to the account.
	ChownRecursive(ctx context.Context, path, name string) error
}

// Client implements Manager over a host.Runner.
type Client struct {
	runner host.Runner
}

// New creates an account manager client.
func New(runner host.Runner) *Client {
	return &Client{runner: runner}
}

// Lookup implements Manager using getent, which consults the full NSS
// account database rather than just /etc/passwd.
func (c *Client) Lookup(ctx context.Context, name string) (Account, bool, error) {
	out, err := c.runner.Run(ctx, host.Command{Name: "getent", Args: []string{"passwd", name}})
	if err != nil {
		var exitErr *host.ExitError
		if errors.As(err, &exitErr) && exitErr.Output.ExitCode == 2 {
			// getent exits 2 when the key is not found.
			return Account{}, false, nil
		}
		return Account{}, false, fmt.Errorf("failed to look up account %s: %w", name, err)
	}

	account, err := parsePasswdEntry(out.Stdout)
	if err != nil {
		return Account{}, false, fmt.Errorf("failed to parse passwd entry for %s: %w", name, err)
	}
	return account, true, nil
}

// Create implements Manager.
func (c *Client) Create(ctx context.Context, name string) (Account, error) {
	_, err := c.runner.Run(ctx, host.Command{
		Name: "useradd",
		Args: []string{"--create-home", "--shell", "/bin/bash", name},
	})
	if err != nil {
		return Account{}, fmt.Errorf("failed to create account %s: %w", name, err)
	}

	account, ok, err := c.Lookup(ctx, name)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, fmt.Errorf("account %s missing immediately after creation", name)
	}
	return account, nil
}

// EnsureGroup implements Manager.
func (c *Client) EnsureGroup(ctx context.Context, name, group string) (bool, error) {
	out, err := c.runner.Run(ctx, host.Command{Name: "id", Args: []string{"-nG", name}})
	if err != nil {
		return false, fmt.Errorf("failed to read groups for %s: %w", name, err)
	}
	for _, g := range strings.Fields(out.Stdout) {
		if g == group {
			return false, nil
		}
	}

	_, err = c.runner.Run(ctx, host.Command{Name: "usermod", Args: []string{"-aG", group, name}})
	if err != nil {
		return false, fmt.Errorf("failed to add %s to group %s: %w", name, group, err)
	}
	return true, nil
}

// ChownRecursive implements Manager.
func (c *Client) ChownRecursive(ctx context.Context, path, name string) error {
	owner := fmt.Sprintf("%s:%s", name, name)
	_, err := c.runner.Run(ctx, host.Command{Name: "chown", Args: []string{"-R", owner, path}})
	if err != nil {
		return fmt.Errorf("failed to chown %s to %s: %w", path, owner, err)
	}
	return nil
}

// parsePasswdEntry extracts name and home from a passwd(5) line.
func parsePasswdEntry(entry string) (Account, error) {
	fields := strings.Split(strings.TrimSpace(entry), ":")
	if len(fields) < 6 {
		return Account{}, fmt.Errorf("malformed passwd entry %q", strings.TrimSpace(entry))
	}
	return Account{Name: fields[0], Home: fields[5]}, nil
}

var _ Manager = (*Client)(nil)
