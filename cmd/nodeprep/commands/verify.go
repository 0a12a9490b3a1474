package commands

import (
	"github.com/spf13/cobra"

	"github.com/hardenlab/nodeprep/cmd/nodeprep/handlers"
)

// Verify returns the command that checks the live daemon against the
// key-only policy without mutating anything.
func Verify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the daemon's effective SSH configuration is key-only",
		Long: `Query the running SSH daemon for its fully merged configuration and
assert that password authentication is disabled, keyboard-interactive
authentication is disabled, and public key is the only accepted
authentication method.

This is the same gate the provisioning pipeline applies after hardening;
run it standalone to detect drift.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context())
		},
	}
}
