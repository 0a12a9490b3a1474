package commands

import (
	"github.com/spf13/cobra"

	"github.com/hardenlab/nodeprep/cmd/nodeprep/handlers"
	"github.com/hardenlab/nodeprep/internal/config"
)

// Lockdown returns the command that restricts the SSH port to the mesh.
//
// This is deliberately not part of the provisioning pipeline: closing the
// public SSH port before mesh access has been confirmed from a second
// session is exactly the lockout the pipeline is designed to avoid.
func Lockdown() *cobra.Command {
	var (
		port int
		cidr string
	)

	cmd := &cobra.Command{
		Use:   "lockdown",
		Short: "Restrict the SSH port to the overlay mesh range via ufw",
		Long: `Restrict inbound SSH to a source range using ufw.

By default port 22 is limited to the Tailscale CGNAT range 100.64.0.0/10,
so the host stops accepting SSH from the public internet.

Run this only after confirming you can reach the host over the mesh from a
second session.

Examples:
  sudo nodeprep lockdown
  sudo nodeprep lockdown --port 2222 --from 100.64.0.0/10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Lockdown(cmd.Context(), port, cidr)
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultSSHPort, "TCP port to restrict")
	cmd.Flags().StringVar(&cidr, "from", config.DefaultMeshCIDR, "Source range to allow")

	return cmd
}
