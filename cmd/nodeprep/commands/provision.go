package commands

import (
	"github.com/spf13/cobra"

	"github.com/hardenlab/nodeprep/cmd/nodeprep/handlers"
	"github.com/hardenlab/nodeprep/internal/config"
)

// Provision returns the command that runs the full hardening pipeline.
//
// Flags override the config file; the file is optional when --user and --key
// are given.
//
// Environment variables:
//
//	NODEPREP_AUTHKEY (or TS_AUTHKEY): pre-authorized Tailscale join key
func Provision() *cobra.Command {
	var (
		configPath    string
		user          string
		keyPath       string
		hostname      string
		allowPassword bool
		noCreateUser  bool
		noSudoGroup   bool
		noOverlay     bool
		noAutoJoin    bool
		noUpdate      bool
		noBaseTools   bool
		plain         bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Run the full provisioning and hardening pipeline",
		Long: `Run the provisioning pipeline against this host.

Stages: preflight, packages, account, keys, overlay, harden, verify.
The pipeline halts at the first failure and performs no further mutation.

If no config file is specified, it looks for nodeprep.yaml in the current
directory. Use 'nodeprep init' to create a configuration file.

Examples:
  # Provision using nodeprep.yaml in the current directory
  sudo nodeprep provision

  # Provision without a config file
  sudo nodeprep provision --user alice --key ~/.ssh/id_ed25519.pub

  # Join the mesh during provisioning
  sudo NODEPREP_AUTHKEY=tskey-... nodeprep provision`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := handlers.ProvisionOptions{
				ConfigPath: configPath,
				Plain:      plain,
			}
			flags := cmd.Flags()
			if flags.Changed("user") {
				opts.User = user
			}
			if flags.Changed("key") {
				opts.PublicKeyPath = keyPath
			}
			if flags.Changed("hostname") {
				opts.OverlayHostname = hostname
			}
			if flags.Changed("allow-password-auth") {
				opts.AllowPasswordAuth = &allowPassword
			}
			if flags.Changed("no-create-user") {
				opts.CreateUser = config.Bool(!noCreateUser)
			}
			if flags.Changed("no-sudo-group") {
				opts.AddSudoGroup = config.Bool(!noSudoGroup)
			}
			if flags.Changed("no-overlay") {
				opts.InstallOverlay = config.Bool(!noOverlay)
			}
			if flags.Changed("no-auto-join") {
				opts.AutoJoinOverlay = config.Bool(!noAutoJoin)
			}
			if flags.Changed("no-update") {
				opts.UpdatePackages = config.Bool(!noUpdate)
			}
			if flags.Changed("no-base-tools") {
				opts.InstallBaseTools = config.Bool(!noBaseTools)
			}
			return handlers.Provision(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: nodeprep.yaml)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Login account to provision")
	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "Path to the public key to install")
	cmd.Flags().StringVar(&hostname, "hostname", "", "Node name advertised to the mesh")
	cmd.Flags().BoolVar(&allowPassword, "allow-password-auth", false, "Keep password authentication enabled (staged rollout)")
	cmd.Flags().BoolVar(&noCreateUser, "no-create-user", false, "Fail if the account does not already exist")
	cmd.Flags().BoolVar(&noSudoGroup, "no-sudo-group", false, "Do not add the account to the sudo group")
	cmd.Flags().BoolVar(&noOverlay, "no-overlay", false, "Skip overlay network install and join")
	cmd.Flags().BoolVar(&noAutoJoin, "no-auto-join", false, "Install the overlay client but do not join")
	cmd.Flags().BoolVar(&noUpdate, "no-update", false, "Skip package index refresh and upgrade")
	cmd.Flags().BoolVar(&noBaseTools, "no-base-tools", false, "Skip baseline package installation")
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain log output instead of the interactive display")

	return cmd
}
