package commands

import (
	"github.com/spf13/cobra"

	"github.com/hardenlab/nodeprep/cmd/nodeprep/handlers"
	"github.com/hardenlab/nodeprep/internal/config"
)

// Init returns the command that interactively generates nodeprep.yaml.
func Init() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		Long: `Create a nodeprep.yaml configuration file through an interactive wizard.

The wizard asks for the login account, the public key to install, and the
overlay and SSH policy settings. The overlay join credential is never written
to the file; it is read from NODEPREP_AUTHKEY at provisioning time.

Examples:
  nodeprep init
  nodeprep init -o staging.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", config.DefaultFileName, "Output file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
