package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/config/wizard"
)

// Function variables - can be replaced in tests for dependency injection.
var (
	// runWizard walks the operator through the questions.
	runWizard = wizard.Run

	// writeConfig persists the generated configuration.
	writeConfig = wizard.WriteConfig

	// statFile checks for an existing output file.
	statFile = os.Stat
)

// Init generates a configuration file through the interactive wizard.
func Init(ctx context.Context, outputPath string, force bool) error {
	if outputPath == "" {
		outputPath = config.DefaultFileName
	}

	if _, err := statFile(outputPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", outputPath)
	}

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard aborted: %w", err)
	}

	cfg := result.ToConfig()
	if err := writeConfig(cfg, outputPath); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n\n", outputPath)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Review %s\n", outputPath)
	fmt.Println("  2. Optionally export NODEPREP_AUTHKEY for mesh auto-join")
	fmt.Printf("  3. Run: sudo nodeprep provision -c %s\n", outputPath)
	return nil
}
