package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hardenlab/nodeprep/internal/config"
)

// WriteConfig writes the config to a YAML file with a descriptive header.
func WriteConfig(cfg *config.Config, outputPath string) error {
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func generateHeader(outputPath string) string {
	return fmt.Sprintf(`# nodeprep configuration
# Generated by 'nodeprep init' on %s
#
# The overlay join credential is read from NODEPREP_AUTHKEY (or TS_AUTHKEY)
# at run time and is never written to this file.
#
# Usage: sudo nodeprep provision -c %s
`, time.Now().Format("2006-01-02"), outputPath)
}
