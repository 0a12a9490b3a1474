package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hardenlab/nodeprep/internal/util/sshkey"
)

// LoadFile reads and parses the configuration from a YAML file and applies
// defaults. It does not validate; flag overrides are applied first and
// Validate runs on the merged result.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// FindConfigFile returns the default config path when present in the working
// directory, or an error when no config exists.
func FindConfigFile() (string, error) {
	if _, err := os.Stat(DefaultFileName); err != nil {
		return "", fmt.Errorf("%s not found", DefaultFileName)
	}
	return DefaultFileName, nil
}

// ApplyDefaults fills the zero-valued scalar fields.
func (c *Config) ApplyDefaults() {
	if c.SSHPort == 0 {
		c.SSHPort = DefaultSSHPort
	}
	if c.MeshCIDR == "" {
		c.MeshCIDR = DefaultMeshCIDR
	}
}

// ResolvePublicKey normalizes the inline key, or loads it from
// PublicKeyPath, so that every stage sees one validated literal key line.
func (c *Config) ResolvePublicKey() error {
	if c.PublicKey != "" {
		key, err := sshkey.Normalize(c.PublicKey)
		if err != nil {
			return err
		}
		c.PublicKey = key
		return nil
	}

	key, err := sshkey.ReadFile(c.PublicKeyPath)
	if err != nil {
		return err
	}
	c.PublicKey = key
	return nil
}
