// Package config defines the provisioning configuration and its loading.
//
// A Config is resolved once at startup (file values, then flag overrides,
// then the public key resolved to its literal line) and is treated as
// immutable for the rest of the run. The overlay join credential is
// deliberately not part of Config: it comes from the environment and is
// carried separately so it can never be marshaled or logged.
package config

import (
	"fmt"
	"regexp"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "nodeprep.yaml"

// DefaultMeshCIDR is the CGNAT range Tailscale numbers nodes from.
const DefaultMeshCIDR = "100.64.0.0/10"

// DefaultSSHPort is the port the lockdown command restricts.
const DefaultSSHPort = 22

// AuthKeyEnvVars are checked in order for the overlay join credential.
var AuthKeyEnvVars = []string{"NODEPREP_AUTHKEY", "TS_AUTHKEY"}

// userRegex matches a conventional Linux username.
var userRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Config holds the full provisioning configuration.
type Config struct {
	// User is the login account being provisioned. Required.
	User string `yaml:"user"`

	// PublicKeyPath points to an authorized_keys-format file. Either this
	// or PublicKey must be set.
	PublicKeyPath string `yaml:"public_key_path"`

	// PublicKey is the literal key line. Populated from PublicKeyPath by
	// ResolvePublicKey when empty.
	PublicKey string `yaml:"public_key"`

	// OverlayHostname overrides the node name advertised to the mesh.
	OverlayHostname string `yaml:"overlay_hostname"`

	// CreateUser permits creating the account when absent. Default true.
	CreateUser *bool `yaml:"create_user"`

	// AddSudoGroup grants the account sudo group membership. Default true.
	AddSudoGroup *bool `yaml:"add_sudo_group"`

	// AllowPasswordAuth writes the password-permitted policy variant and
	// skips post-hardening verification. Default false.
	AllowPasswordAuth bool `yaml:"allow_password_auth"`

	// InstallOverlay installs the mesh client when absent. Default true.
	InstallOverlay *bool `yaml:"install_overlay"`

	// AutoJoinOverlay joins the mesh when a credential is present in the
	// environment. Default true.
	AutoJoinOverlay *bool `yaml:"auto_join_overlay"`

	// UpdatePackages refreshes and upgrades packages first. Default true.
	UpdatePackages *bool `yaml:"update_packages"`

	// InstallBaseTools installs the baseline package set. Default true.
	InstallBaseTools *bool `yaml:"install_base_tools"`

	// SSHPort is the daemon port, used by the lockdown command. Default 22.
	SSHPort int `yaml:"ssh_port"`

	// MeshCIDR is the source range lockdown restricts SSH to.
	// Default 100.64.0.0/10.
	MeshCIDR string `yaml:"mesh_cidr"`
}

// ShouldCreateUser reports the effective create_user setting.
func (c *Config) ShouldCreateUser() bool { return boolDefault(c.CreateUser, true) }

// ShouldAddSudoGroup reports the effective add_sudo_group setting.
func (c *Config) ShouldAddSudoGroup() bool { return boolDefault(c.AddSudoGroup, true) }

// ShouldInstallOverlay reports the effective install_overlay setting.
func (c *Config) ShouldInstallOverlay() bool { return boolDefault(c.InstallOverlay, true) }

// ShouldAutoJoinOverlay reports the effective auto_join_overlay setting.
func (c *Config) ShouldAutoJoinOverlay() bool { return boolDefault(c.AutoJoinOverlay, true) }

// ShouldUpdatePackages reports the effective update_packages setting.
func (c *Config) ShouldUpdatePackages() bool { return boolDefault(c.UpdatePackages, true) }

// ShouldInstallBaseTools reports the effective install_base_tools setting.
func (c *Config) ShouldInstallBaseTools() bool { return boolDefault(c.InstallBaseTools, true) }

// Validate checks the configuration for errors that must halt the run before
// any stage executes.
func (c *Config) Validate() error {
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if !userRegex.MatchString(c.User) {
		return fmt.Errorf("invalid username %q", c.User)
	}
	if c.PublicKey == "" && c.PublicKeyPath == "" {
		return fmt.Errorf("a public key is required (public_key or public_key_path)")
	}
	if c.SSHPort < 0 || c.SSHPort > 65535 {
		return fmt.Errorf("invalid ssh_port %d", c.SSHPort)
	}
	return nil
}

func boolDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Bool is a convenience for building configs with explicit flag values.
func Bool(v bool) *bool { return &v }
