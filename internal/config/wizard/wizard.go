// Package wizard drives the interactive generator for nodeprep.yaml.
package wizard

import (
	"context"
	"fmt"
	"regexp"

	"github.com/charmbracelet/huh"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/util/sshkey"
)

var userRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Result holds the answers from the interactive wizard.
type Result struct {
	User            string
	PublicKeyPath   string
	OverlayHostname string

	AllowPasswordAuth bool
	AutoJoinOverlay   bool
	UpdatePackages    bool
}

// Run walks the operator through the provisioning questions.
// The context is used for cancellation support (e.g., Ctrl+C).
func Run(ctx context.Context) (*Result, error) {
	result := &Result{
		AutoJoinOverlay: true,
		UpdatePackages:  true,
	}

	if err := runAccountGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	if err := runOverlayGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	if err := runPolicyGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	return result, nil
}

// runAccountGroup prompts for the login account and its public key.
func runAccountGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("Login account to provision on the host").
				Placeholder("deploy").
				Value(&result.User).
				Validate(validateUser),
			huh.NewInput().
				Title("Public Key Path").
				Description("authorized_keys-format file with the key to install").
				Placeholder("~/.ssh/id_ed25519.pub").
				Value(&result.PublicKeyPath).
				Validate(validateKeyPath),
		).Title("Account"),
	).RunWithContext(ctx)
}

// runOverlayGroup prompts for mesh network settings.
func runOverlayGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Overlay Hostname (Optional)").
				Description("Node name advertised to the tailnet. Leave empty for the system hostname.").
				Value(&result.OverlayHostname),
			huh.NewConfirm().
				Title("Auto-join the mesh?").
				Description("Joins automatically when NODEPREP_AUTHKEY or TS_AUTHKEY is set").
				Value(&result.AutoJoinOverlay),
		).Title("Overlay Network"),
	).RunWithContext(ctx)
}

// runPolicyGroup prompts for the SSH posture and package handling.
func runPolicyGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow password authentication?").
				Description("Default is key-only. Enable only for a staged rollout.").
				Value(&result.AllowPasswordAuth),
			huh.NewConfirm().
				Title("Update packages during provisioning?").
				Value(&result.UpdatePackages),
		).Title("Policy"),
	).RunWithContext(ctx)
}

// ToConfig converts the wizard answers into a provisioning configuration.
func (r *Result) ToConfig() *config.Config {
	cfg := &config.Config{
		User:              r.User,
		PublicKeyPath:     r.PublicKeyPath,
		OverlayHostname:   r.OverlayHostname,
		AllowPasswordAuth: r.AllowPasswordAuth,
		AutoJoinOverlay:   config.Bool(r.AutoJoinOverlay),
		UpdatePackages:    config.Bool(r.UpdatePackages),
	}
	cfg.ApplyDefaults()
	return cfg
}

func validateUser(value string) error {
	if !userRegex.MatchString(value) {
		return fmt.Errorf("1-32 lowercase characters, digits, _ or -")
	}
	return nil
}

func validateKeyPath(value string) error {
	if value == "" {
		return fmt.Errorf("a public key file is required")
	}
	if _, err := sshkey.ReadFile(value); err != nil {
		return err
	}
	return nil
}
