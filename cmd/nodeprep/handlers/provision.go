// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework; collaborators are
// injected through package-level function variables.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/provisioning"
	"github.com/hardenlab/nodeprep/internal/provisioning/account"
	"github.com/hardenlab/nodeprep/internal/provisioning/authkeys"
	"github.com/hardenlab/nodeprep/internal/provisioning/hardening"
	"github.com/hardenlab/nodeprep/internal/provisioning/overlay"
	"github.com/hardenlab/nodeprep/internal/provisioning/packages"
	"github.com/hardenlab/nodeprep/internal/provisioning/preflight"
	"github.com/hardenlab/nodeprep/internal/ui/tui"
)

// Function variables - can be replaced in tests for dependency injection.
var (
	// findConfigFile locates the default config file.
	findConfigFile = config.FindConfigFile

	// loadConfigFile loads config from file.
	loadConfigFile = config.LoadFile

	// newContext builds the provisioning context with real host clients.
	newContext = provisioning.NewContext

	// runPipeline executes stages with the plain console observer.
	runPipeline = func(pctx *provisioning.Context, stages []provisioning.Stage) (*provisioning.Report, error) {
		return provisioning.NewPipeline(stages...).Run(pctx)
	}

	// runDisplay executes stages behind the interactive display.
	runDisplay = func(pctx *provisioning.Context, stages []provisioning.Stage) (*provisioning.Report, error) {
		return tui.RunProvision(pctx, stages)
	}

	// isTerminal reports whether stdout is an interactive terminal.
	isTerminal = func() bool { return isatty.IsTerminal(os.Stdout.Fd()) }

	// getenv reads environment variables.
	getenv = os.Getenv
)

// ProvisionOptions carries the flag overrides from the command layer.
// Pointer fields are nil when the corresponding flag was not given, so file
// values survive unless explicitly overridden.
type ProvisionOptions struct {
	ConfigPath string

	User            string
	PublicKeyPath   string
	OverlayHostname string

	AllowPasswordAuth *bool
	CreateUser        *bool
	AddSudoGroup      *bool
	InstallOverlay    *bool
	AutoJoinOverlay   *bool
	UpdatePackages    *bool
	InstallBaseTools  *bool

	// Plain disables the interactive display.
	Plain bool
}

// Provision runs the full hardening pipeline against this host.
//
//  1. Resolves configuration: file values (optional), then flag overrides,
//     then the public key resolved to its literal line.
//  2. Reads the overlay join credential from the environment; it is carried
//     on the context, never on the config.
//  3. Runs the stages strictly in order, halting at the first failure.
//  4. On full success prints the manual next-steps checklist.
func Provision(ctx context.Context, opts ProvisionOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	pctx := newContext(ctx, cfg, host.NewExecRunner())
	pctx.AuthKey = lookupAuthKey()

	stages := defaultStages()

	var report *provisioning.Report
	if isTerminal() && !opts.Plain {
		report, err = runDisplay(pctx, stages)
	} else {
		report, err = runPipeline(pctx, stages)
	}
	if err != nil {
		if report != nil {
			if failed, ok := report.Failed(); ok {
				return fmt.Errorf("provisioning failed at the %s stage: %w", failed.Stage, err)
			}
		}
		return err
	}

	printSuccessChecklist(cfg, pctx.State)
	return nil
}

// defaultStages returns the pipeline in its fixed order.
func defaultStages() []provisioning.Stage {
	return []provisioning.Stage{
		&preflight.Stage{},
		&packages.Stage{},
		&account.Stage{},
		&authkeys.Stage{},
		&overlay.Stage{},
		&hardening.Engine{},
		&hardening.Verifier{},
	}
}

// resolveConfig merges file values and flag overrides and validates the
// result. The config file is optional when the required flags are given.
func resolveConfig(opts ProvisionOptions) (*config.Config, error) {
	cfg := &config.Config{}

	configPath := opts.ConfigPath
	if configPath == "" {
		if path, err := findConfigFile(); err == nil {
			configPath = path
		}
	}
	if configPath != "" {
		loaded, err := loadConfigFile(configPath)
		if err != nil {
			return nil, &provisioning.InputError{Err: err}
		}
		cfg = loaded
	}

	applyOverrides(cfg, opts)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &provisioning.InputError{Err: err}
	}
	if err := cfg.ResolvePublicKey(); err != nil {
		return nil, &provisioning.InputError{Err: err}
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, opts ProvisionOptions) {
	if opts.User != "" {
		cfg.User = opts.User
	}
	if opts.PublicKeyPath != "" {
		cfg.PublicKeyPath = opts.PublicKeyPath
		cfg.PublicKey = ""
	}
	if opts.OverlayHostname != "" {
		cfg.OverlayHostname = opts.OverlayHostname
	}
	if opts.AllowPasswordAuth != nil {
		cfg.AllowPasswordAuth = *opts.AllowPasswordAuth
	}
	if opts.CreateUser != nil {
		cfg.CreateUser = opts.CreateUser
	}
	if opts.AddSudoGroup != nil {
		cfg.AddSudoGroup = opts.AddSudoGroup
	}
	if opts.InstallOverlay != nil {
		cfg.InstallOverlay = opts.InstallOverlay
	}
	if opts.AutoJoinOverlay != nil {
		cfg.AutoJoinOverlay = opts.AutoJoinOverlay
	}
	if opts.UpdatePackages != nil {
		cfg.UpdatePackages = opts.UpdatePackages
	}
	if opts.InstallBaseTools != nil {
		cfg.InstallBaseTools = opts.InstallBaseTools
	}
}

// lookupAuthKey reads the overlay join credential from the environment.
// The value is sensitive: it is carried on the provisioning context only and
// is never logged, marshaled, or persisted.
func lookupAuthKey() string {
	for _, name := range config.AuthKeyEnvVars {
		if value := getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// printSuccessChecklist emits the manual verification steps. Operational
// guidance, not automation: the operator must confirm access from a second
// session before trusting the change.
func printSuccessChecklist(cfg *config.Config, state *provisioning.State) {
	fmt.Printf("\nProvisioning complete on %s.\n\n", state.OS)

	fmt.Println("Before closing this session:")
	if state.MeshJoined {
		fmt.Printf("  1. From another machine on the mesh: ssh %s@%s\n", cfg.User, state.MeshIP)
	} else {
		fmt.Printf("  1. From another machine: ssh %s@<this-host>\n", cfg.User)
		fmt.Println("     (the host is not joined to the mesh; run `tailscale up` to join)")
	}
	fmt.Println("  2. Confirm the new session authenticates with the installed key.")
	fmt.Println("  3. Only then close this session.")

	if cfg.AllowPasswordAuth {
		fmt.Println("\nWarning: password authentication remains enabled by request.")
	} else if state.MeshJoined {
		fmt.Println("\nOnce confirmed, restrict public SSH with: sudo nodeprep lockdown")
	}
	if state.PolicyBackupPath != "" {
		fmt.Printf("\nPrevious SSH policy backed up to %s\n", state.PolicyBackupPath)
	}
	fmt.Println("\nSuperseded authorized keys are never removed automatically; prune them by hand.")
}
