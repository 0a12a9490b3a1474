// Package packages installs the baseline tool set.
package packages

import (
	"strings"

	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// Baseline is the package set every provisioned host carries. Installing an
// already installed package is a no-op, so the stage needs no state tracking.
var Baseline = []string{
	"openssh-server",
	"ufw",
	"fail2ban",
	"curl",
	"git",
	"jq",
	"ca-certificates",
}

// Stage refreshes, upgrades, and installs packages per configuration.
type Stage struct{}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "packages" }

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	update := ctx.Config.ShouldUpdatePackages()
	baseTools := ctx.Config.ShouldInstallBaseTools()
	if !update && !baseTools {
		return provisioning.Skipped("package management disabled"), nil
	}

	var done []string
	if update {
		if err := ctx.Packages.Update(ctx); err != nil {
			return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "apt-get update", Err: err}
		}
		if err := ctx.Packages.Upgrade(ctx); err != nil {
			return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "apt-get upgrade", Err: err}
		}
		done = append(done, "updated")
	}
	if baseTools {
		if err := ctx.Packages.Install(ctx, Baseline...); err != nil {
			return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "apt-get install", Err: err}
		}
		done = append(done, "baseline installed")
	}

	return provisioning.Success(strings.Join(done, ", ")), nil
}

var _ provisioning.Stage = (*Stage)(nil)
