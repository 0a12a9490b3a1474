// Package preflight validates the host before any mutation happens.
package preflight

import (
	"os"

	"github.com/hardenlab/nodeprep/internal/provisioning"
	"github.com/hardenlab/nodeprep/internal/util/osinfo"
)

// The single supported target platform.
const (
	SupportedID      = "ubuntu"
	SupportedVersion = "24.04"
)

// RequiredBinaries must be resolvable before the pipeline mutates anything.
// Tools installed by later stages (openssh-server, tailscale, ufw) are
// deliberately absent.
var RequiredBinaries = []string{"apt-get", "systemctl", "getent", "useradd", "usermod"}

// Stage checks platform identity, privileges, and host prerequisites.
type Stage struct {
	// OSReleasePath overrides the os-release location, for tests.
	OSReleasePath string

	// Geteuid overrides the effective-uid lookup, for tests.
	Geteuid func() int
}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "preflight" }

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	geteuid := s.Geteuid
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	if geteuid() != 0 {
		return provisioning.Result{}, &provisioning.PreflightError{
			Reason: "must run as root (use sudo)",
		}
	}

	info, err := osinfo.Load(s.OSReleasePath)
	if err != nil {
		return provisioning.Result{}, &provisioning.PreflightError{
			Reason: err.Error(),
		}
	}
	if info.ID != SupportedID || info.VersionID != SupportedVersion {
		return provisioning.Result{}, &provisioning.PreflightError{
			Detected: info.String(),
			Reason:   "unsupported platform, requires " + SupportedID + " " + SupportedVersion,
		}
	}

	binaries := RequiredBinaries
	if !ctx.Config.ShouldInstallBaseTools() {
		// openssh-server is part of the baseline set; when the packages
		// stage will not install it, sshd must already be present.
		binaries = append(append([]string{}, RequiredBinaries...), "sshd")
	}
	for _, binary := range binaries {
		if _, err := ctx.Runner.LookPath(binary); err != nil {
			return provisioning.Result{}, &provisioning.PreflightError{
				Reason: "required binary not found: " + binary,
			}
		}
	}

	ctx.State.OS = info
	return provisioning.Successf("%s, running as root", info), nil
}

var _ provisioning.Stage = (*Stage)(nil)
