// Package overlay installs the mesh network client and joins the tailnet.
package overlay

import (
	"fmt"

	"github.com/hardenlab/nodeprep/internal/platform/tailscale"
	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// JoinTimeout is passed to the client; it blocks until joined or expired.
const JoinTimeout = "120s"

// Stage installs tailscale when absent and joins when a credential is present.
// A missing credential is never fatal: installed-but-unjoined is a skip with a
// manual follow-up instruction, so hardening still proceeds.
type Stage struct{}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "overlay" }

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	if !ctx.Config.ShouldInstallOverlay() {
		return provisioning.Skipped("overlay network disabled"), nil
	}

	if !ctx.Mesh.Installed() {
		if err := ctx.Mesh.Install(ctx); err != nil {
			return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "tailscale install", Err: err}
		}
		ctx.Observer.Event(provisioning.Event{
			Type:    provisioning.EventChangeApplied,
			Stage:   s.Name(),
			Message: "installed tailscale client",
		})
	}
	if err := ctx.Mesh.EnableService(ctx); err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "systemctl", Err: err}
	}

	// A status error right after enabling the unit just means the daemon is
	// not up yet; treat it as not joined.
	status, _ := ctx.Mesh.Status(ctx)
	if status.BackendState == tailscale.BackendRunning {
		ctx.State.MeshJoined = true
		ctx.State.MeshIP = status.IPv4()
		return provisioning.Successf("already joined as %s (%s)", status.Self.HostName, ctx.State.MeshIP), nil
	}

	if ctx.AuthKey == "" || !ctx.Config.ShouldAutoJoinOverlay() {
		provisioning.LogWarning(ctx.Observer, s.Name(),
			"node is not joined to the mesh; run `tailscale up` manually")
		return provisioning.Skipped("installed but not joined (no auth key)"), nil
	}

	err := ctx.Mesh.Up(ctx, tailscale.UpOptions{
		AuthKey:  ctx.AuthKey,
		Hostname: ctx.Config.OverlayHostname,
		Timeout:  JoinTimeout,
	})
	if err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "tailscale up", Err: err}
	}

	status, err = ctx.Mesh.Status(ctx)
	if err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "tailscale status", Err: err}
	}
	if status.BackendState != tailscale.BackendRunning {
		return provisioning.Result{}, &provisioning.ExternalToolError{
			Tool: "tailscale",
			Err:  fmt.Errorf("backend state %q after join, want %q", status.BackendState, tailscale.BackendRunning),
		}
	}

	ctx.State.MeshJoined = true
	ctx.State.MeshIP = status.IPv4()
	return provisioning.Successf("joined mesh (%s)", ctx.State.MeshIP), nil
}

var _ provisioning.Stage = (*Stage)(nil)
