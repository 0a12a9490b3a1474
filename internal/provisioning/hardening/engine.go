// Package hardening writes the SSH authentication policy fragment and gates
// the run on the daemon's effective configuration.
package hardening

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hardenlab/nodeprep/internal/provisioning"
)

const (
	// DropInDir is the sshd drop-in directory included before the main
	// config body on Debian/Ubuntu.
	DropInDir = "/etc/ssh/sshd_config.d"

	// FragmentName sorts lexicographically first among fragments. sshd
	// keeps the first obtained value per keyword, so the 00- prefix gives
	// this policy precedence over distro and cloud-init fragments.
	FragmentName = "00-nodeprep-hardening.conf"

	backupTimeFormat = "20060102T150405"

	fragmentMode = 0o644
	dropInMode   = 0o755
)

// KeyOnlyFragment is the default policy: public key is the only accepted
// authentication method.
const KeyOnlyFragment = `# Managed by nodeprep. Manual edits are overwritten on the next run.
PasswordAuthentication no
KbdInteractiveAuthentication no
PubkeyAuthentication yes
AuthenticationMethods publickey
`

// PasswordFragment is the explicit opt-out variant for staged rollouts.
const PasswordFragment = `# Managed by nodeprep. Password authentication explicitly allowed.
PasswordAuthentication yes
KbdInteractiveAuthentication yes
PubkeyAuthentication yes
`

// RenderFragment returns the policy fragment for the requested posture.
func RenderFragment(allowPassword bool) string {
	if allowPassword {
		return PasswordFragment
	}
	return KeyOnlyFragment
}

// Engine writes the policy fragment, validates it, and reloads the daemon.
type Engine struct {
	// Dir overrides the drop-in directory, for tests.
	Dir string

	// Now overrides the backup timestamp clock, for tests.
	Now func() time.Time
}

// Name implements provisioning.Stage.
func (e *Engine) Name() string { return "harden" }

// Provision implements provisioning.Stage.
//
// Any existing fragment is copied aside under a timestamped name before the
// overwrite. Backups accumulate and are never pruned here. After writing, the
// configuration is syntax-checked and the daemon reloaded, never restarted: a
// restart could sever the session performing the hardening.
func (e *Engine) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	dir := e.Dir
	if dir == "" {
		dir = DropInDir
	}
	now := e.Now
	if now == nil {
		now = time.Now
	}

	path := filepath.Join(dir, FragmentName)
	desired := RenderFragment(ctx.Config.AllowPasswordAuth)

	previous, readErr := os.ReadFile(path) // #nosec G304
	hadPrevious := readErr == nil
	if hadPrevious {
		backupPath, err := writeBackup(path, previous, now())
		if err != nil {
			return provisioning.Result{}, fmt.Errorf("failed to back up existing policy: %w", err)
		}
		ctx.State.PolicyBackupPath = backupPath
		ctx.Observer.Event(provisioning.Event{
			Type:    provisioning.EventChangeApplied,
			Stage:   e.Name(),
			Message: "backed up existing policy to " + backupPath,
		})
	}

	if err := os.MkdirAll(dir, dropInMode); err != nil {
		return provisioning.Result{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(desired), fragmentMode); err != nil {
		return provisioning.Result{}, fmt.Errorf("failed to write policy fragment: %w", err)
	}

	if err := ctx.SSHD.CheckConfig(ctx); err != nil {
		// Put the previous state back so a broken fragment never reaches
		// the daemon.
		if hadPrevious {
			_ = os.WriteFile(path, previous, fragmentMode)
		} else {
			_ = os.Remove(path)
		}
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "sshd -t", Err: err}
	}

	if err := ctx.SSHD.Reload(ctx); err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "systemctl reload", Err: err}
	}

	ctx.State.PolicyPath = path
	if ctx.Config.AllowPasswordAuth {
		provisioning.LogWarning(ctx.Observer, e.Name(),
			"password authentication remains enabled by request")
		return provisioning.Success("password-permitted policy written, daemon reloaded"), nil
	}
	return provisioning.Success("key-only policy written, daemon reloaded"), nil
}

// writeBackup copies content aside under a timestamped name, suffixing a
// counter when re-runs land inside the same second.
func writeBackup(path string, content []byte, ts time.Time) (string, error) {
	base := fmt.Sprintf("%s.%s.bak", path, ts.Format(backupTimeFormat))
	backupPath := base
	for i := 1; ; i++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = fmt.Sprintf("%s.%d", base, i)
	}
	if err := os.WriteFile(backupPath, content, fragmentMode); err != nil {
		return "", err
	}
	return backupPath, nil
}

var _ provisioning.Stage = (*Engine)(nil)
