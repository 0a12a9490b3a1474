package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/provisioning"
)

const ubuntuRelease = `PRETTY_NAME="Ubuntu 24.04.1 LTS"
NAME="Ubuntu"
VERSION_ID="24.04"
ID=ubuntu
ID_LIKE=debian
`

const debianRelease = `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
ID=debian
VERSION_ID="12"
`

func writeOSRelease(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newContext(runner *host.MockRunner) *provisioning.Context {
	cfg := &config.Config{User: "deploy", PublicKey: "ssh-ed25519 AAAA test"}
	cfg.ApplyDefaults()
	return &provisioning.Context{
		Context:  context.Background(),
		Config:   cfg,
		State:    &provisioning.State{},
		Runner:   runner,
		Observer: provisioning.NewConsoleObserver(),
	}
}

func root() int    { return 0 }
func nonRoot() int { return 1000 }

func TestPreflightPassesOnSupportedPlatform(t *testing.T) {
	stage := &Stage{OSReleasePath: writeOSRelease(t, ubuntuRelease), Geteuid: root}
	ctx := newContext(&host.MockRunner{})

	result, err := stage.Provision(ctx)
	require.NoError(t, err)
	assert.Equal(t, provisioning.StatusSuccess, result.Status)
	assert.Equal(t, "ubuntu", ctx.State.OS.ID)
	assert.Equal(t, "24.04", ctx.State.OS.VersionID)
}

func TestPreflightRejectsNonRoot(t *testing.T) {
	stage := &Stage{OSReleasePath: writeOSRelease(t, ubuntuRelease), Geteuid: nonRoot}
	ctx := newContext(&host.MockRunner{})

	_, err := stage.Provision(ctx)
	var preflightErr *provisioning.PreflightError
	require.ErrorAs(t, err, &preflightErr)
	assert.Contains(t, preflightErr.Reason, "root")
}

func TestPreflightRejectsUnsupportedPlatform(t *testing.T) {
	stage := &Stage{OSReleasePath: writeOSRelease(t, debianRelease), Geteuid: root}
	runner := &host.MockRunner{}
	ctx := newContext(runner)

	_, err := stage.Provision(ctx)
	var preflightErr *provisioning.PreflightError
	require.ErrorAs(t, err, &preflightErr)
	assert.Equal(t, "debian 12", preflightErr.Detected)

	assert.Empty(t, runner.Calls(), "no commands may run on an unsupported platform")
}

func TestPreflightRejectsMissingOSRelease(t *testing.T) {
	stage := &Stage{
		OSReleasePath: filepath.Join(t.TempDir(), "missing"),
		Geteuid:       root,
	}
	_, err := stage.Provision(newContext(&host.MockRunner{}))
	var preflightErr *provisioning.PreflightError
	require.ErrorAs(t, err, &preflightErr)
}

func TestPreflightRejectsMissingBinary(t *testing.T) {
	stage := &Stage{OSReleasePath: writeOSRelease(t, ubuntuRelease), Geteuid: root}
	runner := &host.MockRunner{
		LookPathFunc: func(name string) (string, error) {
			if name == "useradd" {
				return "", errors.New("not found")
			}
			return "/usr/bin/" + name, nil
		},
	}

	_, err := stage.Provision(newContext(runner))
	var preflightErr *provisioning.PreflightError
	require.ErrorAs(t, err, &preflightErr)
	assert.Contains(t, preflightErr.Reason, "useradd")
}

func TestPreflightRequiresSSHDOnlyWithoutBaseTools(t *testing.T) {
	missingSSHD := func(name string) (string, error) {
		if name == "sshd" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	stage := &Stage{OSReleasePath: writeOSRelease(t, ubuntuRelease), Geteuid: root}

	// The packages stage installs openssh-server, so a console-provisioned
	// host without it must still pass preflight.
	ctx := newContext(&host.MockRunner{LookPathFunc: missingSSHD})
	_, err := stage.Provision(ctx)
	require.NoError(t, err)

	ctx = newContext(&host.MockRunner{LookPathFunc: missingSSHD})
	ctx.Config.InstallBaseTools = config.Bool(false)
	_, err = stage.Provision(ctx)
	var preflightErr *provisioning.PreflightError
	require.ErrorAs(t, err, &preflightErr)
	assert.Contains(t, preflightErr.Reason, "sshd")
}
