package hardening

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/sshd"
	"github.com/hardenlab/nodeprep/internal/provisioning"
)

func newContext(cfg *config.Config, controller *sshd.MockController) *provisioning.Context {
	cfg.User = "deploy"
	cfg.PublicKey = "ssh-ed25519 AAAA test"
	cfg.ApplyDefaults()
	return &provisioning.Context{
		Context:  context.Background(),
		Config:   cfg,
		State:    &provisioning.State{},
		SSHD:     controller,
		Observer: provisioning.NewConsoleObserver(),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEngineWritesKeyOnlyFragment(t *testing.T) {
	dir := t.TempDir()
	controller := &sshd.MockController{}
	ctx := newContext(&config.Config{}, controller)

	engine := &Engine{Dir: dir}
	result, err := engine.Provision(ctx)
	require.NoError(t, err)
	assert.Equal(t, provisioning.StatusSuccess, result.Status)

	content, err := os.ReadFile(filepath.Join(dir, FragmentName))
	require.NoError(t, err)
	assert.Equal(t, KeyOnlyFragment, string(content))
	assert.Contains(t, string(content), "PasswordAuthentication no")
	assert.Contains(t, string(content), "AuthenticationMethods publickey")

	assert.Equal(t, 1, controller.CheckCalls)
	assert.Equal(t, 1, controller.ReloadCalls)
	assert.Equal(t, filepath.Join(dir, FragmentName), ctx.State.PolicyPath)
	assert.Empty(t, ctx.State.PolicyBackupPath, "first write needs no backup")
}

func TestEngineWritesPasswordVariantOnRequest(t *testing.T) {
	dir := t.TempDir()
	ctx := newContext(&config.Config{AllowPasswordAuth: true}, &sshd.MockController{})

	_, err := (&Engine{Dir: dir}).Provision(ctx)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, FragmentName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "PasswordAuthentication yes")
	assert.NotContains(t, string(content), "AuthenticationMethods")
}

func TestEngineBacksUpExistingFragment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FragmentName)
	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))

	ctx := newContext(&config.Config{}, &sshd.MockController{})
	engine := &Engine{
		Dir: dir,
		Now: fixedClock(time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)),
	}
	_, err := engine.Provision(ctx)
	require.NoError(t, err)

	backupPath := path + ".20260825T103000.bak"
	assert.Equal(t, backupPath, ctx.State.PolicyBackupPath)
	backup, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "old content\n", string(backup))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, KeyOnlyFragment, string(content))
}

func TestEngineBackupsAccumulate(t *testing.T) {
	dir := t.TempDir()
	ctx := newContext(&config.Config{}, &sshd.MockController{})

	runs := 4
	for i := 0; i < runs; i++ {
		engine := &Engine{
			Dir: dir,
			Now: fixedClock(time.Date(2026, 8, 25, 10, 30, i, 0, time.UTC)),
		}
		_, err := engine.Provision(ctx)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".bak" {
			backups++
		}
	}
	assert.Equal(t, runs-1, backups, "each overwrite leaves one more backup")
}

func TestEngineBackupNameUniqueWithinSameSecond(t *testing.T) {
	dir := t.TempDir()
	ctx := newContext(&config.Config{}, &sshd.MockController{})
	clock := fixedClock(time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		_, err := (&Engine{Dir: dir, Now: clock}).Provision(ctx)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "fragment plus two distinct backups")
}

func TestEngineRestoresPreviousFragmentOnSyntaxFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FragmentName)
	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))

	cause := errors.New("bad directive")
	controller := &sshd.MockController{
		CheckConfigFunc: func(ctx context.Context) error { return cause },
	}
	ctx := newContext(&config.Config{}, controller)

	_, err := (&Engine{Dir: dir}).Provision(ctx)
	var toolErr *provisioning.ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "sshd -t", toolErr.Tool)
	assert.Zero(t, controller.ReloadCalls, "must not reload a broken configuration")

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "old content\n", string(content))
}

func TestEngineRemovesFragmentOnSyntaxFailureWithNoPrior(t *testing.T) {
	dir := t.TempDir()
	controller := &sshd.MockController{
		CheckConfigFunc: func(ctx context.Context) error { return errors.New("bad directive") },
	}
	ctx := newContext(&config.Config{}, controller)

	_, err := (&Engine{Dir: dir}).Provision(ctx)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, FragmentName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEngineReloadFailureIsExternalToolError(t *testing.T) {
	controller := &sshd.MockController{
		ReloadFunc: func(ctx context.Context) error { return errors.New("unit not found") },
	}
	ctx := newContext(&config.Config{}, controller)

	_, err := (&Engine{Dir: t.TempDir()}).Provision(ctx)
	var toolErr *provisioning.ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "systemctl reload", toolErr.Tool)
}

func TestFragmentNameSortsFirst(t *testing.T) {
	// sshd keeps the first obtained value, so the fragment must sort before
	// the distro and cloud-init fragments.
	assert.Less(t, FragmentName, "50-cloud-init.conf")
	assert.Less(t, FragmentName, "60-cloudimg-settings.conf")
}
