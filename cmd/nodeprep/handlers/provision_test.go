package handlers

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/accounts"
	"github.com/hardenlab/nodeprep/internal/platform/apt"
	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/platform/sshd"
	"github.com/hardenlab/nodeprep/internal/platform/tailscale"
	"github.com/hardenlab/nodeprep/internal/provisioning"
)

func writeKeyFile(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	require.NoError(t, os.WriteFile(path, ssh.MarshalAuthorizedKey(sshPub), 0o600))
	return path
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodeprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveConfigFlagsOnly(t *testing.T) {
	keyPath := writeKeyFile(t)
	cfg, err := resolveConfig(ProvisionOptions{User: "alice", PublicKeyPath: keyPath})
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User)
	assert.NotEmpty(t, cfg.PublicKey, "key must be resolved to its literal line")
	assert.Equal(t, config.DefaultMeshCIDR, cfg.MeshCIDR)
}

func TestResolveConfigFlagOverridesFile(t *testing.T) {
	keyPath := writeKeyFile(t)
	configPath := writeConfigFile(t, "user: bob\npublic_key_path: "+keyPath+"\nallow_password_auth: true\n")

	falseVal := false
	cfg, err := resolveConfig(ProvisionOptions{
		ConfigPath:        configPath,
		User:              "alice",
		AllowPasswordAuth: &falseVal,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User, "flag wins over file")
	assert.False(t, cfg.AllowPasswordAuth, "explicit flag wins over file")
}

func TestResolveConfigFileValuesSurviveWithoutFlags(t *testing.T) {
	keyPath := writeKeyFile(t)
	configPath := writeConfigFile(t, "user: bob\npublic_key_path: "+keyPath+"\ncreate_user: false\n")

	cfg, err := resolveConfig(ProvisionOptions{ConfigPath: configPath})
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.User)
	assert.False(t, cfg.ShouldCreateUser())
}

func TestResolveConfigMissingUserIsInputError(t *testing.T) {
	_, err := resolveConfig(ProvisionOptions{PublicKeyPath: writeKeyFile(t)})
	var inputErr *provisioning.InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestResolveConfigUnreadableKeyIsInputError(t *testing.T) {
	_, err := resolveConfig(ProvisionOptions{
		User:          "alice",
		PublicKeyPath: filepath.Join(t.TempDir(), "missing.pub"),
	})
	var inputErr *provisioning.InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestResolveConfigBadConfigFileIsInputError(t *testing.T) {
	configPath := writeConfigFile(t, "user: [not, a, string\n")
	_, err := resolveConfig(ProvisionOptions{ConfigPath: configPath})
	var inputErr *provisioning.InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestLookupAuthKeyPrecedence(t *testing.T) {
	orig := getenv
	defer func() { getenv = orig }()

	env := map[string]string{"NODEPREP_AUTHKEY": "primary", "TS_AUTHKEY": "fallback"}
	getenv = func(name string) string { return env[name] }
	assert.Equal(t, "primary", lookupAuthKey())

	delete(env, "NODEPREP_AUTHKEY")
	assert.Equal(t, "fallback", lookupAuthKey())

	delete(env, "TS_AUTHKEY")
	assert.Empty(t, lookupAuthKey())
}

func TestProvisionRunsPipelineWithAuthKey(t *testing.T) {
	origFind, origNew, origRun, origTTY, origEnv := findConfigFile, newContext, runPipeline, isTerminal, getenv
	defer func() {
		findConfigFile, newContext, runPipeline, isTerminal, getenv = origFind, origNew, origRun, origTTY, origEnv
	}()

	findConfigFile = func() (string, error) { return "", os.ErrNotExist }
	isTerminal = func() bool { return false }
	getenv = func(name string) string {
		if name == "NODEPREP_AUTHKEY" {
			return "tskey-test"
		}
		return ""
	}

	var captured *provisioning.Context
	newContext = func(ctx context.Context, cfg *config.Config, runner host.Runner) *provisioning.Context {
		captured = &provisioning.Context{
			Context:  ctx,
			Config:   cfg,
			State:    &provisioning.State{},
			Runner:   &host.MockRunner{},
			Packages: &apt.MockManager{},
			Accounts: &accounts.MockManager{},
			Keys:     &accounts.MockKeyStore{},
			SSHD:     &sshd.MockController{},
			Mesh:     &tailscale.MockClient{},
			Observer: provisioning.NewConsoleObserver(),
		}
		return captured
	}

	var ranStages []string
	runPipeline = func(pctx *provisioning.Context, stages []provisioning.Stage) (*provisioning.Report, error) {
		report := &provisioning.Report{}
		for _, stage := range stages {
			ranStages = append(ranStages, stage.Name())
			report.Results = append(report.Results, provisioning.Result{
				Stage:  stage.Name(),
				Status: provisioning.StatusSuccess,
			})
		}
		return report, nil
	}

	err := Provision(context.Background(), ProvisionOptions{
		User:          "alice",
		PublicKeyPath: writeKeyFile(t),
		Plain:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, "tskey-test", captured.AuthKey)
	assert.NotEmpty(t, captured.Config.PublicKey)
	assert.Equal(t,
		[]string{"preflight", "packages", "account", "keys", "overlay", "harden", "verify"},
		ranStages, "fixed stage order")
}

func TestProvisionFailureNamesStage(t *testing.T) {
	origFind, origNew, origRun, origTTY := findConfigFile, newContext, runPipeline, isTerminal
	defer func() {
		findConfigFile, newContext, runPipeline, isTerminal = origFind, origNew, origRun, origTTY
	}()

	findConfigFile = func() (string, error) { return "", os.ErrNotExist }
	isTerminal = func() bool { return false }
	newContext = func(ctx context.Context, cfg *config.Config, runner host.Runner) *provisioning.Context {
		return &provisioning.Context{
			Context:  ctx,
			Config:   cfg,
			State:    &provisioning.State{},
			Observer: provisioning.NewConsoleObserver(),
		}
	}
	runPipeline = func(pctx *provisioning.Context, stages []provisioning.Stage) (*provisioning.Report, error) {
		return &provisioning.Report{Results: []provisioning.Result{
			{Stage: "verify", Status: provisioning.StatusFailed, Detail: "policy mismatch"},
		}}, &provisioning.VerificationError{Unmet: []string{"passwordauthentication is yes, want no"}}
	}

	err := Provision(context.Background(), ProvisionOptions{
		User:          "alice",
		PublicKeyPath: writeKeyFile(t),
		Plain:         true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify stage")
	var verifyErr *provisioning.VerificationError
	assert.ErrorAs(t, err, &verifyErr)
}

func TestProvisionDisplayExitIsNotSuccess(t *testing.T) {
	origFind, origNew, origDisplay, origTTY := findConfigFile, newContext, runDisplay, isTerminal
	defer func() {
		findConfigFile, newContext, runDisplay, isTerminal = origFind, origNew, origDisplay, origTTY
	}()

	findConfigFile = func() (string, error) { return "", os.ErrNotExist }
	isTerminal = func() bool { return true }
	newContext = func(ctx context.Context, cfg *config.Config, runner host.Runner) *provisioning.Context {
		return &provisioning.Context{
			Context:  ctx,
			Config:   cfg,
			State:    &provisioning.State{},
			Observer: provisioning.NewConsoleObserver(),
		}
	}
	runDisplay = func(pctx *provisioning.Context, stages []provisioning.Stage) (*provisioning.Report, error) {
		return &provisioning.Report{Results: []provisioning.Result{
			{Stage: "packages", Status: provisioning.StatusFailed, Detail: "context canceled"},
		}}, errors.New("packages stage failed: context canceled")
	}

	err := Provision(context.Background(), ProvisionOptions{
		User:          "alice",
		PublicKeyPath: writeKeyFile(t),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "packages stage")
}

func TestDefaultStagesOrder(t *testing.T) {
	stages := defaultStages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"preflight", "packages", "account", "keys", "overlay", "harden", "verify"}, names)
}
