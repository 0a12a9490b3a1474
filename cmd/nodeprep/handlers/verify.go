package handlers

import (
	"context"
	"fmt"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/platform/sshd"
	"github.com/hardenlab/nodeprep/internal/provisioning"
	"github.com/hardenlab/nodeprep/internal/provisioning/hardening"
)

// newSSHDController builds the daemon controller (replaceable in tests).
var newSSHDController = func(runner host.Runner) sshd.Controller {
	return sshd.New(runner)
}

// Verify runs the effective-config gate standalone against the live daemon.
// It mutates nothing; the same conditions the pipeline's verify stage
// asserts either all hold or the command fails naming the unmet ones.
func Verify(ctx context.Context) error {
	runner := host.NewExecRunner()
	pctx := &provisioning.Context{
		Context:  ctx,
		Config:   &config.Config{},
		State:    &provisioning.State{},
		Runner:   runner,
		SSHD:     newSSHDController(runner),
		Observer: provisioning.NewConsoleObserver(),
	}

	result, err := (&hardening.Verifier{}).Provision(pctx)
	if err != nil {
		return err
	}

	fmt.Printf("OK: %s\n", result.Detail)
	return nil
}
