// Package authkeys installs the operator's public key for the target account.
package authkeys

import (
	"errors"

	"github.com/hardenlab/nodeprep/internal/provisioning"
	"github.com/hardenlab/nodeprep/internal/util/sshkey"
)

// Stage ensures the configured key line is present exactly once.
type Stage struct{}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "keys" }

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	key := ctx.Config.PublicKey
	if key == "" {
		return provisioning.Result{}, &provisioning.InputError{
			Err: errors.New("no public key resolved"),
		}
	}
	if ctx.State.Account.Name == "" {
		return provisioning.Result{}, &provisioning.MissingAccountError{User: ctx.Config.User}
	}

	added, err := ctx.Keys.EnsureKey(ctx, ctx.State.Account, key)
	if err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "authorized_keys", Err: err}
	}
	ctx.State.KeyAdded = added

	// Log the fingerprint, never the key line itself.
	fingerprint, fpErr := sshkey.Fingerprint(key)
	if fpErr != nil {
		fingerprint = "unknown"
	}
	if added {
		ctx.Observer.Event(provisioning.Event{
			Type:    provisioning.EventChangeApplied,
			Stage:   s.Name(),
			Message: "installed key " + fingerprint,
		})
		return provisioning.Successf("key %s installed for %s", fingerprint, ctx.State.Account.Name), nil
	}
	ctx.Observer.Event(provisioning.Event{
		Type:    provisioning.EventChangeUnneeded,
		Stage:   s.Name(),
		Message: "key " + fingerprint + " already present",
	})
	return provisioning.Successf("key %s already present for %s", fingerprint, ctx.State.Account.Name), nil
}

var _ provisioning.Stage = (*Stage)(nil)
