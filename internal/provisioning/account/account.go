// Package account ensures the target login account exists with the intended
// group membership.
package account

import (
	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// SudoGroup is the privileged group granted when add_sudo_group is enabled.
const SudoGroup = "sudo"

// Stage creates the account if permitted and asserts group membership.
type Stage struct{}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return "account" }

// Provision implements provisioning.Stage.
func (s *Stage) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	name := ctx.Config.User

	acct, exists, err := ctx.Accounts.Lookup(ctx, name)
	if err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "getent", Err: err}
	}

	if !exists {
		if !ctx.Config.ShouldCreateUser() {
			return provisioning.Result{}, &provisioning.MissingAccountError{User: name}
		}
		acct, err = ctx.Accounts.Create(ctx, name)
		if err != nil {
			return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "useradd", Err: err}
		}
		ctx.State.AccountCreated = true
		ctx.Observer.Event(provisioning.Event{
			Type:    provisioning.EventChangeApplied,
			Stage:   s.Name(),
			Message: "created account " + name,
		})
	} else {
		ctx.Observer.Event(provisioning.Event{
			Type:    provisioning.EventChangeUnneeded,
			Stage:   s.Name(),
			Message: "account " + name + " already exists",
		})
	}

	if ctx.Config.ShouldAddSudoGroup() {
		added, err := ctx.Accounts.EnsureGroup(ctx, name, SudoGroup)
		if err != nil {
			return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "usermod", Err: err}
		}
		if added {
			ctx.Observer.Event(provisioning.Event{
				Type:    provisioning.EventChangeApplied,
				Stage:   s.Name(),
				Message: "added " + name + " to " + SudoGroup,
			})
		}
	}

	ctx.State.Account = acct
	if ctx.State.AccountCreated {
		return provisioning.Successf("created %s (home %s)", acct.Name, acct.Home), nil
	}
	return provisioning.Successf("%s already present (home %s)", acct.Name, acct.Home), nil
}

var _ provisioning.Stage = (*Stage)(nil)
