package hardening

import (
	"fmt"

	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// keyOnlyConditions are the assertions made against the daemon's merged
// configuration after the key-only policy is applied.
var keyOnlyConditions = []struct {
	keyword string
	want    string
}{
	{"passwordauthentication", "no"},
	{"kbdinteractiveauthentication", "no"},
	{"authenticationmethods", "publickey"},
}

// Verifier asserts the intended policy took effect in the live daemon.
//
// It queries the daemon's merged view rather than re-reading files: fragments
// override each other, so the fragment written by the engine proves nothing on
// its own. The write step alone is not trusted.
type Verifier struct{}

// Name implements provisioning.Stage.
func (v *Verifier) Name() string { return "verify" }

// Provision implements provisioning.Stage.
func (v *Verifier) Provision(ctx *provisioning.Context) (provisioning.Result, error) {
	if ctx.Config.AllowPasswordAuth {
		provisioning.LogWarning(ctx.Observer, v.Name(),
			"password authentication allowed by request; key-only verification skipped")
		return provisioning.Skipped("password-permitted policy requested"), nil
	}

	effective, err := ctx.SSHD.EffectiveConfig(ctx)
	if err != nil {
		return provisioning.Result{}, &provisioning.ExternalToolError{Tool: "sshd -T", Err: err}
	}

	var unmet []string
	for _, cond := range keyOnlyConditions {
		if got := effective.Value(cond.keyword); got != cond.want {
			unmet = append(unmet, fmt.Sprintf("%s is %q, want %q", cond.keyword, got, cond.want))
		}
	}
	if len(unmet) > 0 {
		return provisioning.Result{}, &provisioning.VerificationError{Unmet: unmet}
	}

	return provisioning.Success("effective configuration matches key-only policy"), nil
}

var _ provisioning.Stage = (*Verifier)(nil)
