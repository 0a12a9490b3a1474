package provisioning

import (
	"fmt"
	"strings"
)

// PreflightError indicates the host does not match the supported target
// platform or lacks a required tool. Raised before any mutation.
type PreflightError struct {
	Detected string
	Reason   string
}

func (e *PreflightError) Error() string {
	if e.Detected != "" {
		return fmt.Sprintf("preflight mismatch: %s (detected %s)", e.Reason, e.Detected)
	}
	return "preflight mismatch: " + e.Reason
}

// InputError indicates a missing or unreadable required input. Raised before
// any mutation.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "invalid input: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// MissingAccountError indicates the target account is absent and the
// configuration forbids creating it.
type MissingAccountError struct {
	User string
}

func (e *MissingAccountError) Error() string {
	return fmt.Sprintf("account %s does not exist and user creation is disabled", e.User)
}

// ExternalToolError indicates a collaborator command (package manager,
// account tools, mesh client, daemon control) reported failure. Mutations
// from earlier stages stand; the pipeline halts at the current stage.
type ExternalToolError struct {
	Tool string
	Err  error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// VerificationError indicates the daemon's effective configuration does not
// match the intended policy after hardening. The loudest failure in the
// system: the host may look hardened on disk while behaving otherwise.
type VerificationError struct {
	Unmet []string
}

func (e *VerificationError) Error() string {
	return "effective sshd configuration does not match intended policy: " +
		strings.Join(e.Unmet, "; ")
}
