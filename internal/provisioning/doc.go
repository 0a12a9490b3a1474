// Package provisioning provides shared types, interfaces, and orchestration
// for the host provisioning pipeline.
//
// # Subpackages
//
//   - preflight/: platform identity and prerequisite checks
//   - packages/: baseline package installation
//   - account/: login account creation and group membership
//   - authkeys/: authorized-key installation
//   - overlay/: mesh network client install and join
//   - hardening/: SSH policy fragment write and effective-config gate
//
// # Core Types
//
// Context carries configuration, accumulated state, the host capability
// clients, and the observer. Stage defines one pipeline step with Name() and
// Provision() methods; Provision returns a Result (success or skipped) or an
// error. The Pipeline runs stages strictly in order and halts at the first
// failure: every stage either completes idempotently, is explicitly skipped,
// or stops the run before any later, more dangerous stage executes. There is
// no rollback of earlier stages: reverting security mutations is not safer
// than leaving them, and a half-reverted SSH policy is itself a risk.
package provisioning
