package provisioning

import (
	"context"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/accounts"
	"github.com/hardenlab/nodeprep/internal/platform/apt"
	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/platform/sshd"
	"github.com/hardenlab/nodeprep/internal/platform/tailscale"
	"github.com/hardenlab/nodeprep/internal/util/osinfo"
)

// State holds the shared results of provisioning stages. It is progressively
// populated as each stage completes and read by later stages and the final
// summary.
type State struct {
	// OS is the detected platform identity (populated by preflight).
	OS osinfo.Info

	// Account is the provisioned login account (populated by the account
	// stage).
	Account accounts.Account

	// AccountCreated reports whether this run created the account.
	AccountCreated bool

	// KeyAdded reports whether this run appended the authorized key.
	KeyAdded bool

	// MeshJoined reports whether the node is joined to the overlay.
	MeshJoined bool

	// MeshIP is the node's overlay address when joined.
	MeshIP string

	// PolicyBackupPath is the timestamped backup written before the
	// hardening fragment was overwritten, empty on first write.
	PolicyBackupPath string

	// PolicyPath is the hardening fragment path written by this run.
	PolicyPath string
}

// Context wraps all dependencies and state needed by the pipeline stages.
type Context struct {
	context.Context

	Config *config.Config
	State  *State

	// AuthKey is the overlay join credential from the environment.
	// Sensitive: stages pass it to the mesh client and nothing else.
	AuthKey string

	// Host capability clients.
	Runner   host.Runner
	Packages apt.Manager
	Accounts accounts.Manager
	Keys     accounts.KeyStore
	SSHD     sshd.Controller
	Mesh     tailscale.Client

	Observer Observer
}

// NewContext creates a provisioning context with a console observer.
func NewContext(ctx context.Context, cfg *config.Config, runner host.Runner) *Context {
	accountsClient := accounts.New(runner)
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    &State{},
		Runner:   runner,
		Packages: apt.New(runner),
		Accounts: accountsClient,
		Keys:     accounts.NewFileKeyStore(accountsClient),
		SSHD:     sshd.New(runner),
		Mesh:     tailscale.New(runner),
		Observer: NewConsoleObserver(),
	}
}
