package handlers

import (
	"context"
	"fmt"

	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/platform/ufw"
	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// newFirewall builds the firewall manager (replaceable in tests).
var newFirewall = func(runner host.Runner) ufw.Manager {
	return ufw.New(runner)
}

// Lockdown restricts inbound TCP on port to the given source range and
// enables the firewall. Run only after mesh access has been confirmed from a
// second session; with the default arguments this closes public SSH.
func Lockdown(ctx context.Context, port int, cidr string) error {
	firewall := newFirewall(host.NewExecRunner())

	if err := firewall.RestrictPort(ctx, port, cidr); err != nil {
		return &provisioning.ExternalToolError{Tool: "ufw", Err: err}
	}

	fmt.Printf("Port %d restricted to %s.\n\n", port, cidr)

	status, err := firewall.Status(ctx)
	if err != nil {
		// The restriction already applied; a status failure is not fatal.
		fmt.Printf("Could not read firewall status: %v\n", err)
		return nil
	}
	fmt.Println(status)
	return nil
}
