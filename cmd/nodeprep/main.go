// Package main is the entry point for the nodeprep CLI.
//
// nodeprep turns a fresh Ubuntu host into a hardened node: it installs a
// baseline tool set, provisions a login account with an authorized key,
// joins the host to a Tailscale mesh, and locks SSH down to key-only
// authentication, verifying the daemon's effective configuration afterwards.
//
// Commands: provision, init, verify, lockdown, version, completion.
//
// For detailed usage information, run:
//
//	nodeprep --help
package main

import (
	"fmt"
	"os"

	"github.com/hardenlab/nodeprep/cmd/nodeprep/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
