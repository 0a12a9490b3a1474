package e2e

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hardenlab/nodeprep/internal/config"
	"github.com/hardenlab/nodeprep/internal/platform/accounts"
	"github.com/hardenlab/nodeprep/internal/platform/apt"
	"github.com/hardenlab/nodeprep/internal/platform/host"
	"github.com/hardenlab/nodeprep/internal/platform/sshd"
	"github.com/hardenlab/nodeprep/internal/platform/tailscale"
	"github.com/hardenlab/nodeprep/internal/provisioning"
	"github.com/hardenlab/nodeprep/internal/provisioning/account"
	"github.com/hardenlab/nodeprep/internal/provisioning/authkeys"
	"github.com/hardenlab/nodeprep/internal/provisioning/hardening"
	"github.com/hardenlab/nodeprep/internal/provisioning/overlay"
	"github.com/hardenlab/nodeprep/internal/provisioning/packages"
	"github.com/hardenlab/nodeprep/internal/provisioning/preflight"
)

const (
	ubuntuRelease = "ID=ubuntu\nVERSION_ID=\"24.04\"\nPRETTY_NAME=\"Ubuntu 24.04.1 LTS\"\n"
	debianRelease = "ID=debian\nVERSION_ID=\"12\"\nPRETTY_NAME=\"Debian GNU/Linux 12\"\n"

	aliceKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIJl3dJkq2bRkKDKkKcYJvZ2l3bPiTCkqUnvxtCEGG0B7 alice@laptop"
)

// harness wires the real stages to fully mocked host capabilities.
type harness struct {
	ctx     *provisioning.Context
	runner  *host.MockRunner
	manager *apt.MockManager
	users   *accounts.MockManager
	keys    *accounts.MockKeyStore
	daemon  *sshd.MockController
	mesh    *tailscale.MockClient

	dropInDir string
	osRelease string
}

func newHarness(cfg *config.Config, osRelease string) *harness {
	dir := GinkgoT().TempDir()
	releasePath := filepath.Join(dir, "os-release")
	Expect(os.WriteFile(releasePath, []byte(osRelease), 0o644)).To(Succeed())

	cfg.ApplyDefaults()
	h := &harness{
		runner:    &host.MockRunner{},
		manager:   &apt.MockManager{},
		users:     &accounts.MockManager{},
		keys:      &accounts.MockKeyStore{},
		daemon:    &sshd.MockController{},
		mesh:      &tailscale.MockClient{},
		dropInDir: filepath.Join(dir, "sshd_config.d"),
		osRelease: releasePath,
	}
	h.ctx = &provisioning.Context{
		Context:  context.Background(),
		Config:   cfg,
		State:    &provisioning.State{},
		Runner:   h.runner,
		Packages: h.manager,
		Accounts: h.users,
		Keys:     h.keys,
		SSHD:     h.daemon,
		Mesh:     h.mesh,
		Observer: provisioning.NewConsoleObserver(),
	}
	return h
}

// run executes the full pipeline in its production order.
func (h *harness) run() (*provisioning.Report, error) {
	pipeline := provisioning.NewPipeline(
		&preflight.Stage{OSReleasePath: h.osRelease, Geteuid: func() int { return 0 }},
		&packages.Stage{},
		&account.Stage{},
		&authkeys.Stage{},
		&overlay.Stage{},
		&hardening.Engine{Dir: h.dropInDir},
		&hardening.Verifier{},
	)
	// Each run starts with fresh transient state, like a new invocation.
	h.ctx.State = &provisioning.State{}
	return pipeline.Run(h.ctx)
}

func (h *harness) fragment() string {
	data, err := os.ReadFile(filepath.Join(h.dropInDir, hardening.FragmentName))
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

func hardenedEffective() sshd.EffectiveConfig {
	return sshd.EffectiveConfig{
		"passwordauthentication":       {"no"},
		"kbdinteractiveauthentication": {"no"},
		"pubkeyauthentication":         {"yes"},
		"authenticationmethods":        {"publickey"},
	}
}

var _ = Describe("fresh host, key-only request", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness(&config.Config{User: "alice", PublicKey: aliceKey}, ubuntuRelease)
		h.daemon.Effective = hardenedEffective()
	})

	It("creates the account, installs the key, hardens, and verifies", func() {
		report, err := h.run()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(BeTrue())

		Expect(h.users.CreateCalls).To(Equal([]string{"alice"}))
		Expect(h.keys.Keys["alice"]).To(Equal([]string{aliceKey}))
		Expect(h.fragment()).To(ContainSubstring("AuthenticationMethods publickey"))
		Expect(h.fragment()).To(ContainSubstring("PasswordAuthentication no"))
		Expect(h.daemon.ReloadCalls).To(Equal(1))
	})
})

var _ = Describe("re-run with the same configuration", func() {
	It("is idempotent: no duplicate account, key, or surprises", func() {
		h := newHarness(&config.Config{User: "alice", PublicKey: aliceKey}, ubuntuRelease)
		h.daemon.Effective = hardenedEffective()

		_, err := h.run()
		Expect(err).NotTo(HaveOccurred())
		report, err := h.run()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(BeTrue())

		Expect(h.users.CreateCalls).To(Equal([]string{"alice"}), "account created exactly once")
		Expect(h.keys.Keys["alice"]).To(Equal([]string{aliceKey}), "key present exactly once")
	})

	It("accumulates one backup per overwrite and never deletes them", func() {
		h := newHarness(&config.Config{User: "alice", PublicKey: aliceKey}, ubuntuRelease)
		h.daemon.Effective = hardenedEffective()

		runs := 3
		for i := 0; i < runs; i++ {
			_, err := h.run()
			Expect(err).NotTo(HaveOccurred())
		}

		entries, err := os.ReadDir(h.dropInDir)
		Expect(err).NotTo(HaveOccurred())
		backups := 0
		for _, e := range entries {
			if filepath.Ext(e.Name()) == ".bak" {
				backups++
			}
		}
		Expect(backups).To(Equal(runs - 1))
	})
})

var _ = Describe("explicit password allowance", func() {
	It("writes the password-permitted variant and skips verification", func() {
		h := newHarness(&config.Config{
			User:              "alice",
			PublicKey:         aliceKey,
			AllowPasswordAuth: true,
		}, ubuntuRelease)

		report, err := h.run()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(BeTrue())

		Expect(h.fragment()).To(ContainSubstring("PasswordAuthentication yes"))
		last := report.Results[len(report.Results)-1]
		Expect(last.Stage).To(Equal("verify"))
		Expect(last.Status).To(Equal(provisioning.StatusSkipped))
	})
})

var _ = Describe("verification mismatch", func() {
	It("fails the run even though the fragment write succeeded", func() {
		h := newHarness(&config.Config{User: "alice", PublicKey: aliceKey}, ubuntuRelease)
		// An external layered configuration forces passwords back on.
		effective := hardenedEffective()
		effective["passwordauthentication"] = []string{"yes"}
		h.daemon.Effective = effective

		report, err := h.run()
		Expect(err).To(HaveOccurred())

		var verifyErr *provisioning.VerificationError
		Expect(errors.As(err, &verifyErr)).To(BeTrue())
		Expect(verifyErr.Unmet).To(HaveLen(1))

		Expect(h.fragment()).To(ContainSubstring("PasswordAuthentication no"),
			"the fragment itself was written correctly")
		failed, ok := report.Failed()
		Expect(ok).To(BeTrue())
		Expect(failed.Stage).To(Equal("verify"))
	})
})

var _ = Describe("unsupported platform", func() {
	It("halts before any mutation", func() {
		h := newHarness(&config.Config{User: "alice", PublicKey: aliceKey}, debianRelease)

		report, err := h.run()
		Expect(err).To(HaveOccurred())

		failed, ok := report.Failed()
		Expect(ok).To(BeTrue())
		Expect(failed.Stage).To(Equal("preflight"))

		Expect(h.manager.UpdateCalls).To(BeZero())
		Expect(h.users.CreateCalls).To(BeEmpty())
		Expect(h.keys.Keys).To(BeEmpty())
		Expect(h.mesh.UpCalls).To(BeEmpty())
		_, statErr := os.Stat(filepath.Join(h.dropInDir, hardening.FragmentName))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})
})

var _ = Describe("missing overlay credential", func() {
	It("skips the join but still hardens and succeeds", func() {
		h := newHarness(&config.Config{User: "alice", PublicKey: aliceKey}, ubuntuRelease)
		h.daemon.Effective = hardenedEffective()
		// h.ctx.AuthKey deliberately left empty.

		report, err := h.run()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Succeeded()).To(BeTrue())

		Expect(h.mesh.UpCalls).To(BeEmpty())
		for _, result := range report.Results {
			if result.Stage == "overlay" {
				Expect(result.Status).To(Equal(provisioning.StatusSkipped))
			}
		}
		Expect(h.daemon.ReloadCalls).To(Equal(1), "hardening still ran")
	})
})
