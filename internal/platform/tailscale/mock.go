package tailscale

import "context"

// MockClient is a func-field mock of Client. The zero value behaves like a
// host with tailscale already installed, stopped, and never joined.
type MockClient struct {
	InstalledFunc     func() bool
	InstallFunc       func(ctx context.Context) error
	EnableServiceFunc func(ctx context.Context) error
	UpFunc            func(ctx context.Context, opts UpOptions) error
	StatusFunc        func(ctx context.Context) (Status, error)

	InstallCalls int
	EnableCalls  int
	UpCalls      []UpOptions
}

// Installed implements Client.
func (m *MockClient) Installed() bool {
	if m.InstalledFunc != nil {
		return m.InstalledFunc()
	}
	return true
}

// Install implements Client.
func (m *MockClient) Install(ctx context.Context) error {
	m.InstallCalls++
	if m.InstallFunc != nil {
		return m.InstallFunc(ctx)
	}
	return nil
}

// EnableService implements Client.
func (m *MockClient) EnableService(ctx context.Context) error {
	m.EnableCalls++
	if m.EnableServiceFunc != nil {
		return m.EnableServiceFunc(ctx)
	}
	return nil
}

// Up implements Client.
func (m *MockClient) Up(ctx context.Context, opts UpOptions) error {
	m.UpCalls = append(m.UpCalls, opts)
	if m.UpFunc != nil {
		return m.UpFunc(ctx, opts)
	}
	return nil
}

// Status implements Client.
func (m *MockClient) Status(ctx context.Context) (Status, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return Status{BackendState: "Stopped"}, nil
}

// RunningStatus builds a Status for a joined node, for tests.
func RunningStatus(ipv4, hostname string) Status {
	var s Status
	s.BackendState = BackendRunning
	s.Self.TailscaleIPs = []string{ipv4, "fd7a:115c:a1e0::1"}
	s.Self.HostName = hostname
	return s
}

var _ Client = (*MockClient)(nil)
