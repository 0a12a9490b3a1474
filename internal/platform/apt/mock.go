package apt

import "context"

// MockManager is a func-field mock of Manager. Nil funcs succeed, so tests
// only script the calls they care about.
type MockManager struct {
	UpdateFunc  func(ctx context.Context) error
	UpgradeFunc func(ctx context.Context) error
	InstallFunc func(ctx context.Context, packages ...string) error

	UpdateCalls  int
	UpgradeCalls int
	Installed    [][]string
}

// Update implements Manager.
func (m *MockManager) Update(ctx context.Context) error {
	m.UpdateCalls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx)
	}
	return nil
}

// Upgrade implements Manager.
func (m *MockManager) Upgrade(ctx context.Context) error {
	m.UpgradeCalls++
	if m.UpgradeFunc != nil {
		return m.UpgradeFunc(ctx)
	}
	return nil
}

// Install implements Manager.
func (m *MockManager) Install(ctx context.Context, packages ...string) error {
	m.Installed = append(m.Installed, packages)
	if m.InstallFunc != nil {
		return m.InstallFunc(ctx, packages...)
	}
	return nil
}

var _ Manager = (*MockManager)(nil)
