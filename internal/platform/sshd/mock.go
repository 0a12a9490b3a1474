package sshd

import "context"

// MockController is a func-field mock of Controller. The zero value reports
// an empty effective config and succeeds on check and reload.
type MockController struct {
	EffectiveConfigFunc func(ctx context.Context) (EffectiveConfig, error)
	CheckConfigFunc     func(ctx context.Context) error
	ReloadFunc          func(ctx context.Context) error

	// Effective is returned when EffectiveConfigFunc is nil.
	Effective EffectiveConfig

	ReloadCalls int
	CheckCalls  int
}

// EffectiveConfig implements Controller.
func (m *MockController) EffectiveConfig(ctx context.Context) (EffectiveConfig, error) {
	if m.EffectiveConfigFunc != nil {
		return m.EffectiveConfigFunc(ctx)
	}
	if m.Effective == nil {
		return EffectiveConfig{}, nil
	}
	return m.Effective, nil
}

// CheckConfig implements Controller.
func (m *MockController) CheckConfig(ctx context.Context) error {
	m.CheckCalls++
	if m.CheckConfigFunc != nil {
		return m.CheckConfigFunc(ctx)
	}
	return nil
}

// Reload implements Controller.
func (m *MockController) Reload(ctx context.Context) error {
	m.ReloadCalls++
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return nil
}

var _ Controller = (*MockController)(nil)
