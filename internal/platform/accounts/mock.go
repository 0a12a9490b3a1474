package accounts

import "context"

// MockManager is a func-field mock of Manager backed by an in-memory account
// table. Nil funcs fall back to the table.
type MockManager struct {
	LookupFunc      func(ctx context.Context, name string) (Account, bool, error)
	CreateFunc      func(ctx context.Context, name string) (Account, error)
	EnsureGroupFunc func(ctx context.Context, name, group string) (bool, error)
	ChownFunc       func(ctx context.Context, path, name string) error

	// Existing seeds the in-memory table.
	Existing map[string]Account

	// Groups records memberships, keyed by account name.
	Groups map[string][]string

	CreateCalls []string
	ChownCalls  []string
}

// Lookup implements Manager.
func (m *MockManager) Lookup(ctx context.Context, name string) (Account, bool, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, name)
	}
	account, ok := m.Existing[name]
	return account, ok, nil
}

// Create implements Manager.
func (m *MockManager) Create(ctx context.Context, name string) (Account, error) {
	m.CreateCalls = append(m.CreateCalls, name)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name)
	}
	account := Account{Name: name, Home: "/home/" + name}
	if m.Existing == nil {
		m.Existing = make(map[string]Account)
	}
	m.Existing[name] = account
	return account, nil
}

// EnsureGroup implements Manager.
func (m *MockManager) EnsureGroup(ctx context.Context, name, group string) (bool, error) {
	if m.EnsureGroupFunc != nil {
		return m.EnsureGroupFunc(ctx, name, group)
	}
	for _, g := range m.Groups[name] {
		if g == group {
			return false, nil
		}
	}
	if m.Groups == nil {
		m.Groups = make(map[string][]string)
	}
	m.Groups[name] = append(m.Groups[name], group)
	return true, nil
}

// ChownRecursive implements Manager.
func (m *MockManager) ChownRecursive(ctx context.Context, path, name string) error {
	m.ChownCalls = append(m.ChownCalls, path+" "+name)
	if m.ChownFunc != nil {
		return m.ChownFunc(ctx, path, name)
	}
	return nil
}

// MockKeyStore is a func-field mock of KeyStore recording installed keys.
type MockKeyStore struct {
	EnsureKeyFunc func(ctx context.Context, account Account, key string) (bool, error)

	// Keys maps account name to installed key lines, in first-seen order.
	Keys map[string][]string
}

// EnsureKey implements KeyStore.
func (m *MockKeyStore) EnsureKey(ctx context.Context, account Account, key string) (bool, error) {
	if m.EnsureKeyFunc != nil {
		return m.EnsureKeyFunc(ctx, account, key)
	}
	for _, k := range m.Keys[account.Name] {
		if k == key {
			return false, nil
		}
	}
	if m.Keys == nil {
		m.Keys = make(map[string][]string)
	}
	m.Keys[account.Name] = append(m.Keys[account.Name], key)
	return true, nil
}

var (
	_ Manager  = (*MockManager)(nil)
	_ KeyStore = (*MockKeyStore)(nil)
)
