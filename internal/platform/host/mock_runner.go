package host

import (
	"context"
	"strings"
	"sync"
)

// MockRunner is a scriptable Runner for tests. Responses are matched against
// the rendered command string by prefix, in registration order; unmatched
// commands succeed with empty output so tests only script what they assert.
type MockRunner struct {
	mu sync.Mutex

	// RunFunc overrides all scripted behavior when set.
	RunFunc func(ctx context.Context, cmd Command) (Output, error)

	// LookPathFunc overrides LookPath when set; the default resolves every
	// binary to /usr/bin/<name>.
	LookPathFunc func(name string) (string, error)

	responses []mockResponse
	calls     []Command
}

type mockResponse struct {
	prefix string
	out    Output
	err    error
}

// On scripts the response for commands whose rendered string starts with
// prefix. Later registrations take precedence over earlier ones.
func (m *MockRunner) On(prefix string, out Output, err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{prefix: prefix, out: out, err: err})
	return m
}

// OnFail scripts a non-zero exit for commands matching prefix.
func (m *MockRunner) OnFail(prefix string, stderr string) *MockRunner {
	out := Output{Stderr: stderr, ExitCode: 1}
	return m.On(prefix, out, &ExitError{Cmd: prefix, Output: out})
}

// Run implements Runner.
func (m *MockRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, cmd)
	}

	rendered := cmd.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.responses) - 1; i >= 0; i-- {
		r := m.responses[i]
		if strings.HasPrefix(rendered, r.prefix) {
			return r.out, r.err
		}
	}
	return Output{}, nil
}

// LookPath implements Runner.
func (m *MockRunner) LookPath(name string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(name)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns every command run so far, in order.
func (m *MockRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.calls...)
}

// CallStrings returns the rendered command lines run so far.
func (m *MockRunner) CallStrings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rendered := make([]string, len(m.calls))
	for i, c := range m.calls {
		rendered[i] = c.String()
	}
	return rendered
}

// AssertRan reports whether any executed command starts with prefix.
func (m *MockRunner) AssertRan(prefix string) bool {
	for _, c := range m.CallStrings() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// FailWith returns an error shaped like a command failure, for scripting
// RunFunc implementations.
func FailWith(cmd string, stderr string) error {
	return &ExitError{Cmd: cmd, Output: Output{Stderr: stderr, ExitCode: 1}}
}

var (
	_ Runner = (*MockRunner)(nil)
	_ Runner = (*ExecRunner)(nil)
)
