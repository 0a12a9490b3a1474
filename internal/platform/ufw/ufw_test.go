package ufw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardenlab/nodeprep/internal/platform/host"
)

func TestClient_RestrictPort(t *testing.T) {
	t.Parallel()
	runner := &host.MockRunner{}
	c := New(runner)

	require.NoError(t, c.RestrictPort(context.Background(), 22, "100.64.0.0/10"))

	calls := runner.CallStrings()
	require.Len(t, calls, 3)
	assert.Equal(t, "ufw allow from 100.64.0.0/10 to any port 22 proto tcp", calls[0])
	assert.Equal(t, "ufw delete allow 22/tcp", calls[1])
	assert.Equal(t, "ufw --force enable", calls[2])
}

func TestClient_RestrictPort_MissingBlanketRuleTolerated(t *testing.T) {
	t.Parallel()
	runner := &host.MockRunner{}
	runner.OnFail("ufw delete allow", "Could not delete non-existent rule")
	c := New(runner)

	assert.NoError(t, c.RestrictPort(context.Background(), 22, "100.64.0.0/10"))
}

func TestClient_RestrictPort_AllowFailureFatal(t *testing.T) {
	t.Parallel()
	runner := &host.MockRunner{}
	runner.OnFail("ufw allow", "ERROR: Bad source address")
	c := New(runner)

	assert.Error(t, c.RestrictPort(context.Background(), 22, "bogus"))
}

func TestClient_RestrictPort_Validation(t *testing.T) {
	t.Parallel()
	c := New(&host.MockRunner{})

	assert.Error(t, c.RestrictPort(context.Background(), 0, "100.64.0.0/10"))
	assert.Error(t, c.RestrictPort(context.Background(), 70000, "100.64.0.0/10"))
	assert.Error(t, c.RestrictPort(context.Background(), 22, ""))
}

func TestClient_Status(t *testing.T) {
	t.Parallel()
	runner := &host.MockRunner{}
	runner.On("ufw status verbose", host.Output{Stdout: "Status: active\n"}, nil)
	c := New(runner)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Status: active", status)
}
