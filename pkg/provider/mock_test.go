package provider

import (
	"os"
	"testing"
	"time"

	"argos/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockScript(t *testing.T) {
	m := NewMock("A", MockOptions{Response: "default"})
	m.Push(
		Reply{Text: "first"},
		Reply{Err: Fatal(errors.New("bad key"))},
	)
	ctx := context.Background()

	out, err := m.Generate(ctx, Request{Prompt: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	_, err = m.Generate(ctx, Request{Prompt: "p2"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))

	out, err = m.Generate(ctx, Request{Prompt: "p3"})
	require.NoError(t, err)
	assert.Equal(t, "default", out)

	assert.Equal(t, 3, m.Calls())
	reqs := m.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "p2", reqs[1].Prompt)
}

func TestMockOptions(t *testing.T) {
	ctx := context.Background()
	{
		m := NewMock("A", MockOptions{Fail: "down"})
		_, err := m.Generate(ctx, Request{})
		require.Error(t, err)
		assert.False(t, IsFatal(err))
		assert.Contains(t, err.Error(), "down")
	}
	{
		m := NewMock("A", MockOptions{Fail: "bad credentials", Fatal: true})
		_, err := m.Generate(ctx, Request{})
		require.Error(t, err)
		assert.True(t, IsFatal(err))
	}
	{
		m := NewMock("A", MockOptions{})
		out, err := m.Generate(ctx, Request{Prompt: "expand to EU?\nmore"})
		require.NoError(t, err)
		assert.Contains(t, out, "expand to EU?")
		assert.Contains(t, out, "KEY FINDINGS:")
		assert.Contains(t, out, "SCORE:")
	}
}

func TestMockDelay(t *testing.T) {
	m := NewMock("slow", MockOptions{Delay: 500 * time.Millisecond, Response: "late"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Generate(ctx, Request{})
	require.Error(t, err)
	assert.False(t, IsFatal(err))
	assert.True(t, time.Since(start) < 400*time.Millisecond)
}

func TestNew(t *testing.T) {
	t.Run("mock_options", func(t *testing.T) {
		cli, err := New(Config{
			ID:   "m",
			Kind: MockKind,
			Options: map[string]interface{}{
				"response": "hi",
				"delay":    "10ms",
			},
		})
		require.NoError(t, err)
		m, isMock := cli.(*Mock)
		require.True(t, isMock)
		assert.Equal(t, "hi", m.opts.Response)
		assert.Equal(t, 10*time.Millisecond, m.opts.Delay)
	})

	t.Run("unknown_kind", func(t *testing.T) {
		_, err := New(Config{ID: "x", Kind: "carrier-pigeon"})
		require.Error(t, err)
	})

	t.Run("missing_id", func(t *testing.T) {
		_, err := New(Config{Kind: MockKind})
		require.Error(t, err)
	})

	t.Run("all", func(t *testing.T) {
		clients, costs, err := NewAll([]Config{
			{ID: "a", Kind: MockKind, Cost: 3},
			{ID: "b", Kind: MockKind, Cost: 1},
		})
		require.NoError(t, err)
		require.Len(t, clients, 2)
		assert.Equal(t, "a", clients[0].ID())
		assert.Equal(t, map[string]float64{"a": 3, "b": 1}, costs)

		_, _, err = NewAll([]Config{{ID: "a", Kind: MockKind}, {ID: "a", Kind: MockKind}})
		require.Error(t, err)
	})

	t.Run("api_key_env", func(t *testing.T) {
		os.Setenv("ARGOS_TEST_KEY", "from-env")
		defer os.Unsetenv("ARGOS_TEST_KEY")
		c := Config{APIKey: "from-file", APIKeyEnv: "ARGOS_TEST_KEY"}
		assert.Equal(t, "from-env", c.apiKey())
		c.APIKeyEnv = "ARGOS_TEST_MISSING"
		assert.Equal(t, "from-file", c.apiKey())
	})
}
