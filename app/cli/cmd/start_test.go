package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConstraints(t *testing.T) {
	c, err := parseConstraints(nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseConstraints([]string{"budget=2000000", "region = EU", "ratio=0.5", "remote=true", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"budget": 2000000,
		"region": "EU",
		"ratio":  0.5,
		"remote": true,
		"note":   "a=b",
	}, c)

	_, err = parseConstraints([]string{"=x"})
	require.Error(t, err)
	_, err = parseConstraints([]string{"budget"})
	require.Error(t, err)
}

func TestIndex(t *testing.T) {
	i, err := index("line", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, i)
	_, err = index("line", "-1")
	require.Error(t, err)
	_, err = index("line", "first")
	require.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"start", "next", "cancel", "get", "list", "watch", "approve", "reject", "edit", "comment", "resolve", "export", "providers"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("server"))
}
