package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpression(t *testing.T) {
	e := Expression{Text: "constraints.budget"}
	assert.Equal(t, "@{constraints.budget}", e.String())
	assert.Equal(t, "constraints", e.Root())
	assert.Equal(t, "query", Expression{Text: "query"}.Root())
}

func TestTemplateFindAll(t *testing.T) {
	tpl := New("Question: @{query}\nBudget: @{ constraints.budget }@{}\n@{context}")
	expressions := tpl.FindAll()
	assert.Equal(t, []Expression{
		{Text: "query"},
		{Text: "constraints.budget"},
		{Text: "context"},
	}, expressions)

	assert.Empty(t, New("no expression here").FindAll())
}

func TestTemplateResolve(t *testing.T) {
	m := map[string]interface{}{
		"query": "expand to EU?",
		"constraints": map[string]interface{}{
			"budget": 250000,
		},
		"lines": []string{"a", "b"},
	}

	t.Run("map", func(t *testing.T) {
		res, err := New("Q: @{query} (@{constraints.budget})\n@{lines}").Resolve(ResolveWithMap(m))
		require.NoError(t, err)
		assert.Equal(t, "Q: expand to EU? (250000)\na\nb", res)
	})

	t.Run("nodep", func(t *testing.T) {
		res, err := New("plain @{} text").Resolve(ResolveWithMap(m))
		require.NoError(t, err)
		assert.Equal(t, "plain @{} text", res)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := New("@{query} @{missing}").Resolve(ResolveWithMap(m))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "@{missing}")
	})

	t.Run("custom_resolver", func(t *testing.T) {
		resolver := func(e Expression) (interface{}, error) {
			if e.Text == "err" {
				return nil, errors.New("boom")
			}
			return strings.ToUpper(e.Text), nil
		}
		res, err := New("@{foo}-@{bar}").Resolve(resolver)
		require.NoError(t, err)
		assert.Equal(t, "FOO-BAR", res)

		_, err = New("@{foo}-@{err}").Resolve(resolver)
		require.Error(t, err)
	})
}
