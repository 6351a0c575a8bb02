package prompt

import (
	"strings"
	"testing"

	"argos/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("tagged_sections", func(t *testing.T) {
		text := `The EU market is large.
It is also fragmented.

KEY FINDINGS:
- Demand is growing
* Competition is moderate

Risks:
1. Regulatory burden
2) Currency exposure

**Recommendations:**
• Start with Germany

SCORE: 7/10`
		res := Parse(text)
		assert.Equal(t, strings.TrimSpace(text), res.Content)
		assert.Equal(t, []string{"The EU market is large.", "It is also fragmented."}, res.Summary)
		assert.Equal(t, []string{"Demand is growing", "Competition is moderate"}, res.KeyFindings)
		assert.Equal(t, []string{"Regulatory burden", "Currency exposure"}, res.Risks)
		assert.Equal(t, []string{"Start with Germany"}, res.Recommendations)
		assert.Equal(t, 7, res.Score)
	})

	t.Run("markdown_headers", func(t *testing.T) {
		text := "## Key Findings\n- a\n### Risk assessment\n- b\n## Recommendation: do it\n**Score**: 9"
		res := Parse(text)
		assert.Equal(t, []string{"a"}, res.KeyFindings)
		assert.Equal(t, []string{"b"}, res.Risks)
		assert.Equal(t, []string{"do it"}, res.Recommendations)
		assert.Equal(t, 9, res.Score)
	})

	t.Run("sentence_is_not_a_header", func(t *testing.T) {
		res := Parse("Risks are limited in this market.\nRISKS:\n- none")
		assert.Equal(t, []string{"Risks are limited in this market."}, res.Summary)
		assert.Equal(t, []string{"none"}, res.Risks)
	})

	t.Run("unparseable", func(t *testing.T) {
		res := Parse("I cannot help with that")
		assert.Equal(t, []string{"I cannot help with that"}, res.Summary)
		assert.NotNil(t, res.KeyFindings)
		assert.Empty(t, res.KeyFindings)
		assert.Empty(t, res.Risks)
		assert.Empty(t, res.Recommendations)
		assert.Equal(t, api.MidScore, res.Score)
	})

	t.Run("empty", func(t *testing.T) {
		res := Parse("")
		assert.Empty(t, res.Summary)
		assert.Equal(t, api.MidScore, res.Score)
	})

	t.Run("score_clamped", func(t *testing.T) {
		assert.Equal(t, api.MaxScore, Parse("Score: 42").Score)
		assert.Equal(t, api.MinScore, Parse("score = -3").Score)
		assert.Equal(t, api.MinScore, Parse("Overall score: 0/10").Score)
	})
}

func TestLines(t *testing.T) {
	r := api.StepResult{
		Summary:         []string{"Intro"},
		KeyFindings:     []string{"f1", "f2"},
		Risks:           []string{},
		Recommendations: []string{"r1"},
		Score:           8,
	}
	lines := Lines(r)
	assert.Equal(t, []string{
		"Intro",
		"KEY FINDINGS:",
		"- f1",
		"- f2",
		"RISKS:",
		"RECOMMENDATIONS:",
		"- r1",
		"SCORE: 8/10",
	}, lines)

	back := Parse(strings.Join(lines, "\n"))
	assert.Equal(t, r.Summary, back.Summary)
	assert.Equal(t, r.KeyFindings, back.KeyFindings)
	assert.Equal(t, r.Risks, back.Risks)
	assert.Equal(t, r.Recommendations, back.Recommendations)
	assert.Equal(t, r.Score, back.Score)
}

func TestBuild(t *testing.T) {
	stage := DefaultStages()[1]

	t.Run("first_stage", func(t *testing.T) {
		out, err := Build(Input{
			Stage:       stage,
			Query:       "expand to EU?",
			Constraints: map[string]interface{}{"budget": 250000, "region": "EU"},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Question: expand to EU?")
		assert.Contains(t, out, "- budget: 250000\n- region: EU")
		assert.NotContains(t, out, "Previous stages")
		assert.NotContains(t, out, "@{")
	})

	t.Run("previous_and_feedback", func(t *testing.T) {
		out, err := Build(Input{
			Stage: stage,
			Query: "expand to EU?",
			Previous: []Previous{{
				Stage:           "situation",
				Name:            "Situation analysis",
				KeyFindings:     []string{"Demand is growing"},
				Recommendations: []string{"Look at Germany"},
			}},
			Feedback: "too vague",
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Constraints:\nnone")
		assert.Contains(t, out, "## Situation analysis\nKey findings:\n- Demand is growing\nRecommendations:\n- Look at Germany")
		assert.True(t, strings.HasSuffix(out, "too vague"))
	})

	t.Run("custom_template", func(t *testing.T) {
		out, err := Build(Input{
			Stage: api.StageSpec{ID: "custom", Name: "Custom", Template: "@{stage}: budget @{constraints.budget}, region @{constraints.region}"},
			Query: "q",
			Constraints: map[string]interface{}{
				"budget": 10,
			},
			Previous: []Previous{{Name: "Before", KeyFindings: []string{"x"}}},
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Custom: budget 10, region unspecified"))
		// Context is appended when not referenced
		assert.Contains(t, out, "## Before\nKey findings:\n- x")
	})

	t.Run("bare_constraint_key", func(t *testing.T) {
		out, err := Build(Input{
			Stage:       api.StageSpec{ID: "bare", Template: "budget @{budget}, cap @{limits.max}"},
			Constraints: map[string]interface{}{"budget": 10, "limits": map[string]interface{}{"max": 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, "budget 10, cap 3", out)
	})

	t.Run("unknown_expression", func(t *testing.T) {
		_, err := Build(Input{Stage: api.StageSpec{ID: "bad", Template: "@{unknown}"}})
		require.Error(t, err)
	})
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	require.Len(t, stages, 4)
	ids := make(map[string]bool)
	for _, s := range stages {
		assert.NotEmpty(t, s.Name)
		assert.Contains(t, s.Template, "@{query}")
		ids[s.ID] = true
	}
	assert.Len(t, ids, 4)
}
