package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline() *Pipeline {
	now := time.Now()
	return &Pipeline{
		ID:          "pid",
		Query:       "expand to EU?",
		Constraints: map[string]interface{}{"budget": 100},
		Status:      PipelineActive,
		Steps: []Step{
			{
				ID:     "situation",
				Status: StatusApproved,
				Result: &StepResult{Score: 8, KeyFindings: []string{"f1"}},
				Artifact: &Artifact{
					Lines:    []string{"a", "b"},
					Edits:    []Edit{{LineIndex: 0, OriginalContent: "x", NewContent: "a"}},
					Comments: []Comment{{LineIndex: 1, Text: "why?"}},
				},
				ApprovedAt: &now,
			},
			{
				ID:     "options",
				Status: StatusCompleted,
				Result: &StepResult{Score: 3},
			},
			{
				ID:     "risks",
				Status: StatusPending,
			},
		},
	}
}

func TestClone(t *testing.T) {
	p := newPipeline()
	c := p.Clone()
	require.Equal(t, p, c)

	c.Constraints["budget"] = 200
	c.Steps[0].Result.KeyFindings[0] = "changed"
	c.Steps[0].Artifact.Lines[0] = "changed"
	c.Steps[0].Artifact.Comments[0].Resolved = true
	*c.Steps[0].ApprovedAt = time.Time{}
	c.Steps[1].Status = StatusPending

	assert.Equal(t, 100, p.Constraints["budget"])
	assert.Equal(t, "f1", p.Steps[0].Result.KeyFindings[0])
	assert.Equal(t, "a", p.Steps[0].Artifact.Lines[0])
	assert.False(t, p.Steps[0].Artifact.Comments[0].Resolved)
	assert.False(t, p.Steps[0].ApprovedAt.IsZero())
	assert.Equal(t, StatusCompleted, p.Steps[1].Status)
}

func TestCloneNestedConstraints(t *testing.T) {
	p := newPipeline()
	p.Constraints = map[string]interface{}{
		"budget":  map[string]interface{}{"max": 5},
		"regions": []interface{}{"DE", map[string]interface{}{"name": "FR"}},
	}

	v := p.View()
	v.Constraints["budget"].(map[string]interface{})["max"] = 999
	v.Constraints["regions"].([]interface{})[0] = "IT"
	v.Constraints["regions"].([]interface{})[1].(map[string]interface{})["name"] = "ES"

	assert.Equal(t, 5, p.Constraints["budget"].(map[string]interface{})["max"])
	assert.Equal(t, "DE", p.Constraints["regions"].([]interface{})[0])
	assert.Equal(t, "FR", p.Constraints["regions"].([]interface{})[1].(map[string]interface{})["name"])
}

func TestView(t *testing.T) {
	p := newPipeline()
	v := p.View()
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 1, v.Approved)
	require.NotNil(t, v.AggregateScore)
	assert.Equal(t, 5.5, *v.AggregateScore)

	// Views are snapshots
	v.Steps[0].Status = StatusPending
	assert.Equal(t, StatusApproved, p.Steps[0].Status)

	// No result, no score
	empty := &Pipeline{Steps: []Step{{Status: StatusPending}}}
	assert.Nil(t, empty.View().AggregateScore)
}

func TestPipelineHelpers(t *testing.T) {
	p := newPipeline()
	assert.Equal(t, 2, p.NextPending())
	assert.Equal(t, 1, p.StepIndex("options"))
	assert.Equal(t, -1, p.StepIndex("missing"))
	assert.False(t, p.AllApproved())

	for i := range p.Steps {
		p.Steps[i].Status = StatusApproved
	}
	assert.Equal(t, -1, p.NextPending())
	assert.True(t, p.AllApproved())
}

func TestStepReset(t *testing.T) {
	p := newPipeline()
	s := p.Steps[0]
	s.Attempts = 2
	s.ReviewFeedback = &ReviewFeedback{Decision: DecisionReject, Notes: "too vague"}
	s.Reset()

	assert.Equal(t, StatusPending, s.Status)
	assert.Nil(t, s.Result)
	assert.Nil(t, s.Artifact)
	assert.Nil(t, s.ApprovedAt)
	assert.Equal(t, 2, s.Attempts)
	require.NotNil(t, s.ReviewFeedback)
	assert.Equal(t, "too vague", s.ReviewFeedback.Notes)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, MinScore, ClampScore(-3))
	assert.Equal(t, MaxScore, ClampScore(42))
	assert.Equal(t, 7, ClampScore(7))
	assert.Equal(t, 5, MidScore)
}

func TestStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.HasArtifact())
	assert.True(t, StatusApproved.HasArtifact())
	assert.False(t, StatusPending.HasArtifact())
	assert.False(t, StatusRunning.HasArtifact())
	assert.True(t, PipelineCancelled.Finished())
	assert.False(t, PipelineActive.Finished())
}
