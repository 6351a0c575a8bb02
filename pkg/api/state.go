package api

import (
	"time"
)

// PipelineInfo represents basic pipeline information
type PipelineInfo struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Status    PipelineStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Pipeline is one run of the ordered stages for a single query.
// It is owned by the store, callers only ever get a PipelineView.
type Pipeline struct {
	ID          string                 `json:"id"`
	Query       string                 `json:"query"`
	Constraints map[string]interface{} `json:"constraints,omitempty"`
	Status      PipelineStatus         `json:"status"`
	Steps       []Step                 `json:"steps"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
}

// Step is one stage of a pipeline. Its index in Pipeline.Steps never changes.
type Step struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         Status          `json:"status"`
	Result         *StepResult     `json:"result,omitempty"`
	Artifact       *Artifact       `json:"artifact,omitempty"`
	ReviewFeedback *ReviewFeedback `json:"reviewFeedback,omitempty"`
	Attempts       int             `json:"attempts"`   // number of times the step has been sent to generation
	Rejections     int             `json:"rejections"` // number of times the step has been rejected
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
}

// StepResult is the structured output of a step.
type StepResult struct {
	Content         string        `json:"content"`
	Summary         []string      `json:"summary,omitempty"`
	KeyFindings     []string      `json:"keyFindings"`
	Risks           []string      `json:"risks"`
	Recommendations []string      `json:"recommendations"`
	Score           int           `json:"score"`
	Placeholder     bool          `json:"placeholder,omitempty"` // true when no provider could produce the result
	ProviderUsed    string        `json:"providerUsed,omitempty"`
	Latency         time.Duration `json:"latency,omitempty"`
}

// Artifact is the human editable, line indexed rendering of a StepResult.
type Artifact struct {
	Lines    []string  `json:"lines"`
	Edits    []Edit    `json:"edits,omitempty"`
	Comments []Comment `json:"comments,omitempty"`
}

// Edit is one modification of an artifact line.
type Edit struct {
	LineIndex       int       `json:"lineIndex"`
	OriginalContent string    `json:"originalContent"`
	NewContent      string    `json:"newContent"`
	EditedAt        time.Time `json:"editedAt"`
}

// Comment is a reviewer note attached to an artifact line.
type Comment struct {
	LineIndex int       `json:"lineIndex"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Resolved  bool      `json:"resolved"`
}

// ReviewFeedback is the last human decision on a step.
type ReviewFeedback struct {
	Decision  Decision  `json:"decision"`
	Notes     string    `json:"notes,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}

// PipelineView is a read-only snapshot of a pipeline with its derived state.
type PipelineView struct {
	Pipeline
	AggregateScore *float64 `json:"aggregateScore,omitempty"` // mean score of the steps holding a result
	Approved       int      `json:"approved"`                 // number of approved steps
	Total          int      `json:"total"`
}

// NextPending returns the index of the first pending step or -1
func (p *Pipeline) NextPending() int {
	for i := range p.Steps {
		if p.Steps[i].Status == StatusPending {
			return i
		}
	}
	return -1
}

// StepIndex returns the index of the step with the given ID or -1
func (p *Pipeline) StepIndex(stepID string) int {
	for i := range p.Steps {
		if p.Steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

// AllApproved returns true if every step is approved
func (p *Pipeline) AllApproved() bool {
	for _, s := range p.Steps {
		if s.Status != StatusApproved {
			return false
		}
	}
	return true
}

// Info returns the pipeline basic information
func (p *Pipeline) Info() PipelineInfo {
	return PipelineInfo{
		ID:        p.ID,
		Query:     p.Query,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// Clone returns a deep copy of the pipeline.
func (p *Pipeline) Clone() *Pipeline {
	c := *p
	if p.Constraints != nil {
		c.Constraints = cloneValue(p.Constraints).(map[string]interface{})
	}
	c.CompletedAt = cloneTime(p.CompletedAt)
	c.Steps = make([]Step, len(p.Steps))
	for i := range p.Steps {
		c.Steps[i] = p.Steps[i].Clone()
	}
	return &c
}

// View returns a snapshot of the pipeline along with its derived state.
func (p *Pipeline) View() PipelineView {
	v := PipelineView{
		Pipeline: *p.Clone(),
		Total:    len(p.Steps),
	}
	sum, n := 0, 0
	for _, s := range p.Steps {
		if s.Status == StatusApproved {
			v.Approved++
		}
		if s.Result != nil {
			sum += s.Result.Score
			n++
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		v.AggregateScore = &avg
	}
	return v
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	c := s
	if s.Result != nil {
		r := *s.Result
		r.Summary = cloneStrings(s.Result.Summary)
		r.KeyFindings = cloneStrings(s.Result.KeyFindings)
		r.Risks = cloneStrings(s.Result.Risks)
		r.Recommendations = cloneStrings(s.Result.Recommendations)
		c.Result = &r
	}
	if s.Artifact != nil {
		a := Artifact{
			Lines: cloneStrings(s.Artifact.Lines),
		}
		if s.Artifact.Edits != nil {
			a.Edits = append([]Edit{}, s.Artifact.Edits...)
		}
		if s.Artifact.Comments != nil {
			a.Comments = append([]Comment{}, s.Artifact.Comments...)
		}
		c.Artifact = &a
	}
	if s.ReviewFeedback != nil {
		f := *s.ReviewFeedback
		c.ReviewFeedback = &f
	}
	c.StartedAt = cloneTime(s.StartedAt)
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.ApprovedAt = cloneTime(s.ApprovedAt)
	return c
}

// Reset clears everything produced by a generation and puts the step back to pending.
// Review feedback, attempts and rejections are kept.
func (s *Step) Reset() {
	s.Status = StatusPending
	s.Result = nil
	s.Artifact = nil
	s.StartedAt = nil
	s.CompletedAt = nil
	s.ApprovedAt = nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

// cloneValue returns a deep copy of decoded JSON values, maps and slices included
func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if t == nil {
			return t
		}
		c := make(map[string]interface{}, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	case []interface{}:
		c := make([]interface{}, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return cloneStrings(t)
	}
	return v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
