package scheduler

import (
	"argos/pkg/api"
	"argos/pkg/executor"
	"argos/pkg/prompt"
)

// stepInput computes the executor input of the step at index i.
// Later stages see the findings and recommendations of the approved steps before them.
func (sc *scheduler) stepInput(p *api.Pipeline, i int) executor.Input {
	s := p.Steps[i]
	stage, ok := sc.byID[s.ID]
	if !ok {
		stage = api.StageSpec{ID: s.ID, Name: s.Name}
	}
	in := executor.Input{
		Stage:       stage,
		Query:       p.Query,
		Constraints: p.Constraints,
	}
	for _, prev := range p.Steps[:i] {
		if prev.Result == nil {
			continue
		}
		in.Previous = append(in.Previous, prompt.Previous{
			Stage:           prev.ID,
			Name:            prev.Name,
			KeyFindings:     prev.Result.KeyFindings,
			Recommendations: prev.Result.Recommendations,
		})
	}
	if s.ReviewFeedback != nil && s.ReviewFeedback.Decision == api.DecisionReject {
		in.Feedback = s.ReviewFeedback.Notes
	}
	return in
}
