package scheduler

import (
	"argos/pkg/api"
	"argos/pkg/events"
	"argos/pkg/executor"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

func (sc *scheduler) ExecuteNextStep(ctx context.Context, pid string) (api.PipelineView, error) {
	ctx = context.WithPipelineID(ctx, pid)

	// Find the next pending step and mark it running, as one update
	var (
		index     int
		in        executor.Input
		completed bool
	)
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		if err := requireActive(p); err != nil {
			return err
		}
		index = p.NextPending()
		if index < 0 {
			for _, s := range p.Steps {
				if s.Status != api.StatusApproved {
					return InvalidStateError("no pending step, step %s is %s", s.ID, s.Status)
				}
			}
			sc.complete(p)
			completed = true
			return nil
		}
		for _, prev := range p.Steps[:index] {
			if prev.Status != api.StatusApproved {
				return ErrOutOfOrder{Step: p.Steps[index].ID, Blocking: prev.ID}
			}
		}
		s := &p.Steps[index]
		now := sc.now()
		s.Status = api.StatusRunning
		s.StartedAt = &now
		s.Attempts++
		in = sc.stepInput(p, index)
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}
	if completed {
		sc.finished(ctx, view)
		return view, nil
	}

	stepID := view.Steps[index].ID
	ctx = context.WithStepID(ctx, stepID)
	ctx.Logger().Infof("executing step %s (attempt %d)", stepID, view.Steps[index].Attempts)

	out, err := sc.execute(ctx, pid, in)
	if err != nil {
		// Roll back so that the step can be retried
		if _, rerr := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
			if s := &p.Steps[index]; s.Status == api.StatusRunning {
				s.Reset()
			}
			return nil
		}); rerr != nil {
			ctx.Logger().Error(errors.Wrapf(rerr, "cannot reset step %s", stepID))
		}
		ctx.Logger().Error(err)
		return api.PipelineView{}, ErrUnexpectedFault{Step: stepID, err: err}
	}

	view, err = sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		s := &p.Steps[index]
		if p.Status != api.PipelineActive || s.Status != api.StatusRunning {
			return InvalidStateError("pipeline %s is %s, result of step %s discarded", pid, p.Status, stepID)
		}
		now := sc.now()
		result, artifact := out.Result, out.Artifact
		s.Status = api.StatusCompleted
		s.Result = &result
		s.Artifact = &artifact
		s.CompletedAt = &now
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}

	ctx.Logger().Infof("step %s completed with score %d", stepID, out.Result.Score)
	sc.notify(ctx, events.TypeStepCompleted, stepID, events.StepCompletedData{
		Score:        out.Result.Score,
		Placeholder:  out.Result.Placeholder,
		ProviderUsed: out.Result.ProviderUsed,
		Lines:        len(out.Artifact.Lines),
		Attempts:     len(out.Attempts),
	})
	return view, nil
}

// execute runs the executor outside of any pipeline lock.
// The generation is abandoned if the pipeline is cancelled meanwhile.
func (sc *scheduler) execute(ctx context.Context, pid string, in executor.Input) (out executor.Output, err error) {
	gctx, cancel := context.WithCancel(ctx)
	sc.mu.Lock()
	sc.inflight[pid] = cancel
	sc.mu.Unlock()
	defer func() {
		sc.mu.Lock()
		delete(sc.inflight, pid)
		sc.mu.Unlock()
		cancel()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("executor panicked: %v", r)
		}
	}()
	out, err = sc.exec.Execute(gctx, in)
	if err != nil {
		return executor.Output{}, errors.Wrapf(err, "cannot execute step %s", in.Stage.ID)
	}
	return out, nil
}

func (sc *scheduler) ApproveStep(ctx context.Context, pid, stepID, notes string) (api.PipelineView, error) {
	ctx = context.WithStepID(context.WithPipelineID(ctx, pid), stepID)
	var (
		score     int
		completed bool
	)
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		if err := requireActive(p); err != nil {
			return err
		}
		s, err := step(p, stepID)
		if err != nil {
			return err
		}
		if s.Status != api.StatusCompleted {
			return InvalidStateError("step %s is %s, only completed steps can be approved", s.ID, s.Status)
		}
		now := sc.now()
		s.Status = api.StatusApproved
		s.ApprovedAt = &now
		s.ReviewFeedback = &api.ReviewFeedback{
			Decision:  api.DecisionApprove,
			Notes:     notes,
			DecidedAt: now,
		}
		score = s.Result.Score
		stepID = s.ID
		if p.AllApproved() {
			sc.complete(p)
			completed = true
		}
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}

	ctx.Logger().Infof("step %s approved", stepID)
	sc.notify(ctx, events.TypeStepApproved, stepID, events.StepDecisionData{Notes: notes, Score: score})
	if completed {
		sc.finished(ctx, view)
	}
	return view, nil
}

func (sc *scheduler) RejectStep(ctx context.Context, pid, stepID, feedback string) (api.PipelineView, error) {
	ctx = context.WithStepID(context.WithPipelineID(ctx, pid), stepID)
	var data events.StepDecisionData
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		if err := requireActive(p); err != nil {
			return err
		}
		s, err := step(p, stepID)
		if err != nil {
			return err
		}
		if s.Status != api.StatusCompleted {
			return InvalidStateError("step %s is %s, only completed steps can be rejected", s.ID, s.Status)
		}
		data = events.StepDecisionData{
			Notes:             feedback,
			Score:             s.Result.Score,
			DiscardedLines:    len(s.Artifact.Lines),
			DiscardedEdits:    len(s.Artifact.Edits),
			DiscardedComments: len(s.Artifact.Comments),
		}
		// Rejected steps go straight back to pending
		s.Reset()
		s.Rejections++
		s.ReviewFeedback = &api.ReviewFeedback{
			Decision:  api.DecisionReject,
			Notes:     feedback,
			DecidedAt: sc.now(),
		}
		stepID = s.ID
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}

	ctx.Logger().Infof("step %s rejected, %d lines and %d edits discarded", stepID, data.DiscardedLines, data.DiscardedEdits)
	sc.notify(ctx, events.TypeStepRejected, stepID, data)
	return view, nil
}
