package scheduler

import (
	"strconv"
	"sync"
	"time"

	"argos/pkg/api"
	"argos/pkg/events"
	"argos/pkg/executor"
	"argos/pkg/notify"
	"argos/pkg/store"
	"argos/pkg/util/context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SetupFunc is the function called when a pipeline is started.
type SetupFunc func(ctx context.Context) error

// TearDownFunc is the function called when a pipeline is finished. (Either completed or cancelled)
type TearDownFunc func(ctx context.Context) error

// Scheduler defines the entries of the pipeline engine.
// Every operation returns a snapshot of the pipeline as left by the operation.
type Scheduler interface {
	// Start creates a pipeline for the query with every step pending. Nothing is run.
	Start(ctx context.Context, query string, constraints map[string]interface{}) (api.PipelineView, error)

	// ExecuteNextStep generates the first pending step.
	// When no step is pending and every step is approved, the pipeline is completed.
	// When no step is pending and a step still awaits a decision, ErrInvalidState is returned
	// and the pipeline stays active.
	ExecuteNextStep(ctx context.Context, pid string) (api.PipelineView, error)

	// ApproveStep approves a completed step. Approving the last step completes the pipeline.
	ApproveStep(ctx context.Context, pid, stepID, notes string) (api.PipelineView, error)

	// RejectStep discards the result of a completed step and sends it back to pending.
	RejectStep(ctx context.Context, pid, stepID, feedback string) (api.PipelineView, error)

	// EditArtifact overwrites one line of the step artifact and records the edit.
	EditArtifact(ctx context.Context, pid, stepID string, lineIndex int, content string) (api.PipelineView, error)

	// AddComment attaches a comment to one line of the step artifact.
	AddComment(ctx context.Context, pid, stepID string, lineIndex int, text, author string) (api.Comment, api.PipelineView, error)

	// ResolveComment flags a comment as resolved.
	ResolveComment(ctx context.Context, pid, stepID string, commentIndex int) (api.PipelineView, error)

	// Cancel cancels an active pipeline. A step being generated is reset and its result discarded.
	Cancel(ctx context.Context, pid, reason string) (api.PipelineView, error)

	// Get returns a snapshot of the pipeline.
	Get(ctx context.Context, pid string) (api.PipelineView, error)

	// List returns the pipelines, most recent first.
	List(ctx context.Context) ([]api.PipelineInfo, error)

	// Export renders the pipeline as a markdown document.
	Export(ctx context.Context, pid string) (string, error)

	// Set function to be called when a pipeline is started.
	SetSetupFunc(SetupFunc)

	// Set function to be called when a pipeline is finished. (Either completed or cancelled)
	SetTearDownFunc(TearDownFunc)
}

// NewScheduler returns a new instance of Pipeline scheduler running the given ordered stages.
func NewScheduler(exec executor.Executor, s store.Store, n notify.Notifier, stages []api.StageSpec) (Scheduler, error) {
	if len(stages) == 0 {
		return nil, errors.New("at least one stage is required")
	}
	byID := make(map[string]api.StageSpec, len(stages))
	for i, st := range stages {
		if st.ID == "" {
			return nil, errors.Errorf("stage %d has no id", i)
		}
		if _, exists := byID[st.ID]; exists {
			return nil, errors.Errorf("duplicate stage %s", st.ID)
		}
		byID[st.ID] = st
	}
	if n == nil {
		n = notify.Nop()
	}
	return &scheduler{
		s:        s,
		exec:     exec,
		notifier: n,
		stages:   stages,
		byID:     byID,
		inflight: make(map[string]context.CancelFunc),
		now:      time.Now,
	}, nil
}

type scheduler struct {
	s            store.Store
	exec         executor.Executor
	notifier     notify.Notifier
	stages       []api.StageSpec
	byID         map[string]api.StageSpec
	setupFunc    SetupFunc
	teardownFunc TearDownFunc
	now          func() time.Time

	mu       sync.Mutex
	inflight map[string]context.CancelFunc // generations in progress, by pipeline
}

func (sc *scheduler) Start(ctx context.Context, query string, constraints map[string]interface{}) (api.PipelineView, error) {
	if query == "" {
		return api.PipelineView{}, InvalidStateError("query is required")
	}
	pid := uuid.New().String()
	ctx = context.WithPipelineID(ctx, pid)
	ctx.Logger().Infof("starting pipeline for query %q", query)

	// Call setup func
	if sc.setupFunc != nil {
		if err := sc.setupFunc(ctx); err != nil {
			return api.PipelineView{}, errors.Wrap(err, "error calling setup function")
		}
	}

	now := sc.now()
	p := api.Pipeline{
		ID:          pid,
		Query:       query,
		Constraints: constraints,
		Status:      api.PipelineActive,
		Steps:       make([]api.Step, len(sc.stages)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, st := range sc.stages {
		p.Steps[i] = api.Step{
			ID:     st.ID,
			Name:   st.Name,
			Status: api.StatusPending,
		}
	}
	if err := sc.s.CreatePipeline(ctx, p); err != nil {
		return api.PipelineView{}, errors.Wrapf(err, "cannot create pipeline %s", pid)
	}
	sc.notify(ctx, events.TypePipelineStarted, "", events.PipelineData{Query: query})
	return p.View(), nil
}

func (sc *scheduler) Get(ctx context.Context, pid string) (api.PipelineView, error) {
	return sc.s.GetPipeline(ctx, pid)
}

func (sc *scheduler) List(ctx context.Context) ([]api.PipelineInfo, error) {
	return sc.s.ListPipelines(ctx)
}

func (sc *scheduler) Cancel(ctx context.Context, pid, reason string) (api.PipelineView, error) {
	ctx = context.WithPipelineID(ctx, pid)
	ctx.Logger().Infof("cancelling pipeline because %s", reason)
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		if p.Status.Finished() {
			return InvalidStateError("pipeline %s is %s", pid, p.Status)
		}
		p.Status = api.PipelineCancelled
		now := sc.now()
		p.CompletedAt = &now
		for i := range p.Steps {
			if p.Steps[i].Status == api.StatusRunning {
				p.Steps[i].Reset()
			}
		}
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}

	// Abandon the generation in progress, its result will be discarded
	sc.mu.Lock()
	if cancel, ok := sc.inflight[pid]; ok {
		cancel()
	}
	sc.mu.Unlock()

	sc.notify(ctx, events.TypePipelineCancelled, "", events.PipelineData{Query: view.Query, AggregateScore: view.AggregateScore})
	sc.tearDown(ctx)
	return view, nil
}

func (sc *scheduler) SetSetupFunc(f SetupFunc) {
	sc.setupFunc = f
}

func (sc *scheduler) SetTearDownFunc(f TearDownFunc) {
	sc.teardownFunc = f
}

// complete marks the pipeline completed
func (sc *scheduler) complete(p *api.Pipeline) {
	p.Status = api.PipelineCompleted
	now := sc.now()
	p.CompletedAt = &now
}

// finished notifies the completion of the pipeline and calls the teardown function
func (sc *scheduler) finished(ctx context.Context, view api.PipelineView) {
	ctx.Logger().Infof("pipeline completed with aggregate score %s", formatScore(view.AggregateScore))
	sc.notify(ctx, events.TypePipelineCompleted, "", events.PipelineData{Query: view.Query, AggregateScore: view.AggregateScore})
	sc.tearDown(ctx)
}

func (sc *scheduler) tearDown(ctx context.Context) {
	if sc.teardownFunc == nil {
		return
	}
	if err := sc.teardownFunc(ctx); err != nil {
		ctx.Logger().Error(errors.Wrap(err, "error calling teardown function"))
	}
}

// notify sends the event to the notifier. Failures are logged only.
func (sc *scheduler) notify(ctx context.Context, t events.EventType, stepID string, data interface{}) {
	evt := events.Event{
		Type:          t,
		PipelineID:    ctx.PipelineID(),
		StepID:        stepID,
		CorrelationID: ctx.CorrelationID(),
		Data:          data,
		Time:          sc.now(),
	}
	if err := sc.notifier.Notify(ctx, evt); err != nil {
		ctx.Logger().Warn(errors.Wrapf(err, "cannot notify %s", evt))
	}
}

// step returns the step designated by its ID or its index in the pipeline
func step(p *api.Pipeline, ref string) (*api.Step, error) {
	if i := p.StepIndex(ref); i >= 0 {
		return &p.Steps[i], nil
	}
	if i, err := strconv.Atoi(ref); err == nil && i >= 0 && i < len(p.Steps) {
		return &p.Steps[i], nil
	}
	return nil, store.NotFoundError("step " + ref + " of pipeline " + p.ID)
}

func requireActive(p *api.Pipeline) error {
	if p.Status != api.PipelineActive {
		return InvalidStateError("pipeline %s is %s", p.ID, p.Status)
	}
	return nil
}

func formatScore(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*s, 'f', 1, 64)
}
