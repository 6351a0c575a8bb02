package executor

import (
	"time"

	"argos/pkg/api"
	"argos/pkg/prompt"
	"argos/pkg/provider"
	"argos/pkg/router"
	"argos/pkg/util/context"
)

const (
	// DefaultTimeout is the deadline given to the router for one step
	DefaultTimeout = 60 * time.Second
)

// Router routes a generation request to a provider
type Router interface {
	Route(ctx context.Context, req provider.Request, opts router.Options) (router.Result, error)
}

// Input is a step to be generated
type Input struct {
	Stage       api.StageSpec
	Query       string
	Constraints map[string]interface{}
	Previous    []prompt.Previous // approved steps before this one, in order
	Feedback    string            // reviewer notes of the last rejection
}

// Output is the generated step
type Output struct {
	Result   api.StepResult
	Artifact api.Artifact
	Attempts []router.Attempt // failed provider attempts
}

// Executor produces the result and artifact of a step.
type Executor interface {
	// Execute generates the step. When no provider could serve the request, a placeholder is returned.
	// Any returned error is unexpected.
	Execute(ctx context.Context, in Input) (Output, error)
}

// Config configures the executor
type Config struct {
	Timeout           time.Duration `json:"timeout" env:"ARGOS_EXECUTOR_TIMEOUT"`
	PreferredProvider string        `json:"preferred_provider" env:"ARGOS_EXECUTOR_PREFERRED_PROVIDER"`
	MaxTokens         int           `json:"max_tokens"`
	Temperature       float64       `json:"temperature"`
}

// New returns a new instance of Executor
func New(r Router, cfg Config) Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &exec{
		router: r,
		config: cfg,
	}
}
