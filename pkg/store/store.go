package store

import (
	"argos/pkg/api"
	"argos/pkg/util/context"
)

// UpdateFunc modifies a pipeline. If it returns an error, the pipeline is left untouched.
type UpdateFunc func(p *api.Pipeline) error

// Store interface defines access to the store backend.
// Updates of one pipeline are serialized, different pipelines are independent.
type Store interface {
	// CreatePipeline stores a new pipeline
	CreatePipeline(ctx context.Context, p api.Pipeline) error

	// UpdatePipeline applies f to the pipeline and returns a snapshot of the result.
	// The update is atomic: other callers never see a partially updated pipeline.
	UpdatePipeline(ctx context.Context, pid string, f UpdateFunc) (api.PipelineView, error)

	ReadOnlyStore
}

// ReadOnlyStore are functions used by controller to access data in RO
type ReadOnlyStore interface {
	// GetPipeline returns a snapshot of the pipeline
	GetPipeline(ctx context.Context, pid string) (api.PipelineView, error)

	// ListPipelines returns the pipelines basic information, most recent first
	ListPipelines(ctx context.Context) ([]api.PipelineInfo, error)
}
