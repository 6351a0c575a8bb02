package api

// Status is a step status
type Status string

const (
	// StatusPending default status, step is waiting to be generated (or regenerated after a rejection)
	StatusPending Status = "PENDING"

	// StatusRunning status for the step being generated
	StatusRunning Status = "RUNNING"

	// StatusCompleted status for steps generated and awaiting a human decision
	StatusCompleted Status = "COMPLETED"

	// StatusApproved status for steps approved by a reviewer
	StatusApproved Status = "APPROVED"

	// StatusRejected transient status for rejected steps, always resolved back to PENDING
	StatusRejected Status = "REJECTED"
)

// HasArtifact returns true if a step with this status carries a result and an artifact
func (s Status) HasArtifact() bool {
	return s == StatusCompleted || s == StatusApproved
}

// PipelineStatus is the status of a pipeline
type PipelineStatus string

const (
	// PipelineActive status for pipelines still accepting operations
	PipelineActive PipelineStatus = "ACTIVE"

	// PipelineCompleted status for pipelines with every step approved
	PipelineCompleted PipelineStatus = "COMPLETED"

	// PipelineCancelled status for pipelines cancelled by a user
	PipelineCancelled PipelineStatus = "CANCELLED"
)

// Finished returns true if the status is considered final
func (s PipelineStatus) Finished() bool {
	return s == PipelineCompleted || s == PipelineCancelled
}

// Decision is a reviewer decision on a completed step
type Decision string

const (
	// DecisionApprove approves the step
	DecisionApprove Decision = "APPROVE"
	// DecisionReject rejects the step, sending it back for regeneration
	DecisionReject Decision = "REJECT"
)
