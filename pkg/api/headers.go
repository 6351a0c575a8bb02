package api

const (
	// HeaderPipelineID is header for PipelineID
	HeaderPipelineID = "x-pipeline-id"
	// HeaderStepID is header for StepID
	HeaderStepID = "x-step-id"
	// HeaderType is header for Type
	HeaderType = "x-type"
	// HeaderCorrelationID is header for CorrelationID
	HeaderCorrelationID = "x-correlation-id"
)
