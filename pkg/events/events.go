package events

import (
	"fmt"
	"time"
)

// EventType type of event
type EventType string

const (
	TypePipelineStarted   EventType = "PIPELINE_STARTED"
	TypeStepCompleted     EventType = "STEP_COMPLETED"
	TypeStepApproved      EventType = "STEP_APPROVED"
	TypeStepRejected      EventType = "STEP_REJECTED"
	TypeArtifactEdited    EventType = "ARTIFACT_EDITED"
	TypeCommentAdded      EventType = "COMMENT_ADDED"
	TypeCommentResolved   EventType = "COMMENT_RESOLVED"
	TypePipelineCompleted EventType = "PIPELINE_COMPLETED"
	TypePipelineCancelled EventType = "PIPELINE_CANCELLED"
)

// Event represents a message to publish/receive.
type Event struct {
	Type          EventType   `json:"type"`
	PipelineID    string      `json:"pipelineId"`
	StepID        string      `json:"stepId,omitempty"`
	CorrelationID string      `json:"correlationId,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Time          time.Time   `json:"time"`
}

func (e Event) String() string {
	if e.StepID == "" {
		return fmt.Sprintf("%s for pipeline %s", e.Type, e.PipelineID)
	}
	return fmt.Sprintf("%s for step %s of pipeline %s", e.Type, e.StepID, e.PipelineID)
}

// StepCompletedData is the expected data type for event with type TypeStepCompleted
type StepCompletedData struct {
	Score        int    `json:"score"`
	Placeholder  bool   `json:"placeholder"`
	ProviderUsed string `json:"providerUsed,omitempty"`
	Lines        int    `json:"lines"`
	Attempts     int    `json:"attempts"`
}

// StepDecisionData is the expected data type for events with type TypeStepApproved and TypeStepRejected.
// Discarded counts describe the artifact dropped by a rejection.
type StepDecisionData struct {
	Notes             string `json:"notes,omitempty"`
	Score             int    `json:"score"`
	DiscardedLines    int    `json:"discardedLines,omitempty"`
	DiscardedEdits    int    `json:"discardedEdits,omitempty"`
	DiscardedComments int    `json:"discardedComments,omitempty"`
}

// ArtifactEditedData is the expected data type for event with type TypeArtifactEdited
type ArtifactEditedData struct {
	LineIndex       int    `json:"lineIndex"`
	OriginalContent string `json:"originalContent"`
	NewContent      string `json:"newContent"`
}

// CommentData is the expected data type for events with type TypeCommentAdded and TypeCommentResolved
type CommentData struct {
	Index     int    `json:"index"`
	LineIndex int    `json:"lineIndex"`
	Author    string `json:"author,omitempty"`
	Text      string `json:"text,omitempty"`
}

// PipelineData is the expected data type for pipeline events
type PipelineData struct {
	Query          string   `json:"query,omitempty"`
	AggregateScore *float64 `json:"aggregateScore,omitempty"`
}
