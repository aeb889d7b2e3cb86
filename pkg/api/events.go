package api

import "time"

type (
	// EventType identifies the kind of progress event emitted during a run
	EventType string

	// ProgressEvent is emitted as a pipeline run advances, allowing clients
	// to observe step scheduling and completion in real time
	ProgressEvent struct {
		Timestamp time.Time `json:"timestamp"`
		Type      EventType `json:"type"`
		RunID     RunID     `json:"run_id"`
		Tool      ToolID    `json:"tool,omitempty"`
		Action    ActionID  `json:"action,omitempty"`
		Error     string    `json:"error,omitempty"`
		StepIndex int       `json:"step_index"`
		BatchSize int       `json:"batch_size,omitempty"`
		Success   bool      `json:"success,omitempty"`
	}
)

const (
	// EventTypeRunStarted is emitted when plan execution begins
	EventTypeRunStarted EventType = "run_started"

	// EventTypeStepStarted is emitted when a step is dispatched
	EventTypeStepStarted EventType = "step_started"

	// EventTypeStepCompleted is emitted when a step's outcome is recorded
	EventTypeStepCompleted EventType = "step_completed"

	// EventTypeBatchCompleted is emitted at each batch join point
	EventTypeBatchCompleted EventType = "batch_completed"

	// EventTypeRunCompleted is emitted when all steps have been consumed
	EventTypeRunCompleted EventType = "run_completed"
)
