package api

type (
	// ToolID is a unique identifier for a registered tool
	ToolID string

	// ActionID is a unique identifier for an action exposed by a tool
	ActionID string

	// RunID is a unique identifier for a single pipeline run
	RunID string
)
