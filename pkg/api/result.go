package api

import (
	"fmt"
	"time"
)

type (
	// ToolResult is the uniform result variant returned by every tool
	// action. Exactly one of Data or Error is meaningful depending on
	// Success
	ToolResult struct {
		Data    Params `json:"data,omitempty"`
		Error   string `json:"error,omitempty"`
		Success bool   `json:"success"`
	}

	// StepOutcome is the normalized success/failure record produced for one
	// step, 1:1 with the plan's steps
	StepOutcome struct {
		Data    Params   `json:"data,omitempty"`
		Error   string   `json:"error,omitempty"`
		Tool    ToolID   `json:"tool"`
		Action  ActionID `json:"action"`
		Success bool     `json:"success"`
	}

	// PlanResult holds the ordered outcomes of an executed plan. Outcomes
	// are index-aligned with the plan's steps
	PlanResult struct {
		Plan     *Plan          `json:"plan"`
		Outcomes []*StepOutcome `json:"results"`
		Elapsed  time.Duration  `json:"elapsed"`
	}

	// StepFailure attributes an error message to the tool that produced it
	StepFailure struct {
		Tool  ToolID `json:"tool"`
		Error string `json:"error"`
	}

	// AggregatedView is the read-only data payload built once from a
	// PlanResult and handed to the narrator. ByTool values are either a
	// single Params payload or an ordered []Params when the same tool
	// produced multiple outcomes
	AggregatedView struct {
		ByTool     map[ToolID]any `json:"by_tool"`
		Citations  []string       `json:"citations"`
		Advisories []string       `json:"advisories"`
		Failed     []StepFailure  `json:"failed"`
		Complete   bool           `json:"complete"`
	}
)

// ContextKey is the metadata key under which a context label is attached to
// a tool payload, distinguishing repeat calls to the same tool
const ContextKey = "_context"

// NewToolResult creates a successful result carrying the given payload
func NewToolResult(data Params) *ToolResult {
	return &ToolResult{Success: true, Data: data}
}

// ToolErrorf creates a failed result with a formatted error message
func ToolErrorf(format string, args ...any) *ToolResult {
	return &ToolResult{Error: fmt.Sprintf(format, args...)}
}
