package api

// Report is the final verified output of a pipeline run. A report is always
// structurally complete; partial failure is communicated through Verified
// and VerificationNotes rather than an error
type Report struct {
	RunID             RunID          `json:"run_id"`
	Task              string         `json:"task"`
	Summary           string         `json:"summary"`
	Details           map[ToolID]any `json:"details"`
	Sources           []string       `json:"sources"`
	ExecutionPlan     *Plan          `json:"execution_plan"`
	RawResults        []*StepOutcome `json:"raw_results"`
	VerificationNotes string         `json:"verification_notes,omitempty"`
	Verified          bool           `json:"verified"`
}
