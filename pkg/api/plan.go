package api

import (
	"errors"
	"fmt"
)

type (
	// Step is one unit of work in a plan: a tool, an action, and the
	// parameters to invoke it with
	Step struct {
		Params    Params   `json:"params"`
		Tool      ToolID   `json:"tool"`
		Action    ActionID `json:"action"`
		Reasoning string   `json:"reasoning,omitempty"`
		Index     int      `json:"index"`
	}

	// Plan is an ordered sequence of steps produced by the planner for a
	// task. Step order is semantically meaningful and must be preserved in
	// output regardless of execution concurrency
	Plan struct {
		Task  string   `json:"task"`
		Steps []*Step  `json:"steps"`
		Tools []ToolID `json:"estimated_tools,omitempty"`
	}
)

var (
	ErrPlanNil        = errors.New("plan is nil")
	ErrPlanEmpty      = errors.New("plan has no steps")
	ErrStepNil        = errors.New("plan contains nil step")
	ErrStepToolEmpty  = errors.New("step tool empty")
	ErrStepIndexDense = errors.New("step indices must be dense")
)

// Validate checks that the plan is structurally sound: non-empty, every step
// present, and indices forming a dense 0..N-1 range matching list position
func (p *Plan) Validate() error {
	if p == nil {
		return ErrPlanNil
	}
	if len(p.Steps) == 0 {
		return ErrPlanEmpty
	}
	for i, step := range p.Steps {
		if step == nil {
			return fmt.Errorf("%w: position %d", ErrStepNil, i)
		}
		if step.Index != i {
			return fmt.Errorf("%w: step at position %d has index %d",
				ErrStepIndexDense, i, step.Index)
		}
		if step.Tool == "" {
			return fmt.Errorf("%w: position %d", ErrStepToolEmpty, i)
		}
	}
	return nil
}
