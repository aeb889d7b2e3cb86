// Package executor runs validated plans. The Runner executes a single step
// against the tool registry; the Executor schedules steps into maximal
// concurrent batches, applying continuation rules between dependent steps
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsline/engine/internal/tools"
	"github.com/opsline/engine/pkg/api"
	"github.com/opsline/engine/pkg/log"
)

// Runner resolves and invokes one step at a time. Every failure mode is
// folded into the returned outcome; RunStep never panics and never returns
// nil
type Runner struct {
	registry *tools.Registry
	logger   *slog.Logger
}

// NewRunner creates a Runner over the given registry
func NewRunner(registry *tools.Registry, logger *slog.Logger) *Runner {
	return &Runner{
		registry: registry,
		logger:   logger,
	}
}

// RunStep resolves the step's tool and action, filters its parameters, and
// invokes the action, normalizing the result into a StepOutcome
func (r *Runner) RunStep(
	ctx context.Context, step *api.Step,
) (res *api.StepOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("step panicked",
				log.Tool(step.Tool), log.Action(step.Action),
				log.StepIndex(step.Index), "cause", rec,
			)
			res = failedOutcome(step,
				fmt.Sprintf("execution error: %v", rec))
		}
	}()

	tool, ok := r.registry.Lookup(step.Tool)
	if !ok {
		return failedOutcome(step,
			fmt.Sprintf("tool not found: %s", step.Tool))
	}
	action, ok := tool.Action(step.Action)
	if !ok {
		return failedOutcome(step,
			fmt.Sprintf("action not found: %s.%s", step.Tool, step.Action))
	}

	params, dropped := action.FilterParams(step.Params)
	if len(dropped) > 0 {
		r.logger.Warn("dropped undeclared parameters",
			log.Tool(step.Tool), log.Action(step.Action),
			"params", dropped,
		)
	}

	return outcomeOf(step, action.Invoke(ctx, params))
}

func outcomeOf(step *api.Step, res *api.ToolResult) *api.StepOutcome {
	if res == nil {
		return failedOutcome(step, "tool returned no result")
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "unknown error"
		}
		return failedOutcome(step, msg)
	}
	return &api.StepOutcome{
		Tool:    step.Tool,
		Action:  step.Action,
		Success: true,
		Data:    res.Data,
	}
}

func failedOutcome(step *api.Step, msg string) *api.StepOutcome {
	return &api.StepOutcome{
		Tool:   step.Tool,
		Action: step.Action,
		Error:  msg,
	}
}
