package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opsline/engine/internal/tools"
	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
	"github.com/opsline/engine/pkg/log"
)

// ErrPlanInvalid reports a plan that failed structural validation
var ErrPlanInvalid = errors.New("invalid plan")

// Executor schedules a plan's steps into batches. Consecutive independent
// steps run concurrently; a step matching a continuation rule ends the
// current batch and runs alone, after parameter injection from its
// antecedent's outcome
type Executor struct {
	runner *Runner
	rules  []*ContinuationRule
	events *util.Hub[*api.ProgressEvent]
	logger *slog.Logger
}

// New creates an Executor over the given registry with the default
// continuation rules
func New(registry *tools.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		runner: NewRunner(registry, logger),
		rules:  DefaultRules(),
		events: util.NewHub[*api.ProgressEvent](),
		logger: logger,
	}
}

// Events exposes the hub carrying this executor's progress events
func (e *Executor) Events() *util.Hub[*api.ProgressEvent] {
	return e.events
}

// Close shuts down the progress event hub
func (e *Executor) Close() {
	e.events.Close()
}

// Execute runs all steps of a plan and returns their outcomes,
// index-aligned with the plan. Step failures are recorded, not returned;
// only a structurally invalid plan is an error
func (e *Executor) Execute(
	ctx context.Context, runID api.RunID, plan *api.Plan,
) (*api.PlanResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanInvalid, err)
	}

	start := time.Now()
	e.logger.Info("run started",
		log.RunID(runID), "task", plan.Task, "steps", len(plan.Steps),
	)
	e.emit(&api.ProgressEvent{
		Type:      api.EventTypeRunStarted,
		RunID:     runID,
		BatchSize: len(plan.Steps),
	})

	outcomes := make([]*api.StepOutcome, len(plan.Steps))
	var batch []*api.Step
	flush := func() {
		if len(batch) > 0 {
			e.runBatch(ctx, runID, batch, outcomes)
			batch = nil
		}
	}

	for _, step := range plan.Steps {
		rule, antecedent := e.dependency(plan, step)
		if rule == nil {
			batch = append(batch, step)
			continue
		}
		flush()
		if res := outcomes[antecedent.Index]; res != nil && res.Success {
			rule.Inject(step, antecedent, res)
		} else {
			e.logger.Warn("antecedent failed, running step as planned",
				log.RunID(runID), log.Tool(step.Tool),
				log.StepIndex(step.Index),
			)
		}
		batch = append(batch, step)
		flush()
	}
	flush()

	elapsed := time.Since(start)
	e.logger.Info("run completed",
		log.RunID(runID), "elapsed", elapsed,
	)
	e.emit(&api.ProgressEvent{
		Type:  api.EventTypeRunCompleted,
		RunID: runID,
	})

	return &api.PlanResult{
		Plan:     plan,
		Outcomes: outcomes,
		Elapsed:  elapsed,
	}, nil
}

// dependency finds the first continuation rule matching the step and its
// immediately preceding step. A matching antecedent further back does not
// make the step dependent
func (e *Executor) dependency(
	plan *api.Plan, step *api.Step,
) (*ContinuationRule, *api.Step) {
	if step.Index == 0 {
		return nil, nil
	}
	prev := plan.Steps[step.Index-1]
	for _, rule := range e.rules {
		if rule.matches(step) && rule.matchesAntecedent(prev) {
			return rule, prev
		}
	}
	return nil, nil
}

func (e *Executor) runBatch(
	ctx context.Context, runID api.RunID,
	batch []*api.Step, outcomes []*api.StepOutcome,
) {
	e.logger.Info("dispatching batch",
		log.RunID(runID), "size", len(batch),
	)

	var wg sync.WaitGroup
	for _, step := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.emit(&api.ProgressEvent{
				Type:      api.EventTypeStepStarted,
				RunID:     runID,
				Tool:      step.Tool,
				Action:    step.Action,
				StepIndex: step.Index,
				BatchSize: len(batch),
			})
			res := e.runner.RunStep(ctx, step)
			outcomes[step.Index] = res
			if !res.Success {
				e.logger.Warn("step failed",
					log.RunID(runID), log.Tool(step.Tool),
					log.Action(step.Action), log.StepIndex(step.Index),
					log.ErrorString(res.Error),
				)
			}
			e.emit(&api.ProgressEvent{
				Type:      api.EventTypeStepCompleted,
				RunID:     runID,
				Tool:      step.Tool,
				Action:    step.Action,
				StepIndex: step.Index,
				Success:   res.Success,
				Error:     res.Error,
			})
		}()
	}
	wg.Wait()

	e.emit(&api.ProgressEvent{
		Type:      api.EventTypeBatchCompleted,
		RunID:     runID,
		BatchSize: len(batch),
	})
}

func (e *Executor) emit(ev *api.ProgressEvent) {
	ev.Timestamp = time.Now()
	e.events.Publish(ev)
}
