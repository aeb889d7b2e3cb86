// Package planner turns a natural-language task into an executable plan by
// prompting a language model with the tool catalog
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/tools"
	"github.com/opsline/engine/pkg/api"
)

// Planner produces validated plans for tasks. Planning failure is fatal for
// a run; there is no degraded mode without a plan
type Planner struct {
	llm      llm.Client
	registry *tools.Registry
	logger   *slog.Logger
}

const plannerSystemPrompt = `You are a planning assistant. Decompose the
user's task into tool invocations using ONLY the tools and actions listed
below. Respond with a JSON object:

{"steps": [{"index": 0, "tool": "...", "action": "...",
"params": {...}, "reasoning": "..."}],
"estimated_tools": ["..."]}

Rules:
- Step indices start at 0 and increase by 1 in execution order.
- Each step uses exactly one tool action with only its listed parameters.
- Order steps so that a step needing another step's output comes after it.
- Use the fewest steps that fully answer the task.

Available tools:
%s`

// New creates a Planner over the given model client and registry
func New(
	client llm.Client, registry *tools.Registry, logger *slog.Logger,
) *Planner {
	return &Planner{
		llm:      client,
		registry: registry,
		logger:   logger,
	}
}

// CreatePlan asks the model for a plan and validates it. Any malformed or
// structurally invalid response fails the run
func (p *Planner) CreatePlan(
	ctx context.Context, task string,
) (*api.Plan, error) {
	res, err := p.llm.GenerateJSON(ctx, llm.Request{
		System:      fmt.Sprintf(plannerSystemPrompt, p.catalogText()),
		User:        task,
		Temperature: 0.1,
		MaxTokens:   1200,
	})
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}

	var plan api.Plan
	if err := json.Unmarshal(res, &plan); err != nil {
		return nil, fmt.Errorf("planner returned malformed JSON: %w", err)
	}
	plan.Task = task

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("planner returned invalid plan: %w", err)
	}

	p.logger.Info("plan created",
		"task", task, "steps", len(plan.Steps), "tools", plan.Tools,
	)
	return &plan, nil
}

// catalogText renders the registry for the planning prompt
func (p *Planner) catalogText() string {
	var b strings.Builder
	for _, entry := range p.registry.Catalog() {
		fmt.Fprintf(&b, "- %s: %s\n", entry.ID, entry.Description)
		for _, action := range entry.Actions {
			fmt.Fprintf(&b, "  - %s.%s(%s)\n",
				entry.ID, action,
				strings.Join(entry.Params[action], ", "))
		}
	}
	return b.String()
}
