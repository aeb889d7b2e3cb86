package planner_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/planner"
	"github.com/opsline/engine/internal/retry"
	"github.com/opsline/engine/internal/tools"
	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

type fakeLLM struct {
	data   string
	err    error
	system string
}

func (f *fakeLLM) GenerateText(
	context.Context, llm.Request,
) (string, error) {
	return f.data, f.err
}

func (f *fakeLLM) GenerateJSON(
	_ context.Context, req llm.Request,
) ([]byte, error) {
	f.system = req.System
	return []byte(f.data), f.err
}

func testRegistry() *tools.Registry {
	return tools.NewTestRegistry(&tools.Tool{
		ID:          "weather",
		Description: "Current weather",
		Actions: map[api.ActionID]*tools.Action{
			"get_current_weather": {
				Params: util.SetOf("city", "units"),
				Invoke: func(
					_ context.Context, p api.Params,
				) *api.ToolResult {
					return api.NewToolResult(p)
				},
			},
		},
	})
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCreatePlan(t *testing.T) {
	client := &fakeLLM{data: `{
		"steps": [
			{"index": 0, "tool": "weather",
			 "action": "get_current_weather",
			 "params": {"city": "Paris"},
			 "reasoning": "user asked for Paris weather"},
			{"index": 1, "tool": "weather",
			 "action": "get_current_weather",
			 "params": {"city": "Tokyo"}}
		],
		"estimated_tools": ["weather"]
	}`}
	p := planner.New(client, testRegistry(), discard())

	plan, err := p.CreatePlan(
		context.Background(), "weather in Paris and Tokyo",
	)
	assert.NoError(t, err)
	assert.Equal(t, "weather in Paris and Tokyo", plan.Task)
	assert.Len(t, plan.Steps, 2)
	assert.Equal(t, api.ToolID("weather"), plan.Steps[0].Tool)
	assert.Equal(t, "Paris", plan.Steps[0].Params.GetString("city", ""))
	assert.Equal(t, []api.ToolID{"weather"}, plan.Tools)

	assert.Contains(t, client.system, "weather:")
	assert.Contains(t, client.system, "get_current_weather(city, units)")
}

func TestCreatePlanMalformedJSON(t *testing.T) {
	client := &fakeLLM{data: "definitely not json"}
	p := planner.New(client, testRegistry(), discard())

	_, err := p.CreatePlan(context.Background(), "anything")
	assert.ErrorContains(t, err, "malformed")
}

func TestCreatePlanInvalidStructure(t *testing.T) {
	client := &fakeLLM{data: `{"steps": [
		{"index": 3, "tool": "weather", "action": "get_current_weather"}
	]}`}
	p := planner.New(client, testRegistry(), discard())

	_, err := p.CreatePlan(context.Background(), "anything")
	assert.ErrorIs(t, err, api.ErrStepIndexDense)
}

func TestCreatePlanEmpty(t *testing.T) {
	client := &fakeLLM{data: `{"steps": []}`}
	p := planner.New(client, testRegistry(), discard())

	_, err := p.CreatePlan(context.Background(), "anything")
	assert.ErrorIs(t, err, api.ErrPlanEmpty)
}

func TestCreatePlanLLMFailure(t *testing.T) {
	client := &fakeLLM{err: &retry.StatusError{Code: 500}}
	p := planner.New(client, testRegistry(), discard())

	_, err := p.CreatePlan(context.Background(), "anything")
	assert.ErrorContains(t, err, "planning failed")
}
