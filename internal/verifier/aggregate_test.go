package verifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/internal/verifier"
	"github.com/opsline/engine/pkg/api"
)

func planResult(
	steps []*api.Step, outcomes []*api.StepOutcome,
) *api.PlanResult {
	return &api.PlanResult{
		Plan:     &api.Plan{Task: "test task", Steps: steps},
		Outcomes: outcomes,
	}
}

func TestAggregateSingleTool(t *testing.T) {
	view := verifier.Aggregate(planResult(
		[]*api.Step{{
			Index: 0, Tool: "weather", Action: "get_current_weather",
			Params: api.Params{"city": "Paris"},
		}},
		[]*api.StepOutcome{{
			Tool: "weather", Success: true,
			Data: api.Params{"city": "Paris", "temperature": "21°C"},
		}},
	))

	assert.True(t, view.Complete)
	assert.Empty(t, view.Failed)

	payload, ok := view.ByTool["weather"].(api.Params)
	assert.True(t, ok)
	assert.Equal(t, "Paris", payload.GetString("city", ""))
	assert.NotContains(t, payload, api.ContextKey,
		"single invocations need no context label")
}

func TestAggregateRepeatToolGroupsWithContext(t *testing.T) {
	view := verifier.Aggregate(planResult(
		[]*api.Step{
			{Index: 0, Tool: "weather", Action: "get_current_weather",
				Params: api.Params{"city": "Paris"}},
			{Index: 1, Tool: "weather", Action: "get_current_weather",
				Params: api.Params{"city": "Tokyo"}},
		},
		[]*api.StepOutcome{
			{Tool: "weather", Success: true,
				Data: api.Params{"city": "Paris"}},
			{Tool: "weather", Success: true,
				Data: api.Params{"city": "Tokyo"}},
		},
	))

	grouped, ok := view.ByTool["weather"].([]api.Params)
	assert.True(t, ok)
	assert.Len(t, grouped, 2)
	assert.Equal(t, "Weather for Paris",
		grouped[0].GetString(api.ContextKey, ""))
	assert.Equal(t, "Weather for Tokyo",
		grouped[1].GetString(api.ContextKey, ""))
}

func TestAggregateFailuresPartitioned(t *testing.T) {
	view := verifier.Aggregate(planResult(
		[]*api.Step{
			{Index: 0, Tool: "weather",
				Params: api.Params{"city": "Paris"}},
			{Index: 1, Tool: "crypto",
				Params: api.Params{"coin": "nonsense"}},
		},
		[]*api.StepOutcome{
			{Tool: "weather", Success: true,
				Data: api.Params{"city": "Paris"}},
			{Tool: "crypto", Error: "coin not found"},
		},
	))

	assert.False(t, view.Complete)
	assert.Equal(t, []api.StepFailure{
		{Tool: "crypto", Error: "coin not found"},
	}, view.Failed)
	assert.Contains(t, view.ByTool, api.ToolID("weather"))
	assert.NotContains(t, view.ByTool, api.ToolID("crypto"))
}

func TestAggregateCitations(t *testing.T) {
	view := verifier.Aggregate(planResult(
		[]*api.Step{
			{Index: 0, Tool: "github",
				Params: api.Params{"query": "go workflow"}},
			{Index: 1, Tool: "wikipedia",
				Params: api.Params{"title": "Go"}},
		},
		[]*api.StepOutcome{
			{Tool: "github", Success: true, Data: api.Params{
				"repositories": []api.Params{
					{"name": "a/b", "url": "https://github.com/a/b"},
					{"name": "c/d", "url": "https://github.com/c/d"},
					{"name": "dup", "url": "https://github.com/a/b"},
				},
			}},
			{Tool: "wikipedia", Success: true, Data: api.Params{
				"url": "https://en.wikipedia.org/wiki/Go",
			}},
		},
	))

	assert.ElementsMatch(t, []string{
		"https://github.com/a/b",
		"https://github.com/c/d",
		"https://en.wikipedia.org/wiki/Go",
	}, view.Citations)
}

func TestAggregateAdvisories(t *testing.T) {
	view := verifier.Aggregate(planResult(
		[]*api.Step{
			{Index: 0, Tool: "news", Params: api.Params{"country": "xx"}},
			{Index: 1, Tool: "weather",
				Params: api.Params{"city": "Londn"}},
		},
		[]*api.StepOutcome{
			{Tool: "news", Success: true, Data: api.Params{
				"suggestion": "Try a query filter instead.",
			}},
			{Tool: "weather", Success: true, Data: api.Params{
				"correction_note": "Corrected 'Londn' to 'London'",
			}},
		},
	))

	assert.ElementsMatch(t, []string{
		"Try a query filter instead.",
		"Corrected 'Londn' to 'London'",
	}, view.Advisories)
}

func TestAggregateContextLabels(t *testing.T) {
	for _, tc := range []struct {
		tool  api.ToolID
		data  api.Params
		label string
	}{
		{"github", api.Params{"query": "go"}, "GitHub search: go"},
		{"news", api.Params{"query": "ai"}, "News about ai"},
		{"wikipedia", api.Params{"title": "Go"}, "Wikipedia: Go"},
		{"wikipedia", api.Params{"query": "golang"},
			"Wikipedia search: golang"},
		{"crypto", api.Params{"coin": "bitcoin"}, "Crypto: bitcoin"},
		{"countries", api.Params{"name": "France"}, "Country: France"},
		{"countries", api.Params{"region": "Europe"}, "Region: Europe"},
	} {
		steps := []*api.Step{
			{Index: 0, Tool: tc.tool},
			{Index: 1, Tool: tc.tool},
		}
		outcomes := []*api.StepOutcome{
			{Tool: tc.tool, Success: true, Data: tc.data},
			{Tool: tc.tool, Success: true, Data: tc.data},
		}
		view := verifier.Aggregate(planResult(steps, outcomes))

		grouped := view.ByTool[tc.tool].([]api.Params)
		assert.Equal(t, tc.label,
			grouped[0].GetString(api.ContextKey, ""), string(tc.tool))
	}
}

func TestAggregateContextLabelFromPayload(t *testing.T) {
	// The weather adapter corrects misspelled cities before fetching, so
	// the reported city is the label source, not the requested one
	steps := []*api.Step{
		{Index: 0, Tool: "weather", Action: "get_current_weather",
			Params: api.Params{"city": "Londn"}},
		{Index: 1, Tool: "weather", Action: "get_current_weather",
			Params: api.Params{"city": "Tokyo"}},
	}
	outcomes := []*api.StepOutcome{
		{Tool: "weather", Success: true, Data: api.Params{
			"city":            "London",
			"correction_note": "Corrected 'Londn' to 'London'",
		}},
		{Tool: "weather", Success: true, Data: api.Params{
			"city": "Tokyo",
		}},
	}
	view := verifier.Aggregate(planResult(steps, outcomes))

	grouped := view.ByTool["weather"].([]api.Params)
	assert.Equal(t, "Weather for London",
		grouped[0].GetString(api.ContextKey, ""))
}

func TestAggregateLongQueryTruncated(t *testing.T) {
	long := "this is an extremely long search query that just keeps " +
		"going and going"
	steps := []*api.Step{
		{Index: 0, Tool: "github"},
		{Index: 1, Tool: "github"},
	}
	outcomes := []*api.StepOutcome{
		{Tool: "github", Success: true, Data: api.Params{"query": long}},
		{Tool: "github", Success: true, Data: api.Params{"query": long}},
	}
	view := verifier.Aggregate(planResult(steps, outcomes))

	grouped := view.ByTool["github"].([]api.Params)
	label := grouped[0].GetString(api.ContextKey, "")
	assert.Contains(t, label, "...")
	assert.LessOrEqual(t, len(label), len("GitHub search: ")+50)
}
