package executor

import (
	"github.com/opsline/engine/pkg/api"
)

type (
	// Injector rewrites a dependent step's parameters from its
	// antecedent's step and outcome before the dependent step runs
	Injector func(step *api.Step, antecedent *api.Step, res *api.StepOutcome)

	// ContinuationRule marks an action as dependent on the action that
	// immediately precedes it in the plan. A step matching Tool/Action is
	// scheduled alone whenever the step directly before it matches
	// Antecedent, and Inject runs if that antecedent succeeded
	ContinuationRule struct {
		Inject           Injector
		Tool             api.ToolID
		Action           api.ActionID
		Antecedent       api.ToolID
		AntecedentAction api.ActionID
	}
)

// DefaultRules returns the built-in continuation rules
func DefaultRules() []*ContinuationRule {
	return []*ContinuationRule{{
		Tool:             "wikipedia",
		Action:           "get_summary",
		Antecedent:       "wikipedia",
		AntecedentAction: "search",
		Inject:           injectSearchTitle,
	}}
}

func (r *ContinuationRule) matches(step *api.Step) bool {
	return step.Tool == r.Tool && step.Action == r.Action
}

func (r *ContinuationRule) matchesAntecedent(step *api.Step) bool {
	return step.Tool == r.Antecedent && step.Action == r.AntecedentAction
}

// injectSearchTitle carries the top search hit's title into a summary
// step. Injection is skipped when the planner already chose a concrete
// title, recognized by the title differing from the search query
func injectSearchTitle(
	step *api.Step, antecedent *api.Step, res *api.StepOutcome,
) {
	title := firstResultTitle(res.Data)
	if title == "" {
		return
	}
	current := step.Params.GetString("title", "")
	if current != "" && current != antecedent.Params.GetString("query", "") {
		return
	}
	if step.Params == nil {
		step.Params = api.Params{}
	}
	step.Params["title"] = title
}

func firstResultTitle(data api.Params) string {
	switch results := data["results"].(type) {
	case []api.Params:
		if len(results) > 0 {
			return results[0].GetString("title", "")
		}
	case []any:
		if len(results) > 0 {
			if entry, ok := results[0].(map[string]any); ok {
				title, _ := entry["title"].(string)
				return title
			}
		}
	}
	return ""
}
