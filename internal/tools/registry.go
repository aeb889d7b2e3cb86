// Package tools implements the static registry of external data services
// and their actions
//
// Each tool owns its outbound HTTP client, rate limiter, and retry policy.
// Actions declare the parameter names they accept and return a uniform
// success/error result, so the step runner never inspects payload shapes
package tools

import (
	"context"
	"sort"
	"time"

	"github.com/opsline/engine/internal/cache"
	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/retry"
	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

type (
	// Invoker executes one tool action with filtered parameters
	Invoker func(context.Context, api.Params) *api.ToolResult

	// Action is a named operation exposed by a tool. Params is the set of
	// parameter names the action accepts; anything else is dropped before
	// invocation
	Action struct {
		Invoke Invoker
		Params util.Set[string]
	}

	// Tool is an external data service adapter exposing named actions
	Tool struct {
		Actions     map[api.ActionID]*Action
		ID          api.ToolID
		Description string
	}

	// Registry is the fixed lookup table of available tools
	Registry struct {
		tools map[api.ToolID]*Tool
		order []api.ToolID
	}

	// Settings carries the shared dependencies and credentials used to
	// construct the registry's tools
	Settings struct {
		Cache         cache.Cache
		LLM           llm.Client
		Policy        retry.Policy
		Timeout       time.Duration
		Rate          float64
		Burst         int
		WeatherAPIKey string
		NewsAPIKey    string
		GitHubToken   string
	}
)

// NewRegistry constructs all available tools. Tool clients are created once
// here and shared across requests
func NewRegistry(s Settings) *Registry {
	corrector := NewCorrector(s.LLM)

	r := &Registry{tools: map[api.ToolID]*Tool{}}
	r.add(newGitHubTool(&s))
	r.add(newWeatherTool(&s, corrector))
	r.add(newNewsTool(&s))
	r.add(newCountriesTool(&s))
	r.add(newCryptoTool(&s, corrector))
	r.add(newWikipediaTool(&s))
	return r
}

// NewTestRegistry builds a registry from the given tools, preserving order.
// Used by tests to register closure-backed actions
func NewTestRegistry(ts ...*Tool) *Registry {
	r := &Registry{tools: map[api.ToolID]*Tool{}}
	for _, t := range ts {
		r.add(t)
	}
	return r
}

func (r *Registry) add(t *Tool) {
	r.tools[t.ID] = t
	r.order = append(r.order, t.ID)
}

// Lookup resolves a tool by ID
func (r *Registry) Lookup(id api.ToolID) (*Tool, bool) {
	t, ok := r.tools[id]
	return t, ok
}

// Catalog lists the registered tools and their actions in registration
// order, for API consumers
func (r *Registry) Catalog() []*api.ToolCatalogEntry {
	res := make([]*api.ToolCatalogEntry, 0, len(r.order))
	for _, id := range r.order {
		t := r.tools[id]
		actions := make([]api.ActionID, 0, len(t.Actions))
		params := map[api.ActionID][]string{}
		for name, action := range t.Actions {
			actions = append(actions, name)
			names := make([]string, 0, len(action.Params))
			for param := range action.Params {
				names = append(names, param)
			}
			sort.Strings(names)
			params[name] = names
		}
		sort.Slice(actions, func(l, r int) bool {
			return actions[l] < actions[r]
		})
		res = append(res, &api.ToolCatalogEntry{
			ID:          t.ID,
			Description: t.Description,
			Actions:     actions,
			Params:      params,
		})
	}
	return res
}

// Action resolves an action by ID
func (t *Tool) Action(id api.ActionID) (*Action, bool) {
	a, ok := t.Actions[id]
	return a, ok
}

// FilterParams drops any parameter the action does not declare, returning
// the filtered set and the names that were removed
func (a *Action) FilterParams(p api.Params) (api.Params, []string) {
	filtered := api.Params{}
	var dropped []string
	for name, value := range p {
		if a.Params.Contains(name) {
			filtered[name] = value
			continue
		}
		dropped = append(dropped, name)
	}
	return filtered, dropped
}
