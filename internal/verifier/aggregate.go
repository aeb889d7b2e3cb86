// Package verifier turns raw step outcomes into a verified report. It
// aggregates per-tool payloads, extracts citations and advisories, asks the
// narrator for a summary, and records what could not be confirmed
package verifier

import (
	"fmt"
	"sort"

	"github.com/opsline/engine/pkg/api"
)

const maxContextQueryLen = 50

// Aggregate folds a plan's outcomes into a single read-only view. Repeat
// outputs of one tool become an ordered list, each payload labeled from its
// own well-known fields
func Aggregate(res *api.PlanResult) *api.AggregatedView {
	view := &api.AggregatedView{
		ByTool:   map[api.ToolID]any{},
		Complete: true,
	}

	counts := map[api.ToolID]int{}
	for _, outcome := range res.Outcomes {
		if outcome != nil && outcome.Success {
			counts[outcome.Tool]++
		}
	}

	for _, outcome := range res.Outcomes {
		if outcome == nil {
			continue
		}
		if !outcome.Success {
			view.Complete = false
			view.Failed = append(view.Failed, api.StepFailure{
				Tool:  outcome.Tool,
				Error: outcome.Error,
			})
			continue
		}

		payload := outcome.Data
		if counts[outcome.Tool] > 1 {
			if label := contextLabel(outcome); label != "" {
				payload = payload.Clone()
				payload[api.ContextKey] = label
			}
		}

		switch prev := view.ByTool[outcome.Tool].(type) {
		case nil:
			view.ByTool[outcome.Tool] = payload
		case []api.Params:
			view.ByTool[outcome.Tool] = append(prev, payload)
		case api.Params:
			view.ByTool[outcome.Tool] = []api.Params{prev, payload}
		}

		collectCitations(view, payload)
		collectAdvisories(view, payload)
	}
	return view
}

// contextLabel names the subject that distinguishes one invocation of a
// tool from its repeats, read from the payload the tool reported so any
// query correction applied on the way in is reflected
func contextLabel(outcome *api.StepOutcome) string {
	data := outcome.Data
	switch outcome.Tool {
	case "weather":
		if city := data.GetString("city", ""); city != "" {
			return "Weather for " + city
		}
	case "github":
		if query := data.GetString("query", ""); query != "" {
			return "GitHub search: " + truncate(query, maxContextQueryLen)
		}
	case "news":
		if query := data.GetString("query", ""); query != "" {
			return "News about " + truncate(query, maxContextQueryLen)
		}
	case "wikipedia":
		if title := data.GetString("title", ""); title != "" {
			return "Wikipedia: " + title
		}
		if query := data.GetString("query", ""); query != "" {
			return "Wikipedia search: " + query
		}
	case "crypto":
		if coin := data.GetString("coin", ""); coin != "" {
			return "Crypto: " + coin
		}
	case "countries":
		if name := data.GetString("name", ""); name != "" {
			return "Country: " + name
		}
		if region := data.GetString("region", ""); region != "" {
			return "Region: " + region
		}
	}
	return fmt.Sprintf("%s.%s", outcome.Tool, outcome.Action)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

// collectCitations walks the payload for url fields, preserving discovery
// order and dropping duplicates
func collectCitations(view *api.AggregatedView, payload api.Params) {
	seen := map[string]bool{}
	for _, url := range view.Citations {
		seen[url] = true
	}
	walkCitations(payload, func(url string) {
		if !seen[url] {
			seen[url] = true
			view.Citations = append(view.Citations, url)
		}
	})
}

func walkCitations(value any, visit func(string)) {
	switch value := value.(type) {
	case api.Params:
		walkCitationMap(value, visit)
	case map[string]any:
		walkCitationMap(value, visit)
	case []api.Params:
		for _, entry := range value {
			walkCitations(entry, visit)
		}
	case []any:
		for _, entry := range value {
			walkCitations(entry, visit)
		}
	}
}

func walkCitationMap(m map[string]any, visit func(string)) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := m[key]
		if key == "url" || key == "html_url" || key == "profile_url" {
			if url, ok := value.(string); ok && url != "" {
				visit(url)
			}
			continue
		}
		walkCitations(value, visit)
	}
}

func collectAdvisories(view *api.AggregatedView, payload api.Params) {
	for _, key := range []string{"suggestion", "correction_note"} {
		if note, ok := payload[key].(string); ok && note != "" {
			view.Advisories = append(view.Advisories, note)
		}
	}
}
