package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/pkg/api"
	"github.com/opsline/engine/pkg/log"
)

// Narrator produces the human-readable summary of an aggregated run. Without
// a language model it falls back to a deterministic rendering, so a summary
// is always produced
type Narrator struct {
	llm    llm.Client
	logger *slog.Logger
}

const narratorSystemPrompt = `You are a precise research assistant. Write a
concise answer to the user's task from the tool data provided. Use only the
data given. Mention any failed lookups briefly. Plain prose, no headings.`

// NewNarrator creates a Narrator. A nil client disables model-backed
// summaries
func NewNarrator(client llm.Client, logger *slog.Logger) *Narrator {
	return &Narrator{
		llm:    client,
		logger: logger,
	}
}

// Summarize renders the aggregated view into prose for the final report
func (n *Narrator) Summarize(
	ctx context.Context, task string, view *api.AggregatedView,
) string {
	if n.llm == nil {
		return fallbackSummary(task, view)
	}

	data, err := json.Marshal(view.ByTool)
	if err != nil {
		return fallbackSummary(task, view)
	}
	res, err := n.llm.GenerateText(ctx, llm.Request{
		System: narratorSystemPrompt,
		User: fmt.Sprintf("Task: %s\n\nTool data:\n%s\n\nFailures: %s",
			task, data, failureList(view)),
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil {
		n.logger.Warn("narrator unavailable, using fallback summary",
			log.Error(err),
		)
		return fallbackSummary(task, view)
	}
	return strings.TrimSpace(res)
}

// fallbackSummary lists each tool's contribution without interpretation
func fallbackSummary(task string, view *api.AggregatedView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Results for: %s\n", task)

	tools := make([]api.ToolID, 0, len(view.ByTool))
	for id := range view.ByTool {
		tools = append(tools, id)
	}
	sortToolIDs(tools)

	for _, id := range tools {
		switch payload := view.ByTool[id].(type) {
		case api.Params:
			fmt.Fprintf(&b, "- %s: %s\n", id, payloadLine(payload))
		case []api.Params:
			fmt.Fprintf(&b, "- %s (%d results):\n", id, len(payload))
			for _, entry := range payload {
				fmt.Fprintf(&b, "  - %s\n", payloadLine(entry))
			}
		}
	}
	for _, failure := range view.Failed {
		fmt.Fprintf(&b, "- %s failed: %s\n", failure.Tool, failure.Error)
	}
	return strings.TrimSpace(b.String())
}

// payloadLine picks the most recognizable field of a payload for the
// fallback listing
func payloadLine(payload api.Params) string {
	if label, ok := payload[api.ContextKey].(string); ok && label != "" {
		return label
	}
	for _, key := range []string{
		"summary", "title", "name", "city", "query", "coin", "region",
	} {
		if value, ok := payload[key].(string); ok && value != "" {
			return value
		}
	}
	return "data retrieved"
}

func failureList(view *api.AggregatedView) string {
	if len(view.Failed) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(view.Failed))
	for _, failure := range view.Failed {
		parts = append(parts,
			fmt.Sprintf("%s: %s", failure.Tool, failure.Error))
	}
	return strings.Join(parts, "; ")
}

func sortToolIDs(ids []api.ToolID) {
	sort.Slice(ids, func(l, r int) bool {
		return ids[l] < ids[r]
	})
}
