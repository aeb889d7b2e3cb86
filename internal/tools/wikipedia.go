package tools

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

// wikipediaTool adapts the Wikipedia opensearch and REST summary APIs
type wikipediaTool struct {
	fetch *Fetcher
}

const (
	wikipediaAPIURL     = "https://en.wikipedia.org/w/api.php"
	wikipediaSummaryURL = "https://en.wikipedia.org/api/rest_v1/page/summary"
)

func newWikipediaTool(s *Settings) *Tool {
	w := &wikipediaTool{fetch: NewFetcher(s, nil)}
	return &Tool{
		ID:          "wikipedia",
		Description: "Article search and page summaries",
		Actions: map[api.ActionID]*Action{
			"search": {
				Params: util.SetOf("query", "limit"),
				Invoke: w.search,
			},
			"get_summary": {
				Params: util.SetOf("title"),
				Invoke: w.getSummary,
			},
		},
	}
}

func (w *wikipediaTool) search(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	query := strings.TrimSpace(params.GetString("query", ""))
	if query == "" {
		return api.ToolErrorf("Query parameter is required")
	}
	limit := params.GetInt("limit", 5)

	data, err := w.fetch.GetJSON(ctx, wikipediaAPIURL, url.Values{
		"action": {"opensearch"},
		"search": {query},
		"limit":  {strconv.Itoa(limit)},
		"format": {"json"},
	})
	if err != nil {
		return api.ToolErrorf("Wikipedia API error: %s", err)
	}

	// opensearch replies with [query, [titles], [descriptions], [urls]]
	titles := data.Get("1").Array()
	descriptions := data.Get("2").Array()
	urls := data.Get("3").Array()

	results := make([]api.Params, 0, len(titles))
	for i, title := range titles {
		entry := api.Params{
			"title": title.String(),
		}
		if i < len(descriptions) {
			entry["description"] = descriptions[i].String()
		}
		if i < len(urls) {
			entry["url"] = urls[i].String()
		}
		results = append(results, entry)
	}

	if len(results) == 0 {
		return api.NewToolResult(api.Params{
			"query":      query,
			"results":    results,
			"suggestion": "No articles found. Try different search terms.",
		})
	}
	return api.NewToolResult(api.Params{
		"query":   query,
		"results": results,
	})
}

func (w *wikipediaTool) getSummary(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	title := strings.TrimSpace(params.GetString("title", ""))
	if title == "" {
		return api.ToolErrorf("Title parameter is required")
	}

	encoded := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	data, err := w.fetch.GetJSON(ctx,
		wikipediaSummaryURL+"/"+encoded, nil)
	if err != nil {
		return api.ToolErrorf("No Wikipedia page found for '%s'", title)
	}

	return api.NewToolResult(api.Params{
		"title":       data.Get("title").String(),
		"summary":     data.Get("extract").String(),
		"description": data.Get("description").String(),
		"url":         data.Get("content_urls.desktop.page").String(),
	})
}
