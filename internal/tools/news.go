package tools

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

// newsTool adapts the NewsAPI.org endpoints
type newsTool struct {
	fetch  *Fetcher
	apiKey string
}

const newsBaseURL = "https://newsapi.org/v2"

func newNewsTool(s *Settings) *Tool {
	n := &newsTool{
		fetch:  NewFetcher(s, nil),
		apiKey: s.NewsAPIKey,
	}
	return &Tool{
		ID:          "news",
		Description: "Current headlines and article search",
		Actions: map[api.ActionID]*Action{
			"get_top_headlines": {
				Params: util.SetOf("query", "country", "category", "limit"),
				Invoke: n.getTopHeadlines,
			},
			"search_news": {
				Params: util.SetOf(
					"query", "from_date", "language", "limit",
				),
				Invoke: n.searchNews,
			},
		},
	}
}

func (n *newsTool) getTopHeadlines(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	if n.apiKey == "" {
		return api.ToolErrorf("NEWS_API_KEY not configured")
	}

	query := params.GetString("query", "")
	country := params.GetString("country", "")
	category := params.GetString("category", "")
	limit := params.GetInt("limit", 5)

	values := url.Values{
		"apiKey":   {n.apiKey},
		"pageSize": {strconv.Itoa(limit)},
	}
	if query != "" {
		values.Set("q", query)
	}
	if country != "" {
		values.Set("country", country)
	}
	if category != "" {
		values.Set("category", category)
	}
	if query == "" && country == "" && category == "" {
		values.Set("country", "us")
	}

	data, err := n.fetch.GetJSON(ctx, newsBaseURL+"/top-headlines", values)
	if err != nil {
		return api.ToolErrorf("News API error: %s", err)
	}
	if status := data.Get("status").String(); status != "ok" {
		return api.ToolErrorf(
			"News API error: %s", data.Get("message").String())
	}

	res := api.Params{
		"total_results": data.Get("totalResults").Int(),
		"articles":      articlesOf(data, limit),
	}
	if data.Get("totalResults").Int() == 0 && query == "" && country != "" {
		res["suggestion"] = "No headlines for this country right now. " +
			"Try a query or category filter instead."
	}
	return api.NewToolResult(res)
}

func (n *newsTool) searchNews(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	if n.apiKey == "" {
		return api.ToolErrorf("NEWS_API_KEY not configured")
	}

	query := params.GetString("query", "")
	if query == "" {
		return api.ToolErrorf("Query parameter is required for news search")
	}

	fromDate := params.GetString("from_date", "")
	if fromDate == "" {
		fromDate = time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	}
	language := params.GetString("language", "en")
	limit := params.GetInt("limit", 5)

	data, err := n.fetch.GetJSON(ctx, newsBaseURL+"/everything", url.Values{
		"apiKey":   {n.apiKey},
		"q":        {query},
		"from":     {fromDate},
		"language": {language},
		"sortBy":   {"relevancy"},
		"pageSize": {strconv.Itoa(limit)},
	})
	if err != nil {
		return api.ToolErrorf("News API error: %s", err)
	}
	if status := data.Get("status").String(); status != "ok" {
		return api.ToolErrorf(
			"News API error: %s", data.Get("message").String())
	}

	return api.NewToolResult(api.Params{
		"query":         query,
		"from_date":     fromDate,
		"total_results": data.Get("totalResults").Int(),
		"articles":      articlesOf(data, limit),
	})
}

func articlesOf(data gjson.Result, limit int) []api.Params {
	var articles []api.Params
	for _, item := range data.Get("articles").Array() {
		if len(articles) >= limit {
			break
		}
		articles = append(articles, api.Params{
			"title":        item.Get("title").String(),
			"source":       item.Get("source.name").String(),
			"description":  item.Get("description").String(),
			"url":          item.Get("url").String(),
			"published_at": item.Get("publishedAt").String(),
		})
	}
	return articles
}
