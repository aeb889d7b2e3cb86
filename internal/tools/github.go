package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

// githubTool adapts the GitHub REST API
type githubTool struct {
	fetch *Fetcher
}

const githubBaseURL = "https://api.github.com"

func newGitHubTool(s *Settings) *Tool {
	headers := map[string]string{
		"Accept": "application/vnd.github+json",
	}
	if s.GitHubToken != "" {
		headers["Authorization"] = "Bearer " + s.GitHubToken
	}

	g := &githubTool{fetch: NewFetcher(s, headers)}
	return &Tool{
		ID:          "github",
		Description: "Search repositories, get stars, contributors",
		Actions: map[api.ActionID]*Action{
			"search_repositories": {
				Params: util.SetOf("query", "limit", "sort"),
				Invoke: g.searchRepositories,
			},
			"get_repository": {
				Params: util.SetOf("owner", "repo"),
				Invoke: g.getRepository,
			},
			"get_contributors": {
				Params: util.SetOf("owner", "repo", "limit"),
				Invoke: g.getContributors,
			},
		},
	}
}

func (g *githubTool) searchRepositories(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	query := strings.TrimSpace(params.GetString("query", ""))
	if query == "" {
		return api.ToolErrorf(
			"Query parameter cannot be empty. For top repositories, use " +
				"a query like 'stars:>1000' or specify a language/topic.")
	}

	limit := params.GetInt("limit", 5)
	sort := params.GetString("sort", "stars")

	data, err := g.fetch.GetJSON(ctx,
		githubBaseURL+"/search/repositories", url.Values{
			"q":        {query},
			"sort":     {sort},
			"order":    {"desc"},
			"per_page": {strconv.Itoa(limit)},
		})
	if err != nil {
		return api.ToolErrorf("GitHub API error: %s", err)
	}

	var repos []api.Params
	for _, item := range data.Get("items").Array() {
		if len(repos) >= limit {
			break
		}
		repos = append(repos, api.Params{
			"name":        item.Get("full_name").String(),
			"description": item.Get("description").String(),
			"stars":       item.Get("stargazers_count").Int(),
			"forks":       item.Get("forks_count").Int(),
			"language":    item.Get("language").String(),
			"url":         item.Get("html_url").String(),
			"topics":      stringValues(item.Get("topics")),
		})
	}

	return api.NewToolResult(api.Params{
		"query":        query,
		"total_count":  data.Get("total_count").Int(),
		"repositories": repos,
	})
}

func (g *githubTool) getRepository(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	owner := params.GetString("owner", "")
	repo := params.GetString("repo", "")

	data, err := g.fetch.GetJSON(ctx,
		fmt.Sprintf("%s/repos/%s/%s", githubBaseURL, owner, repo), nil)
	if err != nil {
		return api.ToolErrorf("GitHub API error: %s", err)
	}

	return api.NewToolResult(api.Params{
		"name":        data.Get("full_name").String(),
		"description": data.Get("description").String(),
		"stars":       data.Get("stargazers_count").Int(),
		"forks":       data.Get("forks_count").Int(),
		"watchers":    data.Get("watchers_count").Int(),
		"language":    data.Get("language").String(),
		"created_at":  data.Get("created_at").String(),
		"updated_at":  data.Get("updated_at").String(),
		"topics":      stringValues(data.Get("topics")),
		"url":         data.Get("html_url").String(),
	})
}

func (g *githubTool) getContributors(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	owner := params.GetString("owner", "")
	repo := params.GetString("repo", "")
	limit := params.GetInt("limit", 5)

	data, err := g.fetch.GetJSON(ctx,
		fmt.Sprintf("%s/repos/%s/%s/contributors",
			githubBaseURL, owner, repo),
		url.Values{"per_page": {strconv.Itoa(limit)}})
	if err != nil {
		return api.ToolErrorf("GitHub API error: %s", err)
	}

	var contributors []api.Params
	for _, item := range data.Array() {
		if len(contributors) >= limit {
			break
		}
		contributors = append(contributors, api.Params{
			"username":      item.Get("login").String(),
			"contributions": item.Get("contributions").Int(),
			"profile_url":   item.Get("html_url").String(),
		})
	}

	return api.NewToolResult(api.Params{
		"repository":   owner + "/" + repo,
		"contributors": contributors,
	})
}

func stringValues(result gjson.Result) []string {
	arr := result.Array()
	res := make([]string, 0, len(arr))
	for _, item := range arr {
		res = append(res, item.String())
	}
	return res
}
