package tools

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

// countriesTool adapts the REST Countries API
type countriesTool struct {
	fetch *Fetcher
}

const countriesBaseURL = "https://restcountries.com/v3.1"

func newCountriesTool(s *Settings) *Tool {
	c := &countriesTool{fetch: NewFetcher(s, nil)}
	return &Tool{
		ID:          "countries",
		Description: "Country facts: population, capital, region, currency",
		Actions: map[api.ActionID]*Action{
			"get_country_by_name": {
				Params: util.SetOf("name"),
				Invoke: c.getCountryByName,
			},
			"get_countries_by_region": {
				Params: util.SetOf("region", "limit"),
				Invoke: c.getCountriesByRegion,
			},
			"get_country_by_code": {
				Params: util.SetOf("code"),
				Invoke: c.getCountryByCode,
			},
		},
	}
}

func (c *countriesTool) getCountryByName(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	name := strings.TrimSpace(params.GetString("name", ""))
	if name == "" {
		return api.ToolErrorf("Name parameter is required")
	}

	data, err := c.fetch.GetJSON(ctx,
		countriesBaseURL+"/name/"+url.PathEscape(name), nil)
	if err != nil {
		return api.ToolErrorf("Countries API error: %s", err)
	}

	matches := data.Array()
	if len(matches) == 0 {
		return api.ToolErrorf("No country found matching '%s'", name)
	}
	return api.NewToolResult(countryOf(matches[0]))
}

func (c *countriesTool) getCountriesByRegion(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	region := strings.TrimSpace(params.GetString("region", ""))
	if region == "" {
		return api.ToolErrorf("Region parameter is required")
	}
	limit := params.GetInt("limit", 10)

	data, err := c.fetch.GetJSON(ctx,
		countriesBaseURL+"/region/"+url.PathEscape(region), nil)
	if err != nil {
		return api.ToolErrorf("Countries API error: %s", err)
	}

	matches := data.Array()
	sort.Slice(matches, func(l, r int) bool {
		return matches[l].Get("population").Int() >
			matches[r].Get("population").Int()
	})

	var countries []api.Params
	for _, item := range matches {
		if len(countries) >= limit {
			break
		}
		countries = append(countries, api.Params{
			"name":       item.Get("name.common").String(),
			"capital":    item.Get("capital.0").String(),
			"population": item.Get("population").Int(),
		})
	}

	return api.NewToolResult(api.Params{
		"region":    region,
		"count":     len(matches),
		"countries": countries,
	})
}

func (c *countriesTool) getCountryByCode(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	code := strings.TrimSpace(params.GetString("code", ""))
	if code == "" {
		return api.ToolErrorf("Code parameter is required")
	}

	data, err := c.fetch.GetJSON(ctx,
		countriesBaseURL+"/alpha/"+url.PathEscape(code), nil)
	if err != nil {
		return api.ToolErrorf("Countries API error: %s", err)
	}

	match := data
	if arr := data.Array(); data.IsArray() {
		if len(arr) == 0 {
			return api.ToolErrorf("No country found for code '%s'", code)
		}
		match = arr[0]
	}
	return api.NewToolResult(countryOf(match))
}

func countryOf(item gjson.Result) api.Params {
	var currencies []string
	item.Get("currencies").ForEach(
		func(code, value gjson.Result) bool {
			currencies = append(currencies,
				value.Get("name").String()+" ("+code.String()+")")
			return true
		})

	var languages []string
	item.Get("languages").ForEach(
		func(_, value gjson.Result) bool {
			languages = append(languages, value.String())
			return true
		})
	sort.Strings(languages)

	return api.Params{
		"name":       item.Get("name.common").String(),
		"official":   item.Get("name.official").String(),
		"capital":    item.Get("capital.0").String(),
		"region":     item.Get("region").String(),
		"subregion":  item.Get("subregion").String(),
		"population": item.Get("population").Int(),
		"area_km2":   item.Get("area").Float(),
		"currencies": currencies,
		"languages":  languages,
		"flag":       item.Get("flag").String(),
	}
}
