package tools

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/opsline/engine/internal/retry"
	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

// weatherTool adapts the OpenWeatherMap API
type weatherTool struct {
	fetch     *Fetcher
	corrector *Corrector
	apiKey    string
}

const weatherBaseURL = "https://api.openweathermap.org/data/2.5"

func newWeatherTool(s *Settings, corrector *Corrector) *Tool {
	w := &weatherTool{
		fetch:     NewFetcher(s, nil),
		corrector: corrector,
		apiKey:    s.WeatherAPIKey,
	}
	return &Tool{
		ID:          "weather",
		Description: "Get current weather and forecasts",
		Actions: map[api.ActionID]*Action{
			"get_current_weather": {
				Params: util.SetOf("city", "units"),
				Invoke: w.getCurrentWeather,
			},
			"get_forecast": {
				Params: util.SetOf("city", "days", "units"),
				Invoke: w.getForecast,
			},
		},
	}
}

func (w *weatherTool) getCurrentWeather(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	if w.apiKey == "" {
		return api.ToolErrorf("OPENWEATHERMAP_API_KEY not configured")
	}

	city := params.GetString("city", "")
	units := params.GetString("units", "metric")

	original := city
	city, note := w.corrector.Correct(ctx, city, "city")

	query := url.Values{
		"q":     {city},
		"appid": {w.apiKey},
		"units": {units},
	}
	data, err := w.fetch.GetJSON(ctx, weatherBaseURL+"/weather", query)
	if err != nil {
		return weatherError(original, err)
	}

	unit := tempUnit(units)
	result := api.Params{
		"city":        data.Get("name").String(),
		"country":     data.Get("sys.country").String(),
		"temperature": data.Get("main.temp").String() + unit,
		"feels_like":  data.Get("main.feels_like").String() + unit,
		"humidity":    data.Get("main.humidity").String() + "%",
		"description": data.Get("weather.0.description").String(),
		"wind_speed":  data.Get("wind.speed").String() + " m/s",
		"coordinates": api.Params{
			"lat": data.Get("coord.lat").Float(),
			"lon": data.Get("coord.lon").Float(),
		},
	}
	if note != "" {
		result["correction_note"] = note
	}
	return api.NewToolResult(result)
}

func (w *weatherTool) getForecast(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	if w.apiKey == "" {
		return api.ToolErrorf("OPENWEATHERMAP_API_KEY not configured")
	}

	city := params.GetString("city", "")
	days := params.GetInt("days", 3)
	units := params.GetString("units", "metric")

	original := city
	city, note := w.corrector.Correct(ctx, city, "city")

	query := url.Values{
		"q":     {city},
		"appid": {w.apiKey},
		"units": {units},
		"cnt":   {strconv.Itoa(min(days*8, 40))},
	}
	data, err := w.fetch.GetJSON(ctx, weatherBaseURL+"/forecast", query)
	if err != nil {
		return weatherError(original, err)
	}

	unit := tempUnit(units)
	var forecast []api.Params
	items := data.Get("list").Array()
	// The API returns one entry per 3 hours; sample one per day
	for i := 0; i < len(items) && len(forecast) < days; i += 8 {
		item := items[i]
		forecast = append(forecast, api.Params{
			"date":        item.Get("dt_txt").String(),
			"temperature": item.Get("main.temp").String() + unit,
			"description": item.Get("weather.0.description").String(),
			"humidity":    item.Get("main.humidity").String() + "%",
		})
	}

	result := api.Params{
		"city":     data.Get("city.name").String(),
		"country":  data.Get("city.country").String(),
		"forecast": forecast,
	}
	if note != "" {
		result["correction_note"] = note
	}
	return api.NewToolResult(result)
}

func weatherError(city string, err error) *api.ToolResult {
	var se *retry.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return api.ToolErrorf(
			"%s", ErrorReason("weather", city, "city not found"))
	}
	return api.ToolErrorf("Weather API error: %s", err)
}

func tempUnit(units string) string {
	switch units {
	case "metric":
		return "°C"
	case "imperial":
		return "°F"
	default:
		return "K"
	}
}
