package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/pkg/api"
)

// cryptoTool adapts the CoinGecko public API
type cryptoTool struct {
	fetch     *Fetcher
	corrector *Corrector
}

const cryptoBaseURL = "https://api.coingecko.com/api/v3"

func newCryptoTool(s *Settings, corrector *Corrector) *Tool {
	c := &cryptoTool{
		fetch:     NewFetcher(s, nil),
		corrector: corrector,
	}
	return &Tool{
		ID:          "crypto",
		Description: "Cryptocurrency prices, trending coins, market data",
		Actions: map[api.ActionID]*Action{
			"get_price": {
				Params: util.SetOf("coin_id", "vs_currency"),
				Invoke: c.getPrice,
			},
			"get_trending": {
				Params: util.Set[string]{},
				Invoke: c.getTrending,
			},
			"get_market_data": {
				Params: util.SetOf("coin_id", "vs_currency"),
				Invoke: c.getMarketData,
			},
		},
	}
}

func (c *cryptoTool) getPrice(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	coin := normalizeCoin(params.GetString("coin_id", "bitcoin"))
	currency := strings.ToLower(params.GetString("vs_currency", "usd"))

	coin, note := c.corrector.Correct(ctx, coin, "crypto")
	coin = normalizeCoin(coin)

	data, err := c.fetch.GetJSON(ctx, cryptoBaseURL+"/simple/price",
		url.Values{
			"ids":                 {coin},
			"vs_currencies":       {currency},
			"include_market_cap":  {"true"},
			"include_24hr_change": {"true"},
		})
	if err != nil {
		return api.ToolErrorf("CoinGecko API error: %s", err)
	}

	entry := data.Get(coin)
	if !entry.Exists() {
		return api.ToolErrorf("%s",
			ErrorReason("crypto", coin, "coin not found"))
	}

	res := api.Params{
		"coin":           coin,
		"currency":       strings.ToUpper(currency),
		"price":          entry.Get(currency).Float(),
		"market_cap":     entry.Get(currency + "_market_cap").Float(),
		"change_24h_pct": entry.Get(currency + "_24h_change").Float(),
	}
	if note != "" {
		res["correction_note"] = note
	}
	return api.NewToolResult(res)
}

func (c *cryptoTool) getTrending(
	ctx context.Context, _ api.Params,
) *api.ToolResult {
	data, err := c.fetch.GetJSON(ctx, cryptoBaseURL+"/search/trending", nil)
	if err != nil {
		return api.ToolErrorf("CoinGecko API error: %s", err)
	}

	var coins []api.Params
	for _, item := range data.Get("coins").Array() {
		if len(coins) >= 7 {
			break
		}
		coins = append(coins, api.Params{
			"name":            item.Get("item.name").String(),
			"symbol":          item.Get("item.symbol").String(),
			"market_cap_rank": item.Get("item.market_cap_rank").Int(),
		})
	}

	return api.NewToolResult(api.Params{
		"trending": coins,
	})
}

func (c *cryptoTool) getMarketData(
	ctx context.Context, params api.Params,
) *api.ToolResult {
	coin := normalizeCoin(params.GetString("coin_id", "bitcoin"))
	currency := strings.ToLower(params.GetString("vs_currency", "usd"))

	coin, note := c.corrector.Correct(ctx, coin, "crypto")
	coin = normalizeCoin(coin)

	data, err := c.fetch.GetJSON(ctx,
		cryptoBaseURL+"/coins/"+url.PathEscape(coin), url.Values{
			"localization":   {"false"},
			"tickers":        {"false"},
			"community_data": {"false"},
			"developer_data": {"false"},
		})
	if err != nil {
		return api.ToolErrorf("%s",
			ErrorReason("crypto", coin, err.Error()))
	}

	market := data.Get("market_data")
	res := api.Params{
		"coin":            coin,
		"currency":        strings.ToUpper(currency),
		"name":            data.Get("name").String(),
		"symbol":          data.Get("symbol").String(),
		"market_cap_rank": data.Get("market_cap_rank").Int(),
		"price":           market.Get("current_price." + currency).Float(),
		"market_cap":      market.Get("market_cap." + currency).Float(),
		"volume_24h":      market.Get("total_volume." + currency).Float(),
		"change_24h_pct":  market.Get("price_change_percentage_24h").Float(),
		"high_24h":        market.Get("high_24h." + currency).Float(),
		"low_24h":         market.Get("low_24h." + currency).Float(),
		"circulating":     market.Get("circulating_supply").Float(),
		"last_updated":    data.Get("last_updated").String(),
	}
	if note != "" {
		res["correction_note"] = note
	}
	return api.NewToolResult(res)
}

// normalizeCoin maps common tickers to CoinGecko IDs
func normalizeCoin(coin string) string {
	coin = strings.ToLower(strings.TrimSpace(coin))
	if id, ok := coinAliases[coin]; ok {
		return id
	}
	return strings.ReplaceAll(coin, " ", "-")
}

var coinAliases = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"sol":  "solana",
	"doge": "dogecoin",
	"ada":  "cardano",
	"xrp":  "ripple",
	"dot":  "polkadot",
	"ltc":  "litecoin",
}
