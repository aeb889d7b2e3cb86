package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/util"
)

type (
	// Corrector fixes misspelled or non-standard queries before they reach
	// a remote service, using the LLM with a context hint. Corrections are
	// memoized; on any LLM failure the original query passes through
	// unchanged
	Corrector struct {
		llm  llm.Client
		memo *util.LRUCache[correction]
	}

	correction struct {
		Corrected string `json:"corrected"`
		Note      string `json:"note"`
	}
)

const correctionMemoSize = 512

var correctionGuidance = map[string]string{
	"city": "This is a city name. Correct to standard city spelling " +
		"(e.g., 'Bengalore' -> 'Bangalore', 'Londn' -> 'London').",
	"crypto": "This is a cryptocurrency name. Correct to standard " +
		"CoinGecko ID format (e.g., 'btc' -> 'bitcoin').",
	"general": "This could be any type of query. Intelligently correct " +
		"typos and variations based on common patterns.",
}

const correctorSystemPrompt = `You are a query correction assistant. Correct misspelled or non-standard queries to their proper, commonly recognized form.

Context: %s

Rules:
1. If the input is a valid query (even slightly misspelled), correct it to the standard spelling/format
2. If the input is clearly invalid (random characters, gibberish), return the original unchanged
3. Return ONLY a JSON object with "corrected" (the corrected query) and "note" (brief explanation, or empty string if no correction needed)`

// NewCorrector creates a corrector backed by the given LLM client, which
// may be nil to disable correction entirely
func NewCorrector(client llm.Client) *Corrector {
	return &Corrector{
		llm:  client,
		memo: util.NewLRUCache[correction](correctionMemoSize),
	}
}

// Correct returns the corrected query and a human-readable correction note,
// or the original query and an empty note when no correction applies
func (c *Corrector) Correct(
	ctx context.Context, query, hint string,
) (string, string) {
	query = strings.TrimSpace(query)

	minLength := 3
	if hint == "crypto" {
		minLength = 2
	}
	if c.llm == nil || LikelyInvalid(query, minLength) {
		return query, ""
	}

	memoKey := hint + ":" + strings.ToLower(query)
	if cached, ok := c.memo.Get(memoKey); ok {
		return c.apply(query, cached)
	}

	guidance, ok := correctionGuidance[hint]
	if !ok {
		guidance = correctionGuidance["general"]
	}

	raw, err := c.llm.GenerateJSON(ctx, llm.Request{
		System:      fmt.Sprintf(correctorSystemPrompt, guidance),
		User:        "Correct this query if it's misspelled or non-standard: " + query,
		Temperature: 0.1,
		MaxTokens:   150,
	})
	if err != nil {
		slog.Warn("Query correction failed, using original",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return query, ""
	}

	var result correction
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("Query correction returned malformed JSON",
			slog.String("query", query))
		return query, ""
	}

	c.memo.Put(memoKey, result)
	return c.apply(query, result)
}

func (c *Corrector) apply(query string, result correction) (string, string) {
	if result.Corrected == "" ||
		strings.EqualFold(result.Corrected, query) {
		return query, ""
	}
	return result.Corrected, result.Note
}

// LikelyInvalid reports whether a query looks like gibberish rather than a
// typo: too short, mostly non-alphanumeric, or short strings mixing digits
// with filler letter runs
func LikelyInvalid(query string, minLength int) bool {
	query = strings.TrimSpace(query)
	if len(query) < minLength {
		return true
	}

	lower := strings.ToLower(query)
	hasDigits := strings.ContainsAny(query, "0123456789")
	if len(query) < 8 && hasDigits &&
		(strings.Contains(lower, "xyz") || strings.Contains(lower, "abc")) {
		return true
	}

	alnum := 0
	for _, r := range query {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
			('0' <= r && r <= '9') {
			alnum++
		}
	}
	return alnum < minLength
}

// ErrorReason builds a helpful failure message explaining why a query
// produced no results for a given tool
func ErrorReason(tool, query, errMsg string) string {
	switch tool {
	case "weather":
		if LikelyInvalid(query, 3) {
			return fmt.Sprintf(
				"No weather data found for %q. The city name appears to "+
					"be invalid. Please provide a valid city name "+
					"(e.g., 'London', 'New York', 'Tokyo').", query)
		}
		return fmt.Sprintf(
			"No weather data found for %q. The city name may be "+
				"misspelled or missing from the weather database. Please "+
				"check the spelling and try again.", query)
	case "crypto":
		if LikelyInvalid(query, 2) {
			return fmt.Sprintf(
				"Cryptocurrency %q not found. The coin name appears to "+
					"be invalid. Please provide a valid coin ID "+
					"(e.g., 'bitcoin', 'ethereum', 'cardano').", query)
		}
		return fmt.Sprintf(
			"Cryptocurrency %q not found. The coin name may be "+
				"misspelled or not supported. Common examples: "+
				"'bitcoin', 'ethereum'.", query)
	case "github":
		return fmt.Sprintf(
			"Repository search for %q returned no results. The query "+
				"may be too specific. Try a broader search term.", query)
	default:
		return "Error: " + errMsg
	}
}
