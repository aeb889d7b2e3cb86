package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/tools"
)

// fakeLLM returns canned completions and counts calls
type fakeLLM struct {
	text  string
	data  string
	err   error
	calls atomic.Int32
}

func (f *fakeLLM) GenerateText(
	context.Context, llm.Request,
) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func (f *fakeLLM) GenerateJSON(
	context.Context, llm.Request,
) ([]byte, error) {
	f.calls.Add(1)
	return []byte(f.data), f.err
}

func TestCorrectAppliesCorrection(t *testing.T) {
	client := &fakeLLM{data: mustJSON(map[string]string{
		"corrected": "London",
		"note":      "Corrected 'Londn' to 'London'",
	})}
	c := tools.NewCorrector(client)

	corrected, note := c.Correct(context.Background(), "Londn", "city")
	assert.Equal(t, "London", corrected)
	assert.Contains(t, note, "London")
}

func TestCorrectMemoizes(t *testing.T) {
	client := &fakeLLM{data: mustJSON(map[string]string{
		"corrected": "bitcoin",
		"note":      "expanded ticker",
	})}
	c := tools.NewCorrector(client)

	for i := 0; i < 3; i++ {
		corrected, _ := c.Correct(context.Background(), "bitcoyn", "crypto")
		assert.Equal(t, "bitcoin", corrected)
	}
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestCorrectNoChange(t *testing.T) {
	client := &fakeLLM{data: mustJSON(map[string]string{
		"corrected": "london",
		"note":      "already valid",
	})}
	c := tools.NewCorrector(client)

	corrected, note := c.Correct(context.Background(), "London", "city")
	assert.Equal(t, "London", corrected)
	assert.Empty(t, note)
}

func TestCorrectNilClientPassthrough(t *testing.T) {
	c := tools.NewCorrector(nil)
	corrected, note := c.Correct(context.Background(), "Londn", "city")
	assert.Equal(t, "Londn", corrected)
	assert.Empty(t, note)
}

func TestCorrectSkipsGibberish(t *testing.T) {
	client := &fakeLLM{data: `{"corrected": "nonsense"}`}
	c := tools.NewCorrector(client)

	corrected, _ := c.Correct(context.Background(), "@#", "city")
	assert.Equal(t, "@#", corrected)
	assert.Equal(t, int32(0), client.calls.Load())
}

func TestCorrectMalformedResponsePassthrough(t *testing.T) {
	client := &fakeLLM{data: "not json at all"}
	c := tools.NewCorrector(client)

	corrected, note := c.Correct(context.Background(), "Londn", "city")
	assert.Equal(t, "Londn", corrected)
	assert.Empty(t, note)
}

func TestLikelyInvalid(t *testing.T) {
	assert.True(t, tools.LikelyInvalid("", 3))
	assert.True(t, tools.LikelyInvalid("ab", 3))
	assert.True(t, tools.LikelyInvalid("@#$%", 3))
	assert.True(t, tools.LikelyInvalid("xyz123", 3))

	assert.False(t, tools.LikelyInvalid("London", 3))
	assert.False(t, tools.LikelyInvalid("btc", 2))
	assert.False(t, tools.LikelyInvalid("New York", 3))
}

func TestErrorReason(t *testing.T) {
	reason := tools.ErrorReason("weather", "Lndn", "not found")
	assert.Contains(t, reason, "Lndn")
	assert.Contains(t, strings.ToLower(reason), "city")

	reason = tools.ErrorReason("crypto", "bitcon", "not found")
	assert.Contains(t, reason, "bitcon")
	assert.Contains(t, strings.ToLower(reason), "coin")

	reason = tools.ErrorReason("github", "obscure thing", "no results")
	assert.Contains(t, reason, "obscure thing")

	reason = tools.ErrorReason("news", "anything", "boom")
	assert.Equal(t, "Error: boom", reason)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
