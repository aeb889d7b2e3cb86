package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/retry"
)

func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

func completionServer(
	t *testing.T, content string,
) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key",
				r.Header.Get("Authorization"))

			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req["model"])

			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{
						"role":    "assistant",
						"content": content,
					}},
				},
			})
		}))
}

func TestGenerateText(t *testing.T) {
	srv := completionServer(t, "Paris is sunny today.")
	defer srv.Close()

	c := llm.NewHTTPClient(srv.URL, "test-key", "test-model", fastPolicy())
	res, err := c.GenerateText(context.Background(), llm.Request{
		System: "You are a narrator.",
		User:   "Summarize the weather.",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Paris is sunny today.", res)
}

func TestGenerateJSONStripsFences(t *testing.T) {
	srv := completionServer(t, "```json\n{\"steps\": []}\n```")
	defer srv.Close()

	c := llm.NewHTTPClient(srv.URL, "test-key", "test-model", fastPolicy())
	res, err := c.GenerateJSON(context.Background(), llm.Request{
		User: "Plan this.",
	})

	assert.NoError(t, err)
	assert.JSONEq(t, `{"steps": []}`, string(res))
}

func TestGenerateTextMissingKey(t *testing.T) {
	c := llm.NewHTTPClient(
		"http://unused", "", "test-model", fastPolicy(),
	)
	_, err := c.GenerateText(context.Background(), llm.Request{User: "hi"})
	assert.ErrorIs(t, err, llm.ErrAPIKeyMissing)
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "ok"}},
				},
			})
		}))
	defer srv.Close()

	c := llm.NewHTTPClient(srv.URL, "test-key", "test-model", fastPolicy())
	res, err := c.GenerateText(context.Background(), llm.Request{User: "hi"})

	assert.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateTextClientErrorTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
	defer srv.Close()

	c := llm.NewHTTPClient(srv.URL, "bad-key", "test-model", fastPolicy())
	_, err := c.GenerateText(context.Background(), llm.Request{User: "hi"})

	var se *retry.StatusError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{},
			})
		}))
	defer srv.Close()

	c := llm.NewHTTPClient(srv.URL, "test-key", "test-model", fastPolicy())
	_, err := c.GenerateText(context.Background(), llm.Request{User: "hi"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, llm.StripFences(`{"a": 1}`))
	assert.Equal(t, `{"a": 1}`,
		llm.StripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`,
		llm.StripFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`,
		llm.StripFences("  {\"a\": 1}  "))
}
