package tools

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/opsline/engine/internal/cache"
	"github.com/opsline/engine/internal/retry"
)

// Fetcher performs rate-limited, retried JSON GET requests for one tool.
// Each tool owns its Fetcher; nothing is shared across tools beyond the
// optional response cache
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   cache.Cache
	headers map[string]string
	policy  retry.Policy
}

const maxErrorBodySize = 4096

// NewFetcher creates a fetcher with the settings' timeout, rate limit, and
// retry policy. Default headers are sent with every request
func NewFetcher(s *Settings, headers map[string]string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: s.Timeout},
		limiter: rate.NewLimiter(rate.Limit(s.Rate), s.Burst),
		cache:   s.Cache,
		headers: headers,
		policy:  s.Policy,
	}
}

// GetJSON issues a GET against rawURL with the given query string and
// parses the response body. Responses are served from and stored to the
// cache when one is configured. Non-2xx responses surface as
// retry.StatusError so the retry policy can classify them
func (f *Fetcher) GetJSON(
	ctx context.Context, rawURL string, query url.Values,
) (gjson.Result, error) {
	full := rawURL
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	key := cache.Key(full)
	if f.cache != nil {
		if body, ok := f.cache.Get(ctx, key); ok {
			return gjson.ParseBytes(body), nil
		}
	}

	body, err := retry.Do(ctx, f.policy,
		func(ctx context.Context) ([]byte, error) {
			return f.fetch(ctx, full)
		})
	if err != nil {
		return gjson.Result{}, err
	}

	if f.cache != nil {
		f.cache.Put(ctx, key, body)
	}
	return gjson.ParseBytes(body), nil
}

func (f *Fetcher) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, fullURL, nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	dur := time.Since(start)

	if err != nil {
		slog.Error("Tool request failed",
			slog.Duration("duration", dur),
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.CopyN(io.Discard, resp.Body, maxErrorBodySize)
		return nil, &retry.StatusError{
			Code: resp.StatusCode,
			URL:  req.URL.Scheme + "://" + req.URL.Host + req.URL.Path,
		}
	}

	return io.ReadAll(resp.Body)
}
