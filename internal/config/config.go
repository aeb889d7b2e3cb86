package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/opsline/engine/internal/retry"
)

// Config holds configuration settings for the pipeline service
type Config struct {
	// API Server
	APIHost  string
	APIPort  int
	LogLevel string

	// LLM collaborators (planner and narrator)
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Tool credentials
	WeatherAPIKey string
	NewsAPIKey    string
	GitHubToken   string

	// Outbound calls
	Retry        retry.Policy
	ToolTimeout  time.Duration
	ToolRate     float64
	ToolBurst    int

	// Response cache
	CacheRedisAddr     string
	CacheRedisPassword string
	CacheRedisDB       int
	CacheTTL           time.Duration
	CacheMemorySize    int

	// Report archive
	ArchiveBucketURL string
	ArchivePrefix    string

	// Shutdown
	ShutdownTimeout time.Duration
}

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"

	DefaultToolTimeout = 30 * time.Second
	DefaultToolRate    = 5.0
	DefaultToolBurst   = 5

	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMemorySize = 1024
	DefaultRedisDB         = 0

	DefaultArchiveBucketURL = "mem://"
	DefaultArchivePrefix    = "reports/"

	DefaultShutdownTimeout = 10 * time.Second

	MaxToolTimeout  = 10 * time.Minute
	MaxCacheTTL     = 24 * time.Hour
	MaxCacheEntries = 1_000_000
)

var (
	ErrInvalidAPIPort     = errors.New("invalid API port")
	ErrInvalidToolTimeout = errors.New("tool timeout must be positive")
	ErrInvalidToolRate    = errors.New("tool rate must be positive")
	ErrLLMAPIKeyMissing   = errors.New("LLM API key is required")
)

// NewDefaultConfig creates a configuration with sensible defaults for all
// service settings, outbound-call policy, cache, and archive behavior
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:  DefaultAPIHost,
		APIPort:  DefaultAPIPort,
		LogLevel: "info",

		LLMBaseURL: DefaultLLMBaseURL,
		LLMModel:   DefaultLLMModel,

		Retry:       retry.DefaultPolicy(),
		ToolTimeout: DefaultToolTimeout,
		ToolRate:    DefaultToolRate,
		ToolBurst:   DefaultToolBurst,

		CacheRedisDB:    DefaultRedisDB,
		CacheTTL:        DefaultCacheTTL,
		CacheMemorySize: DefaultCacheMemorySize,

		ArchiveBucketURL: DefaultArchiveBucketURL,
		ArchivePrefix:    DefaultArchivePrefix,

		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)

	loadEnvString("LLM_BASE_URL", &c.LLMBaseURL)
	loadEnvString("LLM_API_KEY", &c.LLMAPIKey)
	loadEnvString("LLM_MODEL", &c.LLMModel)
	loadEnvString("OPENAI_API_KEY", &c.LLMAPIKey)

	loadEnvString("OPENWEATHERMAP_API_KEY", &c.WeatherAPIKey)
	loadEnvString("NEWS_API_KEY", &c.NewsAPIKey)
	loadEnvString("GITHUB_TOKEN", &c.GitHubToken)

	loadEnvString("CACHE_REDIS_ADDR", &c.CacheRedisAddr)
	loadEnvString("CACHE_REDIS_PASSWORD", &c.CacheRedisPassword)

	loadEnvString("ARCHIVE_BUCKET_URL", &c.ArchiveBucketURL)
	loadEnvString("ARCHIVE_PREFIX", &c.ArchivePrefix)

	if backoffType := os.Getenv("RETRY_BACKOFF_TYPE"); backoffType != "" {
		c.Retry.BackoffType = backoffType
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"CACHE_REDIS_DB", &c.CacheRedisDB, -1, 15,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"CACHE_MEMORY_SIZE", &c.CacheMemorySize, 0, MaxCacheEntries,
	); err != nil {
		return err
	}

	if err := loadEnvDuration(
		"TOOL_TIMEOUT", &c.ToolTimeout, MaxToolTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"CACHE_TTL", &c.CacheTTL, MaxCacheTTL,
	); err != nil {
		return err
	}

	if err := loadEnvInt(
		"RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts, 0,
		retry.MaxAttemptsLimit,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"RETRY_INITIAL_BACKOFF", &c.Retry.InitBackoff,
		retry.MaxBackoffLimit,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"RETRY_MAX_BACKOFF", &c.Retry.MaxBackoff, retry.MaxBackoffLimit,
	); err != nil {
		return err
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.ToolTimeout <= 0 {
		return ErrInvalidToolTimeout
	}
	if c.ToolRate <= 0 {
		return ErrInvalidToolRate
	}
	if c.LLMAPIKey == "" {
		return ErrLLMAPIKeyMissing
	}
	return c.Retry.Validate()
}

func loadEnvString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvDuration reads key as either a Go duration string ("2s") or a bare
// millisecond count, bounded by max
func loadEnvDuration(key string, dst *time.Duration, max time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		ms, msErr := strconv.ParseInt(s, 10, 64)
		if msErr != nil {
			return fmt.Errorf("invalid %s: %q", key, s)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d <= 0 || d > max {
		return fmt.Errorf("invalid %s: %s out of range", key, d)
	}
	*dst = d
	return nil
}
