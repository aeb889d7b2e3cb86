package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/opsline/engine"
	"github.com/opsline/engine/internal/archive"
	"github.com/opsline/engine/internal/cache"
	"github.com/opsline/engine/internal/config"
	"github.com/opsline/engine/internal/executor"
	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/internal/planner"
	"github.com/opsline/engine/internal/server"
	"github.com/opsline/engine/internal/tools"
	"github.com/opsline/engine/internal/verifier"
	"github.com/opsline/engine/pkg/log"
)

type opsline struct {
	cfg        *config.Config
	cache      cache.Cache
	archive    *archive.BlobArchive
	llm        llm.Client
	registry   *tools.Registry
	executor   *executor.Executor
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrOpenCache   = errors.New("failed to open response cache")
	ErrOpenArchive = errors.New("failed to open report archive")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &opsline{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *opsline) run() error {
	if err := s.initializeStores(); err != nil {
		return err
	}
	s.initializePipeline()
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *opsline) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Opsline Engine starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort),
		slog.String("llm_model", s.cfg.LLMModel),
		slog.String("cache_redis_addr", s.cfg.CacheRedisAddr),
		slog.String("archive_bucket", s.cfg.ArchiveBucketURL))
}

func (s *opsline) initializeStores() error {
	ctx := context.Background()

	if s.cfg.CacheRedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx,
			s.cfg.CacheRedisAddr, s.cfg.CacheRedisPassword,
			s.cfg.CacheRedisDB, s.cfg.CacheTTL,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenCache, err)
		}
		s.cache = redisCache
	} else {
		s.cache = cache.NewMemoryCache(
			s.cfg.CacheMemorySize, s.cfg.CacheTTL,
		)
	}

	blobArchive, err := archive.New(ctx,
		s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
	)
	if err != nil {
		_ = s.cache.Close()
		return fmt.Errorf("%w: %w", ErrOpenArchive, err)
	}
	s.archive = blobArchive
	return nil
}

func (s *opsline) initializePipeline() {
	s.llm = llm.NewHTTPClient(
		s.cfg.LLMBaseURL, s.cfg.LLMAPIKey, s.cfg.LLMModel, s.cfg.Retry,
	)

	s.registry = tools.NewRegistry(tools.Settings{
		Cache:         s.cache,
		LLM:           s.llm,
		Policy:        s.cfg.Retry,
		Timeout:       s.cfg.ToolTimeout,
		Rate:          s.cfg.ToolRate,
		Burst:         s.cfg.ToolBurst,
		WeatherAPIKey: s.cfg.WeatherAPIKey,
		NewsAPIKey:    s.cfg.NewsAPIKey,
		GitHubToken:   s.cfg.GitHubToken,
	})

	s.executor = executor.New(s.registry, slog.Default())
}

func (s *opsline) startServer() {
	logger := slog.Default()
	s.apiServer = server.NewServer(
		planner.New(s.llm, s.registry, logger),
		s.executor,
		verifier.New(s.llm, logger),
		s.archive,
		s.registry,
		logger,
	)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *opsline) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.executor.Close()

	if err := s.archive.Close(); err != nil {
		slog.Error("Archive close failed", log.Error(err))
	}
	_ = s.cache.Close()

	slog.Info("Server exited")
}
