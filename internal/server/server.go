// Package server implements the HTTP API: task submission, the tool
// catalog, archived report retrieval, and progress streaming over WebSocket
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/opsline/engine"
	"github.com/opsline/engine/internal/executor"
	"github.com/opsline/engine/internal/util"
	"github.com/opsline/engine/internal/verifier"
	"github.com/opsline/engine/pkg/api"
)

type (
	// Planner produces a validated plan for a task
	Planner interface {
		CreatePlan(ctx context.Context, task string) (*api.Plan, error)
	}

	// Archive persists and retrieves run reports
	Archive interface {
		Put(ctx context.Context, rep *api.Report) error
		Get(ctx context.Context, runID api.RunID) (*api.Report, error)
	}

	// Catalog lists the registered tools
	Catalog interface {
		Catalog() []*api.ToolCatalogEntry
	}

	// Server wires the pipeline stages behind the HTTP API
	Server struct {
		planner  Planner
		executor *executor.Executor
		verifier *verifier.Verifier
		archive  Archive
		catalog  Catalog
		logger   *slog.Logger
		sockets  util.Set[*Client]
		mu       sync.Mutex
	}
)

// NewServer creates the HTTP API server over the pipeline stages
func NewServer(
	p Planner, e *executor.Executor, v *verifier.Verifier,
	a Archive, c Catalog, logger *slog.Logger,
) *Server {
	return &Server{
		planner:  p,
		executor: e,
		verifier: v,
		archive:  a,
		catalog:  c,
		logger:   logger,
		sockets:  util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return s.logger
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	grp := router.Group("/api")
	{
		grp.POST("/task/execute", s.handleExecuteTask)
		grp.GET("/tools", s.handleListTools)
		grp.GET("/examples", s.handleExamples)
		grp.GET("/reports/:runID", s.handleGetReport)
	}

	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: engine.Name,
		Version: engine.Version,
		Status:  "ok",
	})
}

// CloseWebSockets drops all live WebSocket connections during shutdown
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.sockets {
		_ = c.conn.Close()
	}
	s.sockets = util.Set[*Client]{}
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}
