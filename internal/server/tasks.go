package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsline/engine/pkg/api"
	"github.com/opsline/engine/pkg/log"
)

func (s *Server) handleExecuteTask(c *gin.Context) {
	var req api.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("invalid request: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	ctx := c.Request.Context()
	runID := api.RunID(uuid.NewString())

	plan, err := s.planner.CreatePlan(ctx, req.Task)
	if err != nil {
		s.logger.Error("planning failed",
			log.RunID(runID), log.Error(err),
		)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadGateway,
		})
		return
	}

	res, err := s.executor.Execute(ctx, runID, plan)
	if err != nil {
		s.logger.Error("execution failed",
			log.RunID(runID), log.Error(err),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusInternalServerError,
		})
		return
	}
	report := s.verifier.BuildReport(ctx, runID, res)

	if err := s.archive.Put(ctx, report); err != nil {
		s.logger.Warn("report archival failed",
			log.RunID(runID), log.Error(err),
		)
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleGetReport(c *gin.Context) {
	runID := api.RunID(c.Param("runID"))

	report, err := s.archive.Get(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
