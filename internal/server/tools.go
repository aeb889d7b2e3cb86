package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsline/engine/pkg/api"
)

var exampleTasks = []string{
	"What's the weather in Paris and Tokyo?",
	"Find the most popular Go repositories on GitHub",
	"Get the latest news about artificial intelligence",
	"What is the price of bitcoin and ethereum?",
	"Tell me about the Eiffel Tower",
	"Compare the population of France and Germany",
	"What's trending in crypto and what's the weather in London?",
}

func (s *Server) handleListTools(c *gin.Context) {
	tools := s.catalog.Catalog()
	c.JSON(http.StatusOK, api.ToolsListResponse{
		Tools: tools,
		Count: len(tools),
	})
}

func (s *Server) handleExamples(c *gin.Context) {
	c.JSON(http.StatusOK, api.ExamplesResponse{
		Examples: exampleTasks,
	})
}
