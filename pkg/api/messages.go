package api

type (
	// TaskRequest is the user's natural-language task submission
	TaskRequest struct {
		Task string `json:"task" binding:"required"`
	}

	// ErrorResponse is the standard error payload for HTTP failures
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}

	// HealthResponse reports service liveness
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// ToolCatalogEntry describes one registered tool for API consumers
	ToolCatalogEntry struct {
		ID          ToolID                `json:"id"`
		Description string                `json:"description"`
		Actions     []ActionID            `json:"actions"`
		Params      map[ActionID][]string `json:"params,omitempty"`
	}

	// ToolsListResponse lists the registered tools and their actions
	ToolsListResponse struct {
		Tools []*ToolCatalogEntry `json:"tools"`
		Count int                 `json:"total_tools"`
	}

	// ExamplesResponse lists example tasks for API consumers
	ExamplesResponse struct {
		Examples []string `json:"examples"`
	}
)
