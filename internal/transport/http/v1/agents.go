package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/agentcore/internal/service"
)

// CreateAgent registers a new agent configuration.
// POST /v1/agents
func (h *Handler) CreateAgent(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.CreateAgentParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	agent, err := h.service.CreateAgent(ctx, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, agent)
}

// ListAgents lists all agent configurations.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	ctx := c.Request().Context()

	agents, err := h.service.ListAgents(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
		"count":  len(agents),
	})
}

// GetAgent gets a specific agent configuration.
// GET /v1/agents/:agent_id
func (h *Handler) GetAgent(c echo.Context) error {
	ctx := c.Request().Context()

	agent, err := h.service.GetAgent(ctx, c.Param("agent_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, agent)
}

// CreateProject registers a new project.
// POST /v1/projects
func (h *Handler) CreateProject(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.CreateProjectParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	project, err := h.service.CreateProject(ctx, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, project)
}

// GetProject gets a specific project.
// GET /v1/projects/:project_id
func (h *Handler) GetProject(c echo.Context) error {
	ctx := c.Request().Context()

	project, err := h.service.GetProject(ctx, c.Param("project_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, project)
}
