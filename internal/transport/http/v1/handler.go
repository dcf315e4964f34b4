// Package v1 provides the HTTP handlers for the agent engine API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/agentcore/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Run API
	e.POST("/v1/runs", h.StartRun)
	e.GET("/v1/runs/:run_id", h.GetRun)
	e.POST("/v1/runs/:run_id/cancel", h.CancelRun)
	e.GET("/v1/runs/:run_id/events", h.GetRunEvents)
	e.GET("/v1/runs/:run_id/messages", h.GetRunMessages)

	// Agent configuration API
	e.POST("/v1/agents", h.CreateAgent)
	e.GET("/v1/agents", h.ListAgents)
	e.GET("/v1/agents/:agent_id", h.GetAgent)

	// Project API
	e.POST("/v1/projects", h.CreateProject)
	e.GET("/v1/projects/:project_id", h.GetProject)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, service.ErrAgentNotFound),
		errors.Is(err, service.ErrAgentInactive),
		errors.Is(err, service.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrProjectMismatch):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRunFinished):
		return http.StatusConflict
	case errors.Is(err, service.ErrBlankInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}
