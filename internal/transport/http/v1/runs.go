package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/agentcore/internal/service"
)

// StartRun starts a new agent run.
// POST /v1/runs
func (h *Handler) StartRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.StartRunParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.AgentID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "agent_id is required"})
	}
	if req.ProjectID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "project_id is required"})
	}

	run, err := h.service.StartRun(ctx, req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusAccepted, run)
}

// GetRun returns a run with its tool calls and progress.
// GET /v1/runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	ctx := c.Request().Context()

	detail, err := h.service.GetRun(ctx, c.Param("run_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// CancelRun requests cancellation of a run.
// POST /v1/runs/:run_id/cancel
func (h *Handler) CancelRun(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.service.CancelRun(ctx, c.Param("run_id")); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

// GetRunEvents returns the audit trail for a run.
// GET /v1/runs/:run_id/events?after_ts=...&names=a,b&limit=...
func (h *Handler) GetRunEvents(c echo.Context) error {
	ctx := c.Request().Context()

	var afterTs int64
	if v := c.QueryParam("after_ts"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "after_ts must be an integer"})
		}
		afterTs = parsed
	}

	var names []string
	if v := c.QueryParam("names"); v != "" {
		names = strings.Split(v, ",")
	}

	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}

	events, err := h.service.GetRunEvents(ctx, c.Param("run_id"), afterTs, names, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id": c.Param("run_id"),
		"events": events,
		"count":  len(events),
	})
}

// GetRunMessages returns the transcript for a run.
// GET /v1/runs/:run_id/messages
func (h *Handler) GetRunMessages(c echo.Context) error {
	ctx := c.Request().Context()

	messages, err := h.service.GetRunMessages(ctx, c.Param("run_id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":   c.Param("run_id"),
		"messages": messages,
		"count":    len(messages),
	})
}
