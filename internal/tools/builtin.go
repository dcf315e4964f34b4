package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/agentcore/internal/domain"
)

// RegisterBuiltin adds the built-in project tools to the registry.
func RegisterBuiltin(r *Registry) {
	r.MustRegister("search_drawings",
		"Search the project's drawing register by sheet number or title. Returns matching drawings with number, title, discipline and revision.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "minLength": 1, "description": "Text to match against drawing number or title"},
				"discipline": {"type": "string", "description": "Optional discipline filter, e.g. structural, electrical"}
			},
			"required": ["query"],
			"additionalProperties": false
		}`),
		nil,
		func(ctx context.Context, ec ExecContext, args Args) (json.RawMessage, error) {
			drawings, err := ec.Data.SearchDrawings(ctx, ec.ProjectID, args.String("query"), args.String("discipline"))
			if err != nil {
				return nil, fmt.Errorf("drawing search failed: %w", err)
			}
			return json.Marshal(map[string]interface{}{
				"drawings": drawings,
				"count":    len(drawings),
			})
		})

	r.MustRegister("query_tasks",
		"List the project's tasks, optionally filtered by status and assignee.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"status": {"type": "string", "enum": ["open", "in_progress", "done"], "description": "Optional status filter"},
				"assignee_id": {"type": "string", "description": "Optional assignee user id"}
			},
			"additionalProperties": false
		}`),
		func(args Args) error {
			if id := args.String("assignee_id"); id != "" {
				if err := uuid.Validate(id); err != nil {
					return fmt.Errorf("assignee_id must be a UUID")
				}
			}
			return nil
		},
		func(ctx context.Context, ec ExecContext, args Args) (json.RawMessage, error) {
			tasks, err := ec.Data.QueryTasks(ctx, ec.ProjectID, args.String("status"), args.String("assignee_id"))
			if err != nil {
				return nil, fmt.Errorf("task query failed: %w", err)
			}
			return json.Marshal(map[string]interface{}{
				"tasks": tasks,
				"count": len(tasks),
			})
		})

	r.MustRegister("create_rfi",
		"Create a request for information (RFI) on the project. Use when the drawings or tasks leave a question that needs an answer from the design team.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"subject": {"type": "string", "minLength": 1, "maxLength": 200, "description": "Short subject line"},
				"question": {"type": "string", "minLength": 1, "description": "The full question to ask"},
				"drawing_id": {"type": "string", "description": "Optional id of the drawing the question refers to"}
			},
			"required": ["subject", "question"],
			"additionalProperties": false
		}`),
		func(args Args) error {
			if id := args.String("drawing_id"); id != "" {
				if err := uuid.Validate(id); err != nil {
					return fmt.Errorf("drawing_id must be a UUID")
				}
			}
			return nil
		},
		func(ctx context.Context, ec ExecContext, args Args) (json.RawMessage, error) {
			// The key ties the RFI to the run step, so a retried step finds
			// the row the first attempt wrote instead of filing a duplicate.
			rfi, err := ec.Data.CreateRFI(ctx, &domain.RFI{
				RFIID:          "rfi_" + uuid.New().String(),
				ProjectID:      ec.ProjectID,
				Subject:        args.String("subject"),
				Question:       args.String("question"),
				DrawingID:      args.String("drawing_id"),
				Status:         "open",
				CreatedBy:      ec.UserID,
				IdempotencyKey: fmt.Sprintf("%s:%d", ec.RunID, ec.Seq),
				CreatedAt:      time.Now(),
			})
			if err != nil {
				return nil, fmt.Errorf("rfi creation failed: %w", err)
			}
			return json.Marshal(map[string]interface{}{
				"rfi_id":  rfi.RFIID,
				"subject": rfi.Subject,
				"status":  rfi.Status,
			})
		})
}
