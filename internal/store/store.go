// Package store provides the durable run state store.
package store

import (
	"context"

	"github.com/fieldline/agentcore/internal/domain"
)

// Store is the single source of truth for run progress and cancellation.
// Lookups return (nil, nil) when the row does not exist.
type Store interface {
	// Projects and agent configurations
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	CreateAgent(ctx context.Context, agent *domain.AgentConfig) error
	GetAgent(ctx context.Context, agentID string) (*domain.AgentConfig, error)
	ListAgents(ctx context.Context) ([]domain.AgentConfig, error)

	// Runs
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	MarkRunStarted(ctx context.Context, runID string) (bool, error)
	FinishRun(ctx context.Context, runID string, status domain.RunStatus, errText, summary string) (bool, error)
	CancelRun(ctx context.Context, runID string) (bool, error)
	AddRunUsage(ctx context.Context, runID string, promptTokens, completionTokens int, costUSD float64) error

	// Transcript
	AppendMessage(ctx context.Context, runID string, role domain.MessageRole, content, toolName string) (int, error)
	GetMessages(ctx context.Context, runID string) ([]domain.Message, error)

	// Tool calls
	CreateToolCall(ctx context.Context, tc *domain.ToolCall) error
	GetToolCalls(ctx context.Context, runID string) ([]domain.ToolCall, error)

	// Audit trail
	RecordAuditEvent(ctx context.Context, ev *domain.AuditEvent) error
	GetAuditEvents(ctx context.Context, runID string, afterTs int64, names []string, limit int) ([]domain.AuditEvent, error)

	// Project data the tools operate on
	CreateDrawing(ctx context.Context, d *domain.Drawing) error
	SearchDrawings(ctx context.Context, projectID, query, discipline string) ([]domain.Drawing, error)
	CreateTask(ctx context.Context, t *domain.Task) error
	QueryTasks(ctx context.Context, projectID, status, assigneeID string) ([]domain.Task, error)
	CreateRFI(ctx context.Context, rfi *domain.RFI) (*domain.RFI, error)

	Close() error
}
