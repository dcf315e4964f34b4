package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/agentcore/internal/domain"
)

// StartRunParams are the caller-supplied fields of a new run.
type StartRunParams struct {
	AgentID     string `json:"agent_id"`
	ProjectID   string `json:"project_id"`
	RequestedBy string `json:"requested_by"`
	Input       string `json:"input"`
}

// StartRun validates the request, persists a queued run and kicks off
// execution in the background. The returned run is in the queued state;
// callers poll GetRun for progress.
func (s *Service) StartRun(ctx context.Context, params StartRunParams) (*domain.Run, error) {
	if strings.TrimSpace(params.Input) == "" {
		return nil, ErrBlankInput
	}

	agent, err := s.store.GetAgent(ctx, params.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if !agent.Active {
		return nil, ErrAgentInactive
	}

	project, err := s.store.GetProject(ctx, params.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	if agent.OrgID != project.OrgID {
		return nil, ErrProjectMismatch
	}

	run := &domain.Run{
		RunID:       "run_" + uuid.New().String(),
		AgentID:     params.AgentID,
		ProjectID:   params.ProjectID,
		RequestedBy: params.RequestedBy,
		Input:       params.Input,
		Status:      domain.RunStatusQueued,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeRun(context.Background(), run.RunID)
	}()

	return run, nil
}

// RunDetail is a run with its transcript, tool-call log and a coarse
// progress figure.
type RunDetail struct {
	domain.Run
	Progress  int               `json:"progress"`
	Messages  []domain.Message  `json:"messages"`
	ToolCalls []domain.ToolCall `json:"tool_calls"`
}

// GetRun returns a run with progress derived from tool-call count against
// the agent's step budget. Terminal runs always report 100; live runs cap
// at 99 so pollers never see a premature done.
func (s *Service) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, ErrRunNotFound
	}

	calls, err := s.store.GetToolCalls(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool calls: %w", err)
	}
	messages, err := s.store.GetMessages(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	detail := &RunDetail{Run: *run, Messages: messages, ToolCalls: calls}
	if calls == nil {
		detail.ToolCalls = []domain.ToolCall{}
	}
	if messages == nil {
		detail.Messages = []domain.Message{}
	}

	if run.Status.Terminal() {
		detail.Progress = 100
		return detail, nil
	}

	maxSteps := DefaultMaxSteps
	if agent, err := s.store.GetAgent(ctx, run.AgentID); err == nil && agent != nil && agent.MaxSteps > 0 {
		maxSteps = agent.MaxSteps
	}
	progress := int(math.Round(float64(len(calls)) / float64(maxSteps) * 100))
	if progress > 99 {
		progress = 99
	}
	detail.Progress = progress
	return detail, nil
}

// GetRunMessages returns the run's transcript.
func (s *Service) GetRunMessages(ctx context.Context, runID string) ([]domain.Message, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return s.store.GetMessages(ctx, runID)
}

// CancelRun requests cancellation of a queued or running run. The execution
// loop observes the flipped status at its next step boundary and stops
// without overwriting the cancelled state.
func (s *Service) CancelRun(ctx context.Context, runID string) error {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return ErrRunNotFound
	}
	if run.Status.Terminal() {
		return ErrRunFinished
	}

	applied, err := s.store.CancelRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}
	if !applied {
		// The run reached a terminal state between the read and the update.
		return ErrRunFinished
	}

	s.RecordEvent(ctx, runID, domain.EventRunCancelled, map[string]interface{}{
		"reason": "cancelled by user",
	})
	return nil
}
