package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/agentcore/internal/domain"
)

// CreateProjectParams are the caller-supplied fields of a new project.
type CreateProjectParams struct {
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

// CreateProject registers a project.
func (s *Service) CreateProject(ctx context.Context, params CreateProjectParams) (*domain.Project, error) {
	if params.OrgID == "" {
		return nil, fmt.Errorf("org_id is required")
	}
	if params.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	project := &domain.Project{
		ProjectID: "proj_" + uuid.New().String(),
		OrgID:     params.OrgID,
		Name:      params.Name,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// CreateAgentParams are the caller-supplied fields of a new agent
// configuration.
type CreateAgentParams struct {
	OrgID        string   `json:"org_id"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Temperature  float32  `json:"temperature"`
	MaxSteps     int      `json:"max_steps"`
	CostCapUSD   float64  `json:"cost_cap_usd"`
	AllowedTools []string `json:"allowed_tools"`
	SystemPrompt string   `json:"system_prompt"`
}

// CreateAgent registers an agent configuration. Unset max_steps defaults to
// DefaultMaxSteps; allowed tools must exist in the registry.
func (s *Service) CreateAgent(ctx context.Context, params CreateAgentParams) (*domain.AgentConfig, error) {
	if params.OrgID == "" {
		return nil, fmt.Errorf("org_id is required")
	}
	if params.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if params.MaxSteps < 0 {
		return nil, fmt.Errorf("max_steps must not be negative")
	}
	if params.CostCapUSD < 0 {
		return nil, fmt.Errorf("cost_cap_usd must not be negative")
	}
	for _, name := range params.AllowedTools {
		if s.registry.Get(name) == nil {
			return nil, fmt.Errorf("unknown tool in allowed_tools: %s", name)
		}
	}
	maxSteps := params.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	agent := &domain.AgentConfig{
		AgentID:      "agent_" + uuid.New().String(),
		OrgID:        params.OrgID,
		Name:         params.Name,
		Model:        params.Model,
		Temperature:  params.Temperature,
		MaxSteps:     maxSteps,
		CostCapUSD:   params.CostCapUSD,
		AllowedTools: params.AllowedTools,
		SystemPrompt: params.SystemPrompt,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// GetAgent returns one agent configuration.
func (s *Service) GetAgent(ctx context.Context, agentID string) (*domain.AgentConfig, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// ListAgents returns all agent configurations.
func (s *Service) ListAgents(ctx context.Context) ([]domain.AgentConfig, error) {
	return s.store.ListAgents(ctx)
}
