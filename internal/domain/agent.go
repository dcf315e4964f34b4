package domain

import "time"

// AgentConfig is the read-only configuration a run executes under, resolved
// once at run start.
type AgentConfig struct {
	AgentID      string    `json:"agent_id"`
	OrgID        string    `json:"org_id"`
	Name         string    `json:"name"`
	Model        string    `json:"model,omitempty"`
	Temperature  float32   `json:"temperature"`
	MaxSteps     int       `json:"max_steps"`
	CostCapUSD   float64   `json:"cost_cap_usd"`
	AllowedTools []string  `json:"allowed_tools,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project scopes runs and the data tools operate on to one job site.
type Project struct {
	ProjectID string    `json:"project_id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
