package domain

import "time"

// Run represents one natural-language request serviced by one agent
// configuration against one project. Mutated only by the execution loop,
// except for external cancellation; immutable once terminal.
type Run struct {
	RunID            string     `json:"run_id"`
	AgentID          string     `json:"agent_id"`
	ProjectID        string     `json:"project_id"`
	RequestedBy      string     `json:"requested_by"`
	Input            string     `json:"input"`
	Status           RunStatus  `json:"status"`
	Error            string     `json:"error,omitempty"`
	ResultSummary    string     `json:"result_summary,omitempty"`
	PromptTokens     int        `json:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens"`
	CostUSD          float64    `json:"cost_usd"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// Message is one entry in a run's conversation transcript. Messages are
// append-only; seq is gapless and strictly increasing per run, starting at 1.
type Message struct {
	RunID     string      `json:"run_id"`
	Seq       int         `json:"seq"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	ToolName  string      `json:"tool_name,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
