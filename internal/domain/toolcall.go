package domain

import (
	"encoding/json"
	"time"
)

// ToolCall records one tool invocation that reached execution. Seq is
// aligned to the loop step that produced it (step index + 1); a single step
// may issue several calls, so rows carry their own id and are ordered by
// (seq, started_at). Rows are written once and never mutated.
type ToolCall struct {
	ToolCallID string          `json:"tool_call_id"`
	RunID      string          `json:"run_id"`
	Seq        int             `json:"seq"`
	ToolName   string          `json:"tool_name"`
	Args       json.RawMessage `json:"args,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	Status     ToolCallStatus  `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// AuditEvent is one entry in the append-only audit trail for a run.
type AuditEvent struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
