// Package domain defines the core domain models for the agent engine.
package domain

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether no further status transitions are possible.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// MessageRole represents the author role of a transcript message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ToolCallStatus represents the outcome of a tool invocation.
type ToolCallStatus string

const (
	ToolCallStatusOK    ToolCallStatus = "ok"
	ToolCallStatusError ToolCallStatus = "error"
)

// Error tags surfaced on a failed run's error field.
const (
	RunErrRunNotFound       = "run_not_found"
	RunErrAgentNotFound     = "agent_not_found"
	RunErrProjectNotFound   = "project_not_found"
	RunErrMissingCredential = "missing_credential"
	RunErrStepTimeout       = "step_timeout"
	RunErrEmptyResponse     = "empty_response"
	RunErrMaxStepsExceeded  = "max_steps_exceeded"
	RunErrCostCapExceeded   = "cost_cap_exceeded"
)

// Audit event names.
const (
	EventRunStarted   = "run.started"
	EventRunFinished  = "run.finished"
	EventRunCancelled = "run.cancelled"
	EventLLMCall      = "llm.call"
	EventToolCall     = "tool.call"
	EventToolError    = "tool.error"
)
