// Package llm provides the gateway to chat-completion providers.
package llm

import (
	"context"
	"encoding/json"
)

// ChatMessage is one message in a chat-completion request.
type ChatMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolSpec describes one tool offered to the model. Parameters is a JSON
// Schema document.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequest is a provider-neutral chat-completion request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Tools       []ToolSpec    `json:"tools,omitempty"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ToolCallRequest is a tool invocation requested by the model.
type ToolCallRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage carries the token counts and estimated cost of one completion.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// ChatResponse is a provider-neutral chat-completion response. A response
// with no content and no tool calls is an empty response; callers treat it
// as a failure.
type ChatResponse struct {
	Content   string            `json:"content"`
	ToolCalls []ToolCallRequest `json:"tool_calls,omitempty"`
	Usage     Usage             `json:"usage"`
}

// Empty reports whether the model produced neither text nor tool calls.
func (r *ChatResponse) Empty() bool {
	return r.Content == "" && len(r.ToolCalls) == 0
}

// ChatClient is the interface to a chat-completion provider.
type ChatClient interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
