package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fieldline/agentcore/internal/domain"
	"github.com/fieldline/agentcore/policy"
)

const maxAttempts = 3

// AuditLog records executor events on the run's audit trail.
type AuditLog interface {
	RecordEvent(ctx context.Context, runID, name string, payload interface{})
}

// Result is the outcome of one tool invocation as fed back to the model.
type Result struct {
	OK   bool            `json:"ok"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  string          `json:"error,omitempty"`
}

// Outcome wraps a Result with the bookkeeping the run loop persists.
// Record is false when validation failed before execution; no tool-call row
// is written in that case.
type Outcome struct {
	Result     Result
	Record     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Executor runs tools behind the policy gate with schema validation, a
// bounded retry loop and audit events.
type Executor struct {
	registry   *Registry
	policy     *policy.Engine
	audit      AuditLog
	retryDelay time.Duration
}

// NewExecutor creates a tool executor.
func NewExecutor(registry *Registry, engine *policy.Engine, audit AuditLog, retryDelay time.Duration) *Executor {
	return &Executor{
		registry:   registry,
		policy:     engine,
		audit:      audit,
		retryDelay: retryDelay,
	}
}

// Run executes one tool invocation for a run step. The error result paths
// feed back to the model rather than failing the run; only the bookkeeping
// in Outcome distinguishes them.
func (e *Executor) Run(ctx context.Context, name string, rawArgs json.RawMessage, allowed []string, ec ExecContext) Outcome {
	out := Outcome{Record: true, StartedAt: time.Now()}

	decision, reason, err := e.policy.Evaluate(ctx, map[string]interface{}{
		"tool":       name,
		"allowed":    allowed,
		"project_id": ec.ProjectID,
		"user_id":    ec.UserID,
	})
	if err != nil {
		log.Printf("ERROR: policy evaluation for tool %s: %v", name, err)
		out.Result = Result{Err: fmt.Sprintf("policy evaluation failed: %v", err)}
		return e.finish(ctx, ec, name, rawArgs, out)
	}
	if decision != "allow" {
		if reason == "" {
			reason = "tool not in the agent's allowed list"
		}
		out.Result = Result{Err: "tool_not_allowed: " + reason}
		return e.finish(ctx, ec, name, rawArgs, out)
	}

	def := e.registry.Get(name)
	if def == nil {
		out.Result = Result{Err: "unknown_tool: " + name}
		return e.finish(ctx, ec, name, rawArgs, out)
	}

	args, err := def.Validate(rawArgs)
	if err != nil {
		// Invalid arguments never reach the handler and leave no
		// tool-call row; the model gets the validation error and may
		// correct itself on the next step.
		out.Record = false
		out.Result = Result{Err: fmt.Sprintf("validation_failed: %v", err)}
		return e.finish(ctx, ec, name, rawArgs, out)
	}

	var data json.RawMessage
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, lastErr = def.handler(ctx, ec, args)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if attempt < maxAttempts {
			log.Printf("WARN: tool %s attempt %d/%d failed: %v", name, attempt, maxAttempts, lastErr)
			if !sleepCtx(ctx, time.Duration(attempt)*e.retryDelay) {
				lastErr = ctx.Err()
				break
			}
		}
	}
	if lastErr != nil {
		out.Result = Result{Err: lastErr.Error()}
		return e.finish(ctx, ec, name, rawArgs, out)
	}

	out.Result = Result{OK: true, Data: data}
	return e.finish(ctx, ec, name, rawArgs, out)
}

func (e *Executor) finish(ctx context.Context, ec ExecContext, name string, rawArgs json.RawMessage, out Outcome) Outcome {
	out.FinishedAt = time.Now()
	event := domain.EventToolCall
	if !out.Result.OK {
		event = domain.EventToolError
	}
	e.audit.RecordEvent(ctx, ec.RunID, event, map[string]interface{}{
		"tool":        name,
		"seq":         ec.Seq,
		"args":        string(rawArgs),
		"error":       out.Result.Err,
		"duration_ms": out.FinishedAt.Sub(out.StartedAt).Milliseconds(),
	})
	return out
}

// sleepCtx waits for d or until the context is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
