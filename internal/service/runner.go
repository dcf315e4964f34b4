package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldline/agentcore/internal/domain"
	"github.com/fieldline/agentcore/internal/llm"
	"github.com/fieldline/agentcore/internal/tools"
)

const summaryMaxLen = 500

// executeRun drives one run from queued to a terminal state. It is the only
// writer of run state while it holds the run; external cancellation flips
// the status row, and the loop observes that at each step boundary.
func (s *Service) executeRun(ctx context.Context, runID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: run %s panicked: %v", runID, r)
			s.failRun(ctx, runID, fmt.Sprintf("panic: %v", r))
		}
	}()

	started, err := s.store.MarkRunStarted(ctx, runID)
	if err != nil {
		log.Printf("ERROR: failed to start run %s: %v", runID, err)
		return
	}
	if !started {
		// Cancelled while still queued.
		log.Printf("WARN: run %s no longer queued, skipping execution", runID)
		return
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil || run == nil {
		log.Printf("ERROR: failed to load run %s: %v", runID, err)
		return
	}

	s.RecordEvent(ctx, runID, domain.EventRunStarted, map[string]interface{}{
		"agent_id":   run.AgentID,
		"project_id": run.ProjectID,
	})

	agent, err := s.store.GetAgent(ctx, run.AgentID)
	if err != nil {
		log.Printf("ERROR: failed to load agent for run %s: %v", runID, err)
		s.failRun(ctx, runID, domain.RunErrAgentNotFound)
		return
	}
	if agent == nil {
		s.failRun(ctx, runID, domain.RunErrAgentNotFound)
		return
	}

	if s.llm == nil {
		s.failRun(ctx, runID, domain.RunErrMissingCredential)
		return
	}

	if agent.SystemPrompt != "" {
		if _, err := s.store.AppendMessage(ctx, runID, domain.RoleSystem, agent.SystemPrompt, ""); err != nil {
			log.Printf("ERROR: failed to append system message for run %s: %v", runID, err)
			s.failRun(ctx, runID, "transcript write failed")
			return
		}
	}
	if _, err := s.store.AppendMessage(ctx, runID, domain.RoleUser, run.Input, ""); err != nil {
		log.Printf("ERROR: failed to append user message for run %s: %v", runID, err)
		s.failRun(ctx, runID, "transcript write failed")
		return
	}

	maxSteps := agent.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	model := agent.Model
	if model == "" {
		model = s.config.DefaultModel
	}
	specs := s.registry.Specs()

	var totalCost float64
	for step := 0; step < maxSteps; step++ {
		// Cancellation is polled at the step boundary; a cancel landing
		// mid-step takes effect before the next LLM call.
		current, err := s.store.GetRun(ctx, runID)
		if err != nil || current == nil {
			log.Printf("ERROR: failed to refresh run %s: %v", runID, err)
			return
		}
		if current.Status.Terminal() {
			log.Printf("WARN: run %s is %s, stopping execution", runID, current.Status)
			return
		}

		if agent.CostCapUSD > 0 && totalCost >= agent.CostCapUSD {
			s.failRun(ctx, runID, domain.RunErrCostCapExceeded)
			return
		}

		messages, err := s.store.GetMessages(ctx, runID)
		if err != nil {
			log.Printf("ERROR: failed to load transcript for run %s: %v", runID, err)
			s.failRun(ctx, runID, "transcript read failed")
			return
		}

		req := &llm.ChatRequest{
			Model:       model,
			Messages:    chatMessages(messages),
			Tools:       specs,
			Temperature: agent.Temperature,
			MaxTokens:   s.config.MaxOutputTokens,
		}

		stepCtx, cancel := context.WithTimeout(ctx, s.config.StepTimeout)
		resp, err := s.llm.Chat(stepCtx, req)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				s.failRun(ctx, runID, domain.RunErrStepTimeout)
				return
			}
			log.Printf("ERROR: llm call failed for run %s: %v", runID, err)
			s.failRun(ctx, runID, "llm call failed: "+err.Error())
			return
		}

		totalCost += resp.Usage.CostUSD
		if err := s.store.AddRunUsage(ctx, runID, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.CostUSD); err != nil {
			log.Printf("ERROR: failed to record usage for run %s: %v", runID, err)
		}
		s.RecordEvent(ctx, runID, domain.EventLLMCall, map[string]interface{}{
			"step":              step + 1,
			"model":             model,
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"cost_usd":          resp.Usage.CostUSD,
			"tool_calls":        len(resp.ToolCalls),
		})

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Content) == "" {
				s.failRun(ctx, runID, domain.RunErrEmptyResponse)
				return
			}
			if _, err := s.store.AppendMessage(ctx, runID, domain.RoleAssistant, resp.Content, ""); err != nil {
				log.Printf("ERROR: failed to append assistant message for run %s: %v", runID, err)
			}
			s.finishRun(ctx, runID, truncateSummary(resp.Content))
			return
		}

		if resp.Content != "" {
			if _, err := s.store.AppendMessage(ctx, runID, domain.RoleAssistant, resp.Content, ""); err != nil {
				log.Printf("ERROR: failed to append assistant message for run %s: %v", runID, err)
			}
		}

		for _, call := range resp.ToolCalls {
			ec := tools.ExecContext{
				RunID:     runID,
				ProjectID: run.ProjectID,
				UserID:    run.RequestedBy,
				Seq:       step + 1,
				Data:      s.store,
			}
			outcome := s.executor.Run(ctx, call.Name, json.RawMessage(call.Arguments), agent.AllowedTools, ec)

			if outcome.Record {
				status := domain.ToolCallStatusOK
				if !outcome.Result.OK {
					status = domain.ToolCallStatusError
				}
				finished := outcome.FinishedAt
				tc := &domain.ToolCall{
					ToolCallID: "tc_" + uuid.New().String(),
					RunID:      runID,
					Seq:        step + 1,
					ToolName:   call.Name,
					Args:       normalizeArgs(call.Arguments),
					Output:     outcome.Result.Data,
					Error:      outcome.Result.Err,
					Status:     status,
					StartedAt:  outcome.StartedAt,
					FinishedAt: &finished,
				}
				if err := s.store.CreateToolCall(ctx, tc); err != nil {
					log.Printf("ERROR: failed to record tool call for run %s: %v", runID, err)
				}
			}

			resultJSON, err := json.Marshal(outcome.Result)
			if err != nil {
				log.Printf("ERROR: failed to marshal tool result for run %s: %v", runID, err)
				resultJSON = []byte(`{"ok":false,"error":"internal result encoding error"}`)
			}
			if _, err := s.store.AppendMessage(ctx, runID, domain.RoleTool, string(resultJSON), call.Name); err != nil {
				log.Printf("ERROR: failed to append tool message for run %s: %v", runID, err)
			}
		}
	}

	s.failRun(ctx, runID, domain.RunErrMaxStepsExceeded)
}

// failRun moves the run to failed unless cancellation got there first.
func (s *Service) failRun(ctx context.Context, runID, errText string) {
	applied, err := s.store.FinishRun(ctx, runID, domain.RunStatusFailed, errText, "")
	if err != nil {
		log.Printf("ERROR: failed to fail run %s: %v", runID, err)
		return
	}
	if !applied {
		log.Printf("WARN: run %s already terminal, fail(%s) skipped", runID, errText)
		return
	}
	s.RecordEvent(ctx, runID, domain.EventRunFinished, map[string]interface{}{
		"status": domain.RunStatusFailed,
		"error":  errText,
	})
}

// finishRun moves the run to succeeded unless cancellation got there first.
func (s *Service) finishRun(ctx context.Context, runID, summary string) {
	applied, err := s.store.FinishRun(ctx, runID, domain.RunStatusSucceeded, "", summary)
	if err != nil {
		log.Printf("ERROR: failed to finish run %s: %v", runID, err)
		return
	}
	if !applied {
		log.Printf("WARN: run %s already terminal, success skipped", runID)
		return
	}
	s.RecordEvent(ctx, runID, domain.EventRunFinished, map[string]interface{}{
		"status": domain.RunStatusSucceeded,
	})
}

// chatMessages converts the stored transcript into the gateway request shape.
func chatMessages(messages []domain.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.ToolName,
		})
	}
	return out
}

// normalizeArgs keeps the raw arguments when they are valid JSON and wraps
// them as a string otherwise, so the tool-call row always stores valid JSON.
func normalizeArgs(raw string) json.RawMessage {
	if json.Valid([]byte(raw)) && raw != "" {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(raw)
	return b
}

func truncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryMaxLen {
		return s
	}
	return string(runes[:summaryMaxLen])
}
