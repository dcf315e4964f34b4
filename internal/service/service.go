// Package service implements the agent execution engine.
package service

import (
	"errors"
	"sync"

	"github.com/fieldline/agentcore/internal/config"
	"github.com/fieldline/agentcore/internal/llm"
	"github.com/fieldline/agentcore/internal/store"
	"github.com/fieldline/agentcore/internal/tools"
	"github.com/fieldline/agentcore/policy"
)

// DefaultMaxSteps bounds runs whose agent does not set its own limit.
const DefaultMaxSteps = 6

// Sentinel errors the transport layer maps to HTTP status codes.
var (
	ErrRunNotFound     = errors.New("run not found")
	ErrAgentNotFound   = errors.New("agent not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrAgentInactive   = errors.New("agent is not active")
	ErrProjectMismatch = errors.New("agent and project belong to different orgs")
	ErrBlankInput      = errors.New("input is required")
	ErrRunFinished     = errors.New("run already finished")
)

// Service wires the store, LLM gateway and tool executor into the run
// lifecycle.
type Service struct {
	store    store.Store
	llm      llm.ChatClient
	registry *tools.Registry
	executor *tools.Executor
	config   *config.Config

	wg sync.WaitGroup
}

// New creates the service and its tool executor. A nil chat client means no
// LLM credential was configured; runs then fail with missing_credential
// instead of at startup.
func New(st store.Store, chat llm.ChatClient, registry *tools.Registry, engine *policy.Engine, cfg *config.Config) *Service {
	s := &Service{
		store:    st,
		llm:      chat,
		registry: registry,
		config:   cfg,
	}
	s.executor = tools.NewExecutor(registry, engine, s, cfg.ToolRetryDelay)
	return s
}

// Wait blocks until all in-flight run goroutines have finished. Used on
// shutdown so runs are not torn down mid-write.
func (s *Service) Wait() {
	s.wg.Wait()
}
