// Package tools defines the tool registry, validation and execution layer.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fieldline/agentcore/internal/domain"
	"github.com/fieldline/agentcore/internal/llm"
)

// Args are the decoded arguments of one tool invocation.
type Args map[string]interface{}

// String returns the named argument as a string, or "" when absent or not a
// string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// ProjectData is the slice of the store tools read and write.
type ProjectData interface {
	SearchDrawings(ctx context.Context, projectID, query, discipline string) ([]domain.Drawing, error)
	QueryTasks(ctx context.Context, projectID, status, assigneeID string) ([]domain.Task, error)
	CreateRFI(ctx context.Context, rfi *domain.RFI) (*domain.RFI, error)
}

// ExecContext carries the run-scoped state a handler executes under.
type ExecContext struct {
	RunID     string
	ProjectID string
	UserID    string
	Seq       int
	Data      ProjectData
}

// HandlerFunc executes a tool with validated arguments.
type HandlerFunc func(ctx context.Context, ec ExecContext, args Args) (json.RawMessage, error)

// NormalizeFunc adjusts and checks arguments beyond what the JSON schema
// expresses, after schema validation passes.
type NormalizeFunc func(args Args) error

// Definition describes one registered tool.
type Definition struct {
	Name        string
	Description string
	// Parameters is the JSON Schema advertised to the model.
	Parameters json.RawMessage

	schema    *jsonschema.Schema
	normalize NormalizeFunc
	handler   HandlerFunc
}

// Validate checks raw arguments against the tool's schema and normalizer,
// returning the decoded arguments on success.
func (d *Definition) Validate(raw json.RawMessage) (Args, error) {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := d.schema.Validate(v); err != nil {
		return nil, err
	}
	args, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}
	if d.normalize != nil {
		if err := d.normalize(args); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// Registry stores tool definitions keyed by tool name.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register compiles the tool's parameter schema and adds the definition.
func (r *Registry) Register(name, description string, parameters json.RawMessage, normalize NormalizeFunc, handler HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required for %s", name)
	}
	schema, err := jsonschema.CompileString(name+".json", string(parameters))
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.defs[name] = &Definition{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		schema:      schema,
		normalize:   normalize,
		handler:     handler,
	}
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a tool definition or panics.
func (r *Registry) MustRegister(name, description string, parameters json.RawMessage, normalize NormalizeFunc, handler HandlerFunc) {
	if err := r.Register(name, description, parameters, normalize, handler); err != nil {
		panic(err)
	}
}

// Get returns the definition for a tool name, or nil when unregistered.
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[name]
}

// Specs returns the tool specifications to advertise to the model, in
// registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		d := r.defs[name]
		specs = append(specs, llm.ToolSpec{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return specs
}
