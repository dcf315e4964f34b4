package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, ec ExecContext, args Args) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	err := r.Register("echo", "echoes", json.RawMessage(`{"type":"object"}`), nil, noopHandler)
	require.NoError(t, err)

	assert.NotNil(t, r.Get("echo"))
	assert.Nil(t, r.Get("missing"))
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("echo", "echoes", json.RawMessage(`{"type":"object"}`), nil, noopHandler))
	err := r.Register("echo", "echoes", json.RawMessage(`{"type":"object"}`), nil, noopHandler)
	assert.Error(t, err)
}

func TestRegisterRejectsBadSchema(t *testing.T) {
	r := NewRegistry()
	err := r.Register("bad", "broken schema", json.RawMessage(`{"type": 42}`), nil, noopHandler)
	assert.Error(t, err)
}

func TestSpecsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltin(r)

	specs := r.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "search_drawings", specs[0].Name)
	assert.Equal(t, "query_tasks", specs[1].Name)
	assert.Equal(t, "create_rfi", specs[2].Name)
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltin(r)

	def := r.Get("search_drawings")
	_, err := def.Validate(json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownProperty(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltin(r)

	def := r.Get("search_drawings")
	_, err := def.Validate(json.RawMessage(`{"query":"level 2","floor":3}`))
	assert.Error(t, err)
}

func TestValidateRejectsNonJSON(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltin(r)

	def := r.Get("query_tasks")
	_, err := def.Validate(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestValidateNormalizerChecksUUID(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltin(r)

	def := r.Get("create_rfi")
	_, err := def.Validate(json.RawMessage(`{"subject":"s","question":"q","drawing_id":"not-a-uuid"}`))
	assert.Error(t, err)

	args, err := def.Validate(json.RawMessage(`{"subject":"s","question":"q","drawing_id":"2a8f8a3e-9d41-4c9e-9b1a-0f3f2a7c6d5e"}`))
	require.NoError(t, err)
	assert.Equal(t, "s", args.String("subject"))
}

func TestValidateAcceptsEmptyArgsForOptionalSchema(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltin(r)

	def := r.Get("query_tasks")
	args, err := def.Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, args.String("status"))
}
