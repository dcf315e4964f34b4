package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/agentcore/internal/domain"
	"github.com/fieldline/agentcore/policy"
)

type recordedEvent struct {
	runID   string
	name    string
	payload interface{}
}

type fakeAudit struct {
	events []recordedEvent
}

func (f *fakeAudit) RecordEvent(ctx context.Context, runID, name string, payload interface{}) {
	f.events = append(f.events, recordedEvent{runID: runID, name: name, payload: payload})
}

type fakeData struct {
	drawings  []domain.Drawing
	tasks     []domain.Task
	rfis      []*domain.RFI
	searchErr error
	failures  int
}

func (f *fakeData) SearchDrawings(ctx context.Context, projectID, query, discipline string) ([]domain.Drawing, error) {
	if f.failures > 0 {
		f.failures--
		return nil, f.searchErr
	}
	return f.drawings, nil
}

func (f *fakeData) QueryTasks(ctx context.Context, projectID, status, assigneeID string) ([]domain.Task, error) {
	return f.tasks, nil
}

func (f *fakeData) CreateRFI(ctx context.Context, rfi *domain.RFI) (*domain.RFI, error) {
	for _, existing := range f.rfis {
		if existing.IdempotencyKey == rfi.IdempotencyKey {
			return existing, nil
		}
	}
	f.rfis = append(f.rfis, rfi)
	return rfi, nil
}

func newTestExecutor(t *testing.T, audit *fakeAudit) *Executor {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	r := NewRegistry()
	RegisterBuiltin(r)
	return NewExecutor(r, engine, audit, time.Millisecond)
}

func TestExecutorRunSuccess(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)
	data := &fakeData{drawings: []domain.Drawing{{Number: "S-201", Title: "Level 2 framing"}}}

	out := e.Run(context.Background(), "search_drawings",
		json.RawMessage(`{"query":"S-201"}`), nil,
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: data})

	assert.True(t, out.Result.OK)
	assert.True(t, out.Record)
	assert.Contains(t, string(out.Result.Data), "S-201")
	require.Len(t, audit.events, 1)
	assert.Equal(t, domain.EventToolCall, audit.events[0].name)
}

func TestExecutorBlocksToolOutsideAllowList(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)

	out := e.Run(context.Background(), "create_rfi",
		json.RawMessage(`{"subject":"s","question":"q"}`), []string{"search_drawings"},
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: &fakeData{}})

	assert.False(t, out.Result.OK)
	assert.True(t, out.Record)
	assert.Contains(t, out.Result.Err, "tool_not_allowed")
	require.Len(t, audit.events, 1)
	assert.Equal(t, domain.EventToolError, audit.events[0].name)
}

func TestExecutorUnknownTool(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)

	out := e.Run(context.Background(), "launch_crane",
		json.RawMessage(`{}`), nil,
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: &fakeData{}})

	assert.False(t, out.Result.OK)
	assert.True(t, out.Record)
	assert.Contains(t, out.Result.Err, "unknown_tool")
}

func TestExecutorValidationFailureSkipsRecord(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)

	out := e.Run(context.Background(), "search_drawings",
		json.RawMessage(`{"wrong":"field"}`), nil,
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: &fakeData{}})

	assert.False(t, out.Result.OK)
	assert.False(t, out.Record)
	assert.Contains(t, out.Result.Err, "validation_failed")
	require.Len(t, audit.events, 1)
	assert.Equal(t, domain.EventToolError, audit.events[0].name)
}

func TestExecutorRetriesTransientFailure(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)
	data := &fakeData{
		drawings:  []domain.Drawing{{Number: "A-101"}},
		searchErr: errors.New("database is locked"),
		failures:  2,
	}

	out := e.Run(context.Background(), "search_drawings",
		json.RawMessage(`{"query":"A-101"}`), nil,
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: data})

	assert.True(t, out.Result.OK)
	assert.Equal(t, 0, data.failures)
}

func TestExecutorGivesUpAfterMaxAttempts(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)
	data := &fakeData{
		searchErr: errors.New("database is locked"),
		failures:  10,
	}

	out := e.Run(context.Background(), "search_drawings",
		json.RawMessage(`{"query":"A-101"}`), nil,
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: data})

	assert.False(t, out.Result.OK)
	assert.Contains(t, out.Result.Err, "database is locked")
	assert.Equal(t, 7, data.failures)
}

func TestExecutorStopsRetryOnCancelledContext(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)
	data := &fakeData{
		searchErr: errors.New("database is locked"),
		failures:  10,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := e.Run(ctx, "search_drawings",
		json.RawMessage(`{"query":"A-101"}`), nil,
		ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 1, Data: data})

	assert.False(t, out.Result.OK)
	assert.Equal(t, 9, data.failures)
}

func TestExecutorRFIIdempotentAcrossRetries(t *testing.T) {
	audit := &fakeAudit{}
	e := newTestExecutor(t, audit)
	data := &fakeData{}
	ec := ExecContext{RunID: "run_1", ProjectID: "proj_1", Seq: 3, Data: data}

	first := e.Run(context.Background(), "create_rfi",
		json.RawMessage(`{"subject":"beam size","question":"Confirm W12x26 on grid C"}`), nil, ec)
	second := e.Run(context.Background(), "create_rfi",
		json.RawMessage(`{"subject":"beam size","question":"Confirm W12x26 on grid C"}`), nil, ec)

	assert.True(t, first.Result.OK)
	assert.True(t, second.Result.OK)
	assert.Len(t, data.rfis, 1)
	assert.Equal(t, "run_1:3", data.rfis[0].IdempotencyKey)
}
