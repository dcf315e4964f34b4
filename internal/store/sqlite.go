package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldline/agentcore/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS agents (
			agent_id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			name TEXT NOT NULL,
			model TEXT,
			temperature REAL NOT NULL DEFAULT 0,
			max_steps INTEGER NOT NULL DEFAULT 0,
			cost_cap_usd REAL NOT NULL DEFAULT 0,
			allowed_tools TEXT,
			system_prompt TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			requested_by TEXT,
			input TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			result_summary TEXT,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			cost_usd REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at DATETIME,
			finished_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_name TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tool_calls (
			tool_call_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			tool_name TEXT NOT NULL,
			args TEXT,
			output TEXT,
			error TEXT,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_calls_run ON tool_calls(run_id, seq, started_at)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			event_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			name TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_run ON audit_events(run_id, ts)`,
		`CREATE TABLE IF NOT EXISTS drawings (
			drawing_id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			number TEXT NOT NULL,
			title TEXT NOT NULL,
			discipline TEXT,
			revision TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drawings_project ON drawings(project_id)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			assignee_id TEXT,
			due_date DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, status)`,
		`CREATE TABLE IF NOT EXISTS rfis (
			rfi_id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			question TEXT NOT NULL,
			drawing_id TEXT,
			status TEXT NOT NULL DEFAULT 'open',
			created_by TEXT,
			idempotency_key TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rfis_idempotency ON rfis(project_id, idempotency_key)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateProject creates a new project.
func (s *SQLiteStore) CreateProject(ctx context.Context, project *domain.Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (project_id, org_id, name, created_at) VALUES (?, ?, ?, ?)`,
		project.ProjectID, project.OrgID, project.Name, project.CreatedAt)
	return err
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	var p domain.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT project_id, org_id, name, created_at FROM projects WHERE project_id = ?`,
		projectID).Scan(&p.ProjectID, &p.OrgID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateAgent creates a new agent configuration.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *domain.AgentConfig) error {
	allowed, _ := json.Marshal(agent.AllowedTools)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, org_id, name, model, temperature, max_steps, cost_cap_usd, allowed_tools, system_prompt, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.AgentID, agent.OrgID, agent.Name, agent.Model, agent.Temperature, agent.MaxSteps,
		agent.CostCapUSD, string(allowed), agent.SystemPrompt, agent.Active, agent.CreatedAt)
	return err
}

// GetAgent retrieves an agent configuration by ID.
func (s *SQLiteStore) GetAgent(ctx context.Context, agentID string) (*domain.AgentConfig, error) {
	var a domain.AgentConfig
	var model, allowed, systemPrompt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_id, org_id, name, model, temperature, max_steps, cost_cap_usd, allowed_tools, system_prompt, active, created_at
		 FROM agents WHERE agent_id = ?`,
		agentID).Scan(&a.AgentID, &a.OrgID, &a.Name, &model, &a.Temperature, &a.MaxSteps,
		&a.CostCapUSD, &allowed, &systemPrompt, &a.Active, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if model.Valid {
		a.Model = model.String
	}
	if allowed.Valid && allowed.String != "" {
		if err := json.Unmarshal([]byte(allowed.String), &a.AllowedTools); err != nil {
			return nil, fmt.Errorf("failed to decode allowed_tools: %w", err)
		}
	}
	if systemPrompt.Valid {
		a.SystemPrompt = systemPrompt.String
	}
	return &a, nil
}

// ListAgents lists all agent configurations.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]domain.AgentConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id, org_id, name, model, temperature, max_steps, cost_cap_usd, allowed_tools, system_prompt, active, created_at
		 FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.AgentConfig
	for rows.Next() {
		var a domain.AgentConfig
		var model, allowed, systemPrompt sql.NullString
		if err := rows.Scan(&a.AgentID, &a.OrgID, &a.Name, &model, &a.Temperature, &a.MaxSteps,
			&a.CostCapUSD, &allowed, &systemPrompt, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		if model.Valid {
			a.Model = model.String
		}
		if allowed.Valid && allowed.String != "" {
			if err := json.Unmarshal([]byte(allowed.String), &a.AllowedTools); err != nil {
				return nil, fmt.Errorf("failed to decode allowed_tools: %w", err)
			}
		}
		if systemPrompt.Valid {
			a.SystemPrompt = systemPrompt.String
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// CreateRun creates a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, agent_id, project_id, requested_by, input, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.AgentID, run.ProjectID, run.RequestedBy, run.Input, run.Status, run.CreatedAt)
	return err
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	var run domain.Run
	var requestedBy, errText, summary sql.NullString
	var startedAt, finishedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, agent_id, project_id, requested_by, input, status, error, result_summary,
		        prompt_tokens, completion_tokens, cost_usd, created_at, started_at, finished_at
		 FROM runs WHERE run_id = ?`,
		runID).Scan(&run.RunID, &run.AgentID, &run.ProjectID, &requestedBy, &run.Input, &run.Status,
		&errText, &summary, &run.PromptTokens, &run.CompletionTokens, &run.CostUSD,
		&run.CreatedAt, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if requestedBy.Valid {
		run.RequestedBy = requestedBy.String
	}
	if errText.Valid {
		run.Error = errText.String
	}
	if summary.Valid {
		run.ResultSummary = summary.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// MarkRunStarted transitions a queued run to running and sets started_at.
// Returns false when the run was not in the queued state.
func (s *SQLiteStore) MarkRunStarted(ctx context.Context, runID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, started_at = ? WHERE run_id = ? AND status = ?`,
		domain.RunStatusRunning, time.Now(), runID, domain.RunStatusQueued)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FinishRun moves a run to a terminal state with finished_at set. A run that
// is already terminal (e.g. externally cancelled) is left untouched; returns
// whether the transition was applied.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status domain.RunStatus, errText, summary string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, result_summary = ?, finished_at = ?
		 WHERE run_id = ? AND status IN (?, ?)`,
		status, nullString(errText), nullString(summary), time.Now(),
		runID, domain.RunStatusQueued, domain.RunStatusRunning)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CancelRun flips a queued or running run to cancelled. Returns false when
// the run was already terminal.
func (s *SQLiteStore) CancelRun(ctx context.Context, runID string) (bool, error) {
	return s.FinishRun(ctx, runID, domain.RunStatusCancelled, "", "")
}

// AddRunUsage accumulates token and cost usage onto a run. Counters only
// ever grow while the run executes.
func (s *SQLiteStore) AddRunUsage(ctx context.Context, runID string, promptTokens, completionTokens int, costUSD float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET prompt_tokens = prompt_tokens + ?, completion_tokens = completion_tokens + ?, cost_usd = cost_usd + ?
		 WHERE run_id = ?`,
		promptTokens, completionTokens, costUSD, runID)
	return err
}

// AppendMessage appends a message to the run's transcript and returns its
// sequence number. Sequence numbers are read-max-plus-one; ordering holds
// because each run has a single writer for its lifetime.
func (s *SQLiteStore) AppendMessage(ctx context.Context, runID string, role domain.MessageRole, content, toolName string) (int, error) {
	var seq int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE run_id = ?`,
		runID).Scan(&seq); err != nil {
		return 0, err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (run_id, seq, role, content, tool_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, seq, role, content, nullString(toolName), time.Now())
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// GetMessages retrieves the full transcript for a run in sequence order.
func (s *SQLiteStore) GetMessages(ctx context.Context, runID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, role, content, tool_name, created_at FROM messages WHERE run_id = ? ORDER BY seq ASC`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var toolName sql.NullString
		if err := rows.Scan(&msg.RunID, &msg.Seq, &msg.Role, &msg.Content, &toolName, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if toolName.Valid {
			msg.ToolName = toolName.String
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateToolCall persists a completed tool invocation record.
func (s *SQLiteStore) CreateToolCall(ctx context.Context, tc *domain.ToolCall) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (tool_call_id, run_id, seq, tool_name, args, output, error, status, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tc.ToolCallID, tc.RunID, tc.Seq, tc.ToolName, nullStringBytes(tc.Args), nullStringBytes(tc.Output),
		nullString(tc.Error), tc.Status, tc.StartedAt, tc.FinishedAt)
	return err
}

// GetToolCalls retrieves the tool-call log for a run in step order.
func (s *SQLiteStore) GetToolCalls(ctx context.Context, runID string) ([]domain.ToolCall, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tool_call_id, run_id, seq, tool_name, args, output, error, status, started_at, finished_at
		 FROM tool_calls WHERE run_id = ? ORDER BY seq ASC, started_at ASC`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []domain.ToolCall
	for rows.Next() {
		var tc domain.ToolCall
		var args, output, errText sql.NullString
		var finishedAt sql.NullTime
		if err := rows.Scan(&tc.ToolCallID, &tc.RunID, &tc.Seq, &tc.ToolName, &args, &output, &errText,
			&tc.Status, &tc.StartedAt, &finishedAt); err != nil {
			return nil, err
		}
		if args.Valid {
			tc.Args = json.RawMessage(args.String)
		}
		if output.Valid {
			tc.Output = json.RawMessage(output.String)
		}
		if errText.Valid {
			tc.Error = errText.String
		}
		if finishedAt.Valid {
			tc.FinishedAt = &finishedAt.Time
		}
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}

// RecordAuditEvent appends an event to the run's audit trail.
func (s *SQLiteStore) RecordAuditEvent(ctx context.Context, ev *domain.AuditEvent) error {
	payload := ""
	if ev.Payload != nil {
		payload = string(ev.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (event_id, run_id, ts, name, payload) VALUES (?, ?, ?, ?, ?)`,
		ev.EventID, ev.RunID, ev.Ts, ev.Name, payload)
	return err
}

// GetAuditEvents retrieves audit events for a run.
func (s *SQLiteStore) GetAuditEvents(ctx context.Context, runID string, afterTs int64, names []string, limit int) ([]domain.AuditEvent, error) {
	query := `SELECT event_id, run_id, ts, name, payload FROM audit_events WHERE run_id = ?`
	args := []interface{}{runID}

	if afterTs > 0 {
		query += ` AND ts > ?`
		args = append(args, afterTs)
	}
	if len(names) > 0 {
		placeholders := make([]string, len(names))
		for i, n := range names {
			placeholders[i] = "?"
			args = append(args, n)
		}
		query += fmt.Sprintf(" AND name IN (%s)", strings.Join(placeholders, ","))
	}
	query += ` ORDER BY ts ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		var payload sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.RunID, &ev.Ts, &ev.Name, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CreateDrawing inserts a drawing row.
func (s *SQLiteStore) CreateDrawing(ctx context.Context, d *domain.Drawing) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drawings (drawing_id, project_id, number, title, discipline, revision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.DrawingID, d.ProjectID, d.Number, d.Title, nullString(d.Discipline), nullString(d.Revision), d.CreatedAt)
	return err
}

// SearchDrawings finds project drawings whose number or title matches the
// query, optionally restricted to a discipline.
func (s *SQLiteStore) SearchDrawings(ctx context.Context, projectID, query, discipline string) ([]domain.Drawing, error) {
	q := `SELECT drawing_id, project_id, number, title, discipline, revision, created_at
	      FROM drawings WHERE project_id = ? AND (number LIKE ? OR title LIKE ?)`
	pattern := "%" + query + "%"
	args := []interface{}{projectID, pattern, pattern}
	if discipline != "" {
		q += ` AND discipline = ?`
		args = append(args, discipline)
	}
	q += ` ORDER BY number ASC LIMIT 20`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drawings []domain.Drawing
	for rows.Next() {
		var d domain.Drawing
		var disc, rev sql.NullString
		if err := rows.Scan(&d.DrawingID, &d.ProjectID, &d.Number, &d.Title, &disc, &rev, &d.CreatedAt); err != nil {
			return nil, err
		}
		if disc.Valid {
			d.Discipline = disc.String
		}
		if rev.Valid {
			d.Revision = rev.String
		}
		drawings = append(drawings, d)
	}
	return drawings, rows.Err()
}

// CreateTask inserts a task row.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (task_id, project_id, title, status, assignee_id, due_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.ProjectID, t.Title, t.Status, nullString(t.AssigneeID), t.DueDate, t.CreatedAt)
	return err
}

// QueryTasks lists project tasks filtered by status and assignee.
func (s *SQLiteStore) QueryTasks(ctx context.Context, projectID, status, assigneeID string) ([]domain.Task, error) {
	q := `SELECT task_id, project_id, title, status, assignee_id, due_date, created_at FROM tasks WHERE project_id = ?`
	args := []interface{}{projectID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	if assigneeID != "" {
		q += ` AND assignee_id = ?`
		args = append(args, assigneeID)
	}
	q += ` ORDER BY created_at ASC LIMIT 50`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var assignee sql.NullString
		var due sql.NullTime
		if err := rows.Scan(&t.TaskID, &t.ProjectID, &t.Title, &t.Status, &assignee, &due, &t.CreatedAt); err != nil {
			return nil, err
		}
		if assignee.Valid {
			t.AssigneeID = assignee.String
		}
		if due.Valid {
			t.DueDate = &due.Time
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateRFI inserts an RFI. When a row with the same project and idempotency
// key already exists, that row is returned instead of a duplicate being
// written, so retried creations are safe.
func (s *SQLiteStore) CreateRFI(ctx context.Context, rfi *domain.RFI) (*domain.RFI, error) {
	if rfi.IdempotencyKey != "" {
		existing, err := s.getRFIByKey(ctx, rfi.ProjectID, rfi.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rfis (rfi_id, project_id, subject, question, drawing_id, status, created_by, idempotency_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rfi.RFIID, rfi.ProjectID, rfi.Subject, rfi.Question, nullString(rfi.DrawingID), rfi.Status,
		nullString(rfi.CreatedBy), nullString(rfi.IdempotencyKey), rfi.CreatedAt)
	if err != nil {
		// A concurrent retry may have won the unique index race.
		if rfi.IdempotencyKey != "" && strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return s.getRFIByKey(ctx, rfi.ProjectID, rfi.IdempotencyKey)
		}
		return nil, err
	}
	return rfi, nil
}

func (s *SQLiteStore) getRFIByKey(ctx context.Context, projectID, key string) (*domain.RFI, error) {
	var r domain.RFI
	var drawingID, createdBy, idemKey sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT rfi_id, project_id, subject, question, drawing_id, status, created_by, idempotency_key, created_at
		 FROM rfis WHERE project_id = ? AND idempotency_key = ?`,
		projectID, key).Scan(&r.RFIID, &r.ProjectID, &r.Subject, &r.Question, &drawingID, &r.Status,
		&createdBy, &idemKey, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if drawingID.Valid {
		r.DrawingID = drawingID.String
	}
	if createdBy.Valid {
		r.CreatedBy = createdBy.String
	}
	if idemKey.Valid {
		r.IdempotencyKey = idemKey.String
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
