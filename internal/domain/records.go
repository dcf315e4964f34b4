package domain

import "time"

// Drawing is a project drawing sheet searchable by the agent.
type Drawing struct {
	DrawingID  string    `json:"drawing_id"`
	ProjectID  string    `json:"project_id"`
	Number     string    `json:"number"`
	Title      string    `json:"title"`
	Discipline string    `json:"discipline,omitempty"`
	Revision   string    `json:"revision,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Task is a project task queryable by the agent.
type Task struct {
	TaskID     string     `json:"task_id"`
	ProjectID  string     `json:"project_id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RFI is a request-for-information record the agent can create. The
// idempotency key makes retried creations safe: a second write with the same
// key returns the row written first.
type RFI struct {
	RFIID          string    `json:"rfi_id"`
	ProjectID      string    `json:"project_id"`
	Subject        string    `json:"subject"`
	Question       string    `json:"question"`
	DrawingID      string    `json:"drawing_id,omitempty"`
	Status         string    `json:"status"`
	CreatedBy      string    `json:"created_by,omitempty"`
	IdempotencyKey string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
